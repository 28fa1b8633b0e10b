package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

// LoadExportFile reads a dataset file written by the exporter and decodes its
// records back into examples. Everything in a file has already been exported.
func LoadExportFile(path string) ([]*entities.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var records []entities.ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file: %w", err)
	}
	if err := ValidateExportRecords(records); err != nil {
		return nil, err
	}

	examples := make([]*entities.TrainingExample, 0, len(records))
	for _, r := range records {
		payload, err := entities.DecodePayload(r.TaskType, r.InputFeatures, r.OutputLabel)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", r.ID, err)
		}
		examples = append(examples, &entities.TrainingExample{
			ID:              r.ID,
			Payload:         payload,
			Outcome:         r.Outcome,
			UsedForTraining: true,
			AgentDecisionID: r.AgentDecisionID,
			RequestID:       r.RequestID,
			CreatedAt:       r.CreatedAt,
		})
	}
	return examples, nil
}

// ValidateExportRecords checks ids, task types and the oldest-first ordering of a dataset file.
func ValidateExportRecords(records []entities.ExportRecord) error {
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record at index %d: missing id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("record at index %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}

		if !r.TaskType.Valid() {
			return fmt.Errorf("record %q: invalid task type %q", r.ID, r.TaskType)
		}
		if r.CreatedAt.IsZero() {
			return fmt.Errorf("record %q: missing createdAt", r.ID)
		}
		if i > 0 && r.CreatedAt.Before(records[i-1].CreatedAt) {
			return fmt.Errorf("record %q: out of temporal order", r.ID)
		}
	}

	return nil
}
