package entities

import (
	"encoding/json"
	"time"

	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// ExampleSource distinguishes captured decisions from generated bootstrap data.
type ExampleSource string

const (
	ExampleSourceLive      ExampleSource = "live"
	ExampleSourceSynthetic ExampleSource = "synthetic"
)

// Outcome is ground truth observed after a decision was acted on.
type Outcome struct {
	Success           bool       `json:"success"`
	DonorArrived      *bool      `json:"donor_arrived,omitempty"`
	ActualMinutes     *float64   `json:"actual_minutes,omitempty"`
	PredictionCorrect *bool      `json:"prediction_correct,omitempty"`
	ObservedAt        *time.Time `json:"observed_at,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// TrainingExample is a persisted (features, label, outcome) triple.
// UsedForTraining flips from false to true once, when the example is exported.
type TrainingExample struct {
	ID              string
	Payload         Payload
	Outcome         *Outcome
	UsedForTraining bool
	Source          ExampleSource
	AgentDecisionID *string
	RequestID       *string
	CreatedAt       time.Time
	ExportedAt      *time.Time
}

// TaskType is derived from the payload variant.
func (e *TrainingExample) TaskType() TaskType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.TaskType()
}

// Validate checks the fields required before persisting
func (e *TrainingExample) Validate() error {
	if e.ID == "" {
		return apperrors.NewValidationError("training example id is required")
	}
	if e.Payload == nil {
		return apperrors.NewValidationError("training example payload is required")
	}
	if e.CreatedAt.IsZero() {
		return apperrors.NewValidationError("training example created_at is required")
	}
	return nil
}

// ExportRecord is the portable shape written to dataset files.
type ExportRecord struct {
	ID              string          `json:"id"`
	TaskType        TaskType        `json:"taskType"`
	InputFeatures   json.RawMessage `json:"inputFeatures"`
	OutputLabel     json.RawMessage `json:"outputLabel"`
	Outcome         *Outcome        `json:"outcome"`
	AgentDecisionID *string         `json:"agentDecisionId"`
	RequestID       *string         `json:"requestId"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewExportRecord flattens an example into its export shape.
func NewExportRecord(e *TrainingExample) (ExportRecord, error) {
	task, features, label, err := EncodePayload(e.Payload)
	if err != nil {
		return ExportRecord{}, err
	}
	return ExportRecord{
		ID:              e.ID,
		TaskType:        task,
		InputFeatures:   features,
		OutputLabel:     label,
		Outcome:         e.Outcome,
		AgentDecisionID: e.AgentDecisionID,
		RequestID:       e.RequestID,
		CreatedAt:       e.CreatedAt,
	}, nil
}
