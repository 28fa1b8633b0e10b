package evaluation

import (
	"fmt"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

// GuardrailConfig bounds what counts as a dataset worth training on.
type GuardrailConfig struct {
	MinExamplesPerTask int
	MaxSyntheticShare  float64
	MaxLabelShare      float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinExamplesPerTask <= 0 {
		config.MinExamplesPerTask = 100
	}
	if config.MaxSyntheticShare <= 0 {
		config.MaxSyntheticShare = 1
	}
	if config.MaxLabelShare <= 0 {
		config.MaxLabelShare = 0.95
	}
	return &Guardrails{config: config}
}

// Check returns one warning per violated bound, ordered by task type.
func (g *Guardrails) Check(s *DatasetSummary) []string {
	var warnings []string
	for _, task := range entities.AllTaskTypes() {
		ts, ok := s.ByTask[task]
		if !ok || ts.Count < g.config.MinExamplesPerTask {
			n := 0
			if ok {
				n = ts.Count
			}
			warnings = append(warnings, fmt.Sprintf("%s: %d examples, need at least %d", task, n, g.config.MinExamplesPerTask))
			continue
		}
		if ts.SyntheticShare > g.config.MaxSyntheticShare {
			warnings = append(warnings, fmt.Sprintf("%s: synthetic share %.2f exceeds %.2f", task, ts.SyntheticShare, g.config.MaxSyntheticShare))
		}
		if label, share := TopLabel(ts.Labels); share > g.config.MaxLabelShare {
			warnings = append(warnings, fmt.Sprintf("%s: label %q covers %.2f of examples", task, label, share))
		}
	}
	return warnings
}
