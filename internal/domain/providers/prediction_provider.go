package providers

import (
	"context"
	"encoding/json"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

// PredictionProvider asks a learned model for a decision. It never fails:
// every problem is reported as a HeuristicFallback.
type PredictionProvider interface {
	Predict(ctx context.Context, task entities.TaskType, body any) ModelResult
}

// ModelResult is either a ModelDecision or a HeuristicFallback.
type ModelResult interface {
	AttemptCount() int
	isModelResult()
}

// ModelDecision is a usable answer from the prediction service.
type ModelDecision struct {
	Decision     json.RawMessage   `json:"decision"`
	Reasoning    string            `json:"reasoning"`
	Confidence   float64           `json:"confidence"`
	Alternatives []json.RawMessage `json:"alternatives,omitempty"`
	Attempts     int               `json:"-"`
}

// HeuristicFallback tells the caller to run the formula-based path.
type HeuristicFallback struct {
	Reason   string
	Attempts int
}

func (d *ModelDecision) AttemptCount() int { return d.Attempts }
func (f *HeuristicFallback) AttemptCount() int { return f.Attempts }

func (*ModelDecision) isModelResult() {}
func (*HeuristicFallback) isModelResult() {}

// Fallback builds a HeuristicFallback without attempting anything.
func Fallback(reason string) *HeuristicFallback {
	return &HeuristicFallback{Reason: reason}
}
