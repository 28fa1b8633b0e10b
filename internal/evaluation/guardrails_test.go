package evaluation

import (
	"strings"
	"testing"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

func TestGuardrails_Defaults(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})
	if g.config.MinExamplesPerTask != 100 {
		t.Errorf("expected default min 100, got %d", g.config.MinExamplesPerTask)
	}
	if g.config.MaxLabelShare != 0.95 {
		t.Errorf("expected default label share 0.95, got %f", g.config.MaxLabelShare)
	}
}

func TestGuardrails_Check(t *testing.T) {
	var examples []*entities.TrainingExample
	for i := 0; i < 4; i++ {
		examples = append(examples, transportExample("t"+string(rune('a'+i)), entities.TransportAmbulance, nil, entities.ExampleSourceSynthetic))
	}
	s := Summarize(examples)

	g := NewGuardrails(GuardrailConfig{MinExamplesPerTask: 3, MaxSyntheticShare: 0.5, MaxLabelShare: 0.9})
	warnings := g.Check(s)

	// four tasks have no data, transport is all synthetic and all ambulance
	if len(warnings) != 6 {
		t.Fatalf("expected 6 warnings, got %d: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "transport_planning: synthetic share 1.00 exceeds 0.50") {
		t.Errorf("missing synthetic share warning: %v", warnings)
	}
	if !strings.Contains(joined, `transport_planning: label "ambulance"`) {
		t.Errorf("missing label share warning: %v", warnings)
	}
	if !strings.HasPrefix(warnings[0], "donor_selection: 0 examples") {
		t.Errorf("expected donor_selection first, got %s", warnings[0])
	}
}
