package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRate(t *testing.T) {
	if got := Rate(17, 20); !almostEqual(got, 0.85) {
		t.Errorf("expected 0.85, got %f", got)
	}
	if got := Rate(3, 0); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0 for zero denominator, got %f", got)
	}
}

func TestTopLabel_MostFrequent(t *testing.T) {
	label, share := TopLabel(map[string]int{"ambulance": 6, "courier": 3, "scheduled": 1})
	if label != "ambulance" {
		t.Errorf("expected ambulance, got %s", label)
	}
	if !almostEqual(share, 0.6) {
		t.Errorf("expected 0.6, got %f", share)
	}
}

func TestTopLabel_TieIsStable(t *testing.T) {
	for i := 0; i < 20; i++ {
		label, _ := TopLabel(map[string]int{"eligible": 5, "ineligible": 5})
		if label != "eligible" {
			t.Fatalf("expected eligible on tie, got %s", label)
		}
	}
}

func TestTopLabel_Empty(t *testing.T) {
	label, share := TopLabel(nil)
	if label != "" || share != 0 {
		t.Errorf("expected empty result, got %q %f", label, share)
	}
}
