package services

import "time"

// SetDecisionClock fixes the time a DecisionService sees.
func SetDecisionClock(s *DecisionService, now func() time.Time) {
	s.now = now
}

// SetCollectorClock fixes the creation time a TrainingDataCollector stamps.
func SetCollectorClock(c *TrainingDataCollector, now func() time.Time) {
	c.now = now
}
