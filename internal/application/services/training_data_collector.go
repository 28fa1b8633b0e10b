package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

// Traffic levels recorded with transport examples
const (
	TrafficLevelLight    = "light"
	TrafficLevelModerate = "moderate"
	TrafficLevelHeavy    = "heavy"
)

// Linkage ties an example back to the decision and request that produced it.
type Linkage struct {
	AgentDecisionID string `json:"agent_decision_id,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

// CollectOptions carries the parts of an example that are not derived from
// the decision inputs.
type CollectOptions struct {
	Source     entities.DecisionSource
	Confidence *float64
	Outcome    *entities.Outcome
	Linkage    Linkage
	// At is when the decision was made. Zero means now.
	At time.Time
}

// TrainingDataCollector records decisions as training examples. Writes are
// best effort: failures are logged and counted, never returned.
type TrainingDataCollector struct {
	repo         repositories.TrainingExampleRepository
	enabled      bool
	writeTimeout time.Duration
	metrics      *observability.Metrics
	now          func() time.Time
	wg           sync.WaitGroup
}

// NewTrainingDataCollector creates a collector. A nil repo disables collection.
func NewTrainingDataCollector(repo repositories.TrainingExampleRepository, cfg config.TrainingConfig, metrics *observability.Metrics) *TrainingDataCollector {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TrainingDataCollector{
		repo:         repo,
		enabled:      cfg.CollectionEnabled && repo != nil,
		writeTimeout: timeout,
		metrics:      metrics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether examples are being written.
func (c *TrainingDataCollector) Enabled() bool {
	return c != nil && c.enabled
}

// Go runs fn in the background with a context that survives the caller's
// cancellation. Use Wait to drain.
func (c *TrainingDataCollector) Go(ctx context.Context, fn func(ctx context.Context)) {
	if !c.Enabled() {
		return
	}
	detached := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				observability.LoggerFromContext(detached).Error().
					Interface("panic", r).
					Msg("training data collection panicked")
			}
		}()
		fn(detached)
	}()
}

// Wait blocks until every collection started with Go has finished.
func (c *TrainingDataCollector) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

// BuildDonorSelectionFeatures is the donor selection input schema. Candidates
// appear in ranked order, so a label index refers to this slice.
func BuildDonorSelectionFeatures(alert *entities.Alert, ranked []entities.ScoredDonor, at time.Time) entities.DonorSelectionFeatures {
	candidates := make([]entities.DonorCandidateFeatures, len(ranked))
	for i, d := range ranked {
		candidates[i] = donorCandidateFeatures(d)
	}
	return entities.DonorSelectionFeatures{
		AlertID:        alert.ID,
		BloodType:      alert.RecipientType().String(),
		Urgency:        alert.Urgency,
		UnitsNeeded:    alert.UnitsNeeded,
		SearchRadiusKm: alert.SearchRadiusKm,
		HourOfDay:      at.Hour(),
		Candidates:     candidates,
	}
}

// BuildDonorSelectionLabel records the candidate at selectedIndex.
func BuildDonorSelectionLabel(features entities.DonorSelectionFeatures, selectedIndex int, source entities.DecisionSource, confidence *float64) (entities.DonorSelectionLabel, error) {
	if selectedIndex < 0 || selectedIndex >= len(features.Candidates) {
		return entities.DonorSelectionLabel{}, fmt.Errorf("selected index %d out of range [0,%d)", selectedIndex, len(features.Candidates))
	}
	selected := features.Candidates[selectedIndex]
	return entities.DonorSelectionLabel{
		SelectedIndex:   selectedIndex,
		SelectedDonorID: selected.DonorID,
		Selected:        selected,
		DecisionSource:  source,
		Confidence:      confidence,
	}, nil
}

func donorCandidateFeatures(d entities.ScoredDonor) entities.DonorCandidateFeatures {
	bt := d.Candidate.BloodType
	if t, err := bloodtype.Normalize(bt); err == nil {
		bt = t.String()
	}
	return entities.DonorCandidateFeatures{
		DonorID:     d.Candidate.ID,
		DistanceKm:  d.DistanceKm,
		ETAMinutes:  d.ETAMinutes,
		Reliability: d.Candidate.Reliability,
		HealthScore: d.Candidate.HealthScore,
		BloodType:   bt,
		Score:       round2(d.Score),
	}
}

// BuildUrgencyAssessmentFeatures is the urgency assessment input schema.
func BuildUrgencyAssessmentFeatures(bt bloodtype.Type, currentUnits int, dailyUsage float64, at time.Time) entities.UrgencyAssessmentFeatures {
	return entities.UrgencyAssessmentFeatures{
		BloodType:     bt.String(),
		Rarity:        string(bloodtype.RarityOf(bt)),
		CurrentUnits:  currentUnits,
		DailyUsage:    dailyUsage,
		DaysRemaining: round2((&UrgencyAssessor{}).DaysRemaining(currentUnits, dailyUsage)),
		HourOfDay:     at.Hour(),
		DayOfWeek:     int(at.Weekday()),
	}
}

// BuildUrgencyAssessmentLabel records the assigned urgency class.
func BuildUrgencyAssessmentLabel(assessment entities.UrgencyAssessment, source entities.DecisionSource, confidence *float64) entities.UrgencyAssessmentLabel {
	return entities.UrgencyAssessmentLabel{
		Urgency:        assessment.Urgency,
		PriorityScore:  round2(assessment.PriorityScore),
		DecisionSource: source,
		Confidence:     confidence,
	}
}

// BuildInventorySelectionFeatures is the inventory selection input schema.
// Sources appear in ranked order.
func BuildInventorySelectionFeatures(req *entities.InventoryRequest, ranked []entities.ScoredInventory, at time.Time) entities.InventorySelectionFeatures {
	sources := make([]entities.InventorySourceFeatures, len(ranked))
	for i, s := range ranked {
		sources[i] = inventorySourceFeatures(s)
	}
	bt := req.BloodType
	if t, err := bloodtype.Normalize(bt); err == nil {
		bt = t.String()
	}
	return entities.InventorySelectionFeatures{
		RequestID:   req.ID,
		BloodType:   bt,
		Urgency:     req.Urgency,
		UnitsNeeded: req.UnitsNeeded,
		HourOfDay:   at.Hour(),
		Sources:     sources,
	}
}

// BuildInventorySelectionLabel records the source at selectedIndex.
func BuildInventorySelectionLabel(features entities.InventorySelectionFeatures, selectedIndex int, source entities.DecisionSource, confidence *float64) (entities.InventorySelectionLabel, error) {
	if selectedIndex < 0 || selectedIndex >= len(features.Sources) {
		return entities.InventorySelectionLabel{}, fmt.Errorf("selected index %d out of range [0,%d)", selectedIndex, len(features.Sources))
	}
	selected := features.Sources[selectedIndex]
	return entities.InventorySelectionLabel{
		SelectedIndex:    selectedIndex,
		SelectedSourceID: selected.SourceID,
		Selected:         selected,
		DecisionSource:   source,
		Confidence:       confidence,
	}, nil
}

func inventorySourceFeatures(s entities.ScoredInventory) entities.InventorySourceFeatures {
	return entities.InventorySourceFeatures{
		SourceID:       s.Source.ID,
		DistanceKm:     s.DistanceKm,
		UnitsAvailable: s.Source.UnitsAvailable,
		DaysToExpiry:   s.Source.DaysToExpiry,
		Score:          round2(s.Score),
	}
}

// BuildTransportPlanningFeatures is the transport planning input schema.
func BuildTransportPlanningFeatures(distanceKm float64, urgency entities.Urgency, units, hour int, traffic float64) entities.TransportPlanningFeatures {
	return entities.TransportPlanningFeatures{
		DistanceKm:        distanceKm,
		Urgency:           urgency,
		Units:             units,
		HourOfDay:         hour,
		TrafficLevel:      TrafficLevelFor(traffic),
		TrafficMultiplier: traffic,
	}
}

// BuildTransportPlanningLabel records the chosen method and ETA.
func BuildTransportPlanningLabel(plan entities.TransportPlan, source entities.DecisionSource, confidence *float64) entities.TransportPlanningLabel {
	return entities.TransportPlanningLabel{
		Method:         plan.Method,
		ETAMinutes:     plan.ETAMinutes,
		DecisionSource: source,
		Confidence:     confidence,
	}
}

// TrafficLevelFor names a traffic multiplier.
func TrafficLevelFor(multiplier float64) string {
	switch {
	case multiplier >= TrafficRushHour:
		return TrafficLevelHeavy
	case multiplier <= TrafficNight:
		return TrafficLevelLight
	default:
		return TrafficLevelModerate
	}
}

// TrafficMultiplierFor is the inverse of TrafficLevelFor.
func TrafficMultiplierFor(level string) float64 {
	switch level {
	case TrafficLevelHeavy:
		return TrafficRushHour
	case TrafficLevelLight:
		return TrafficNight
	default:
		return TrafficNormal
	}
}

// BuildEligibilityAnalysisFeatures is the eligibility analysis input schema.
func BuildEligibilityAnalysisFeatures(p *entities.DonorProfile) entities.EligibilityAnalysisFeatures {
	f := entities.EligibilityAnalysisFeatures{
		Age:                   p.Age,
		WeightKg:              p.WeightKg,
		HeightCm:              p.HeightCm,
		Gender:                p.Gender,
		HemoglobinGdL:         p.HemoglobinGdL,
		DiseaseTestsNegative:  p.DiseaseTestsNegative,
		DaysSinceLastDonation: p.DaysSinceLastDonation,
	}
	if bmi, ok := p.BMI(); ok {
		rounded := math.Round(bmi*10) / 10
		f.BMI = &rounded
	}
	return f
}

// BuildEligibilityAnalysisLabel records the verdict and the failed criteria.
func BuildEligibilityAnalysisLabel(eligible bool, result entities.EligibilityResult, source entities.DecisionSource, confidence *float64) entities.EligibilityAnalysisLabel {
	failed := result.Failed()
	names := make([]string, len(failed))
	for i, c := range failed {
		names[i] = c.Name
	}
	return entities.EligibilityAnalysisLabel{
		Eligible:       eligible,
		FailedCriteria: names,
		Reasons:        result.Reasons(),
		DecisionSource: source,
		Confidence:     confidence,
	}
}

// CollectDonorSelectionExample records a donor selection. It returns the new
// example id, or "" when nothing was written.
func (c *TrainingDataCollector) CollectDonorSelectionExample(ctx context.Context, alert *entities.Alert, ranked []entities.ScoredDonor, selectedIndex int, opts CollectOptions) string {
	if !c.Enabled() {
		return ""
	}
	at := c.at(opts)
	features := BuildDonorSelectionFeatures(alert, ranked, at)
	label, err := BuildDonorSelectionLabel(features, selectedIndex, opts.Source, opts.Confidence)
	if err != nil {
		c.dropped(ctx, entities.TaskDonorSelection, err)
		return ""
	}
	return c.write(ctx, &entities.DonorSelectionPayload{Features: features, Label: label}, opts)
}

// CollectUrgencyAssessmentExample records an urgency assessment.
func (c *TrainingDataCollector) CollectUrgencyAssessmentExample(ctx context.Context, currentUnits int, dailyUsage float64, assessment entities.UrgencyAssessment, opts CollectOptions) string {
	if !c.Enabled() {
		return ""
	}
	features := BuildUrgencyAssessmentFeatures(assessment.BloodType, currentUnits, dailyUsage, c.at(opts))
	label := BuildUrgencyAssessmentLabel(assessment, opts.Source, opts.Confidence)
	return c.write(ctx, &entities.UrgencyAssessmentPayload{Features: features, Label: label}, opts)
}

// CollectInventorySelectionExample records an inventory selection.
func (c *TrainingDataCollector) CollectInventorySelectionExample(ctx context.Context, req *entities.InventoryRequest, ranked []entities.ScoredInventory, selectedIndex int, opts CollectOptions) string {
	if !c.Enabled() {
		return ""
	}
	features := BuildInventorySelectionFeatures(req, ranked, c.at(opts))
	label, err := BuildInventorySelectionLabel(features, selectedIndex, opts.Source, opts.Confidence)
	if err != nil {
		c.dropped(ctx, entities.TaskInventorySelection, err)
		return ""
	}
	return c.write(ctx, &entities.InventorySelectionPayload{Features: features, Label: label}, opts)
}

// CollectTransportPlanningExample records a transport plan made under traffic.
func (c *TrainingDataCollector) CollectTransportPlanningExample(ctx context.Context, urgency entities.Urgency, units int, traffic float64, plan entities.TransportPlan, opts CollectOptions) string {
	if !c.Enabled() {
		return ""
	}
	features := BuildTransportPlanningFeatures(plan.DistanceKm, urgency, units, c.at(opts).Hour(), traffic)
	label := BuildTransportPlanningLabel(plan, opts.Source, opts.Confidence)
	return c.write(ctx, &entities.TransportPlanningPayload{Features: features, Label: label}, opts)
}

// CollectEligibilityAnalysisExample records an eligibility verdict.
func (c *TrainingDataCollector) CollectEligibilityAnalysisExample(ctx context.Context, profile *entities.DonorProfile, eligible bool, result entities.EligibilityResult, opts CollectOptions) string {
	if !c.Enabled() {
		return ""
	}
	features := BuildEligibilityAnalysisFeatures(profile)
	label := BuildEligibilityAnalysisLabel(eligible, result, opts.Source, opts.Confidence)
	return c.write(ctx, &entities.EligibilityAnalysisPayload{Features: features, Label: label}, opts)
}

func (c *TrainingDataCollector) at(opts CollectOptions) time.Time {
	if opts.At.IsZero() {
		return c.now()
	}
	return opts.At
}

func (c *TrainingDataCollector) write(ctx context.Context, payload entities.Payload, opts CollectOptions) string {
	task := payload.TaskType()
	example := &entities.TrainingExample{
		ID:              uuid.NewString(),
		Payload:         payload,
		Outcome:         opts.Outcome,
		UsedForTraining: false,
		Source:          entities.ExampleSourceLive,
		AgentDecisionID: optionalString(opts.Linkage.AgentDecisionID),
		RequestID:       optionalString(opts.Linkage.RequestID),
		CreatedAt:       c.now(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.writeTimeout)
	defer cancel()

	if err := c.repo.Create(writeCtx, example); err != nil {
		c.dropped(ctx, task, err)
		return ""
	}

	c.metrics.RecordExampleWrite(ctx, string(task), "ok")
	observability.LoggerFromContext(ctx).Debug().
		Str("task_type", string(task)).
		Str("example_id", example.ID).
		Msg("training example recorded")
	return example.ID
}

func (c *TrainingDataCollector) dropped(ctx context.Context, task entities.TaskType, err error) {
	c.metrics.RecordExampleWrite(ctx, string(task), "error")
	observability.LoggerFromContext(ctx).Warn().
		Str("task_type", string(task)).
		Err(err).
		Msg("failed to record training example")
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
