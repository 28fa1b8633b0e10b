package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

// Outcome base rates per task type
const (
	DonorSelectionSuccessRate     = 0.85
	UrgencyAssessmentAccuracy     = 0.90
	InventorySelectionSuccessRate = 0.90
	TransportPlanningSuccessRate  = 0.88
	EligibilityAnalysisAccuracy   = 0.95
)

const (
	donorArrivedGivenSuccess    = 0.95
	diseaseTestsNegativeRate    = 0.97
	firstTimeDonorRate          = 0.30
	timingJitter                = 0.20
	syntheticIDPrefix           = "syn-"
	syntheticSeedBatchSize      = 100
	syntheticSearchRadiusKm     = 60
	defaultSyntheticHistoryDays = 90
)

// Synthetic requests are placed around this point.
var syntheticCenter = entities.Location{Latitude: 6.5244, Longitude: 3.3792}

type weighted[T any] struct {
	value  T
	weight float64
}

// Population frequencies of the eight ABO/Rh types.
var bloodTypeMix = []weighted[bloodtype.Type]{
	{bloodtype.OPos, 37.4}, {bloodtype.APos, 35.7}, {bloodtype.BPos, 8.5}, {bloodtype.ONeg, 6.6},
	{bloodtype.ANeg, 6.3}, {bloodtype.ABPos, 3.4}, {bloodtype.BNeg, 1.5}, {bloodtype.ABNeg, 0.6},
}

var urgencyMix = []weighted[entities.Urgency]{
	{entities.UrgencyMedium, 50}, {entities.UrgencyHigh, 30}, {entities.UrgencyCritical, 20},
}

type kmRange struct{ min, max float64 }

var distanceMix = []weighted[kmRange]{
	{kmRange{0, 10}, 40}, {kmRange{10, 20}, 35}, {kmRange{20, 30}, 15}, {kmRange{30, 50}, 10},
}

// Hours of day by bucket: business, evening, night.
var hourMix = []weighted[[]int]{
	{[]int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17}, 60},
	{[]int{18, 19, 20, 21, 22}, 25},
	{[]int{23, 0, 1, 2, 3, 4, 5, 6, 7}, 15},
}

var trafficMix = []weighted[string]{
	{TrafficLevelLight, 40}, {TrafficLevelModerate, 40}, {TrafficLevelHeavy, 20},
}

// SyntheticDataGenerator produces bootstrap training examples whose labels
// come from the live heuristics and whose outcomes follow fixed base rates.
// It is not safe for concurrent use.
type SyntheticDataGenerator struct {
	rng         *rand.Rand
	historyDays int
	now         func() time.Time

	geo         *GeoEstimator
	scorer      *CandidateScorer
	urgency     *UrgencyAssessor
	transport   *TransportPlanner
	eligibility *EligibilityEvaluator
}

// NewSyntheticDataGenerator creates a generator. Seed 0 picks a random seed.
func NewSyntheticDataGenerator(cfg config.SyntheticConfig) *SyntheticDataGenerator {
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}
	days := cfg.HistoryDays
	if days <= 0 {
		days = defaultSyntheticHistoryDays
	}
	geo := NewGeoEstimator()
	return &SyntheticDataGenerator{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		historyDays: days,
		now:         func() time.Time { return time.Now().UTC() },
		geo:         geo,
		scorer:      NewCandidateScorer(geo),
		urgency:     NewUrgencyAssessor(),
		transport:   NewTransportPlanner(geo),
		eligibility: NewEligibilityEvaluator(),
	}
}

// Generate returns n synthetic examples of one task type.
func (g *SyntheticDataGenerator) Generate(task entities.TaskType, n int) ([]*entities.TrainingExample, error) {
	var build func(at time.Time) (entities.Payload, *entities.Outcome, error)
	switch task {
	case entities.TaskDonorSelection:
		build = g.donorSelection
	case entities.TaskUrgencyAssessment:
		build = g.urgencyAssessment
	case entities.TaskInventorySelection:
		build = g.inventorySelection
	case entities.TaskTransportPlanning:
		build = g.transportPlanning
	case entities.TaskEligibilityAnalysis:
		build = g.eligibilityAnalysis
	default:
		return nil, fmt.Errorf("unknown task type %q", task)
	}

	examples := make([]*entities.TrainingExample, 0, n)
	for range n {
		at := g.timestamp()
		payload, outcome, err := build(at)
		if err != nil {
			return nil, fmt.Errorf("generate %s example: %w", task, err)
		}
		examples = append(examples, &entities.TrainingExample{
			ID:        g.id(),
			Payload:   payload,
			Outcome:   outcome,
			Source:    entities.ExampleSourceSynthetic,
			CreatedAt: at,
		})
	}
	return examples, nil
}

// GenerateAll returns n examples for every task type.
func (g *SyntheticDataGenerator) GenerateAll(n int) ([]*entities.TrainingExample, error) {
	var all []*entities.TrainingExample
	for _, task := range entities.AllTaskTypes() {
		examples, err := g.Generate(task, n)
		if err != nil {
			return nil, err
		}
		all = append(all, examples...)
	}
	return all, nil
}

// Seed generates n examples per task type and writes them to repo in batches.
func (g *SyntheticDataGenerator) Seed(ctx context.Context, repo repositories.TrainingExampleRepository, n int) (map[entities.TaskType]int, error) {
	logger := observability.LoggerFromContext(ctx)
	written := make(map[entities.TaskType]int)

	for _, task := range entities.AllTaskTypes() {
		examples, err := g.Generate(task, n)
		if err != nil {
			return written, err
		}
		for start := 0; start < len(examples); start += syntheticSeedBatchSize {
			end := min(start+syntheticSeedBatchSize, len(examples))
			if err := repo.CreateBatch(ctx, examples[start:end]); err != nil {
				return written, fmt.Errorf("seed %s examples: %w", task, err)
			}
			written[task] += end - start
		}
		logger.Info().Str("task_type", string(task)).Int("count", written[task]).Msg("seeded synthetic training examples")
	}
	return written, nil
}

func (g *SyntheticDataGenerator) donorSelection(at time.Time) (entities.Payload, *entities.Outcome, error) {
	recipient := pick(g.rng, bloodTypeMix)
	donorTypes := bloodtype.CompatibleDonors(recipient)

	alert := &entities.Alert{
		ID:             g.id(),
		BloodType:      recipient.String(),
		Urgency:        pick(g.rng, urgencyMix),
		UnitsNeeded:    1 + g.rng.IntN(4),
		Location:       syntheticCenter,
		SearchRadiusKm: syntheticSearchRadiusKm,
	}

	candidates := make([]entities.Candidate, 3+g.rng.IntN(6))
	for i := range candidates {
		candidates[i] = entities.Candidate{
			ID:          g.id(),
			Location:    g.around(alert.Location),
			Reliability: round2(0.5 + 0.5*g.rng.Float64()),
			HealthScore: math.Round(60 + 40*g.rng.Float64()),
			BloodType:   donorTypes[g.rng.IntN(len(donorTypes))].String(),
		}
	}

	ranked, err := g.scorer.RankDonors(alert, candidates, at)
	if err != nil {
		return nil, nil, err
	}
	features := BuildDonorSelectionFeatures(alert, ranked, at)
	label, err := BuildDonorSelectionLabel(features, 0, entities.SourceHeuristic, nil)
	if err != nil {
		return nil, nil, err
	}

	outcome := &entities.Outcome{Success: g.chance(DonorSelectionSuccessRate)}
	if outcome.Success {
		arrived := g.chance(donorArrivedGivenSuccess)
		outcome.DonorArrived = &arrived
		if arrived {
			outcome.ActualMinutes = g.jitter(float64(ranked[0].ETAMinutes))
		}
	}
	g.observe(outcome, at)
	return &entities.DonorSelectionPayload{Features: features, Label: label}, outcome, nil
}

func (g *SyntheticDataGenerator) urgencyAssessment(at time.Time) (entities.Payload, *entities.Outcome, error) {
	bt := pick(g.rng, bloodTypeMix)
	units := g.rng.IntN(41)
	usage := math.Round((0.5+9.5*g.rng.Float64())*10) / 10

	assessment, err := g.urgency.Assess(bt, units, usage)
	if err != nil {
		return nil, nil, err
	}
	payload := &entities.UrgencyAssessmentPayload{
		Features: BuildUrgencyAssessmentFeatures(bt, units, usage, at),
		Label:    BuildUrgencyAssessmentLabel(assessment, entities.SourceHeuristic, nil),
	}

	correct := g.chance(UrgencyAssessmentAccuracy)
	outcome := &entities.Outcome{Success: correct, PredictionCorrect: &correct}
	g.observe(outcome, at)
	return payload, outcome, nil
}

func (g *SyntheticDataGenerator) inventorySelection(at time.Time) (entities.Payload, *entities.Outcome, error) {
	req := &entities.InventoryRequest{
		ID:          g.id(),
		BloodType:   pick(g.rng, bloodTypeMix).String(),
		Urgency:     pick(g.rng, urgencyMix),
		UnitsNeeded: 1 + g.rng.IntN(6),
		Location:    syntheticCenter,
	}

	sources := make([]entities.InventorySource, 2+g.rng.IntN(5))
	for i := range sources {
		sources[i] = entities.InventorySource{
			ID:             g.id(),
			Location:       g.around(req.Location),
			UnitsAvailable: 1 + g.rng.IntN(20),
			DaysToExpiry:   float64(1 + g.rng.IntN(35)),
		}
	}

	ranked, err := g.scorer.RankInventory(req, sources)
	if err != nil {
		return nil, nil, err
	}
	features := BuildInventorySelectionFeatures(req, ranked, at)
	label, err := BuildInventorySelectionLabel(features, 0, entities.SourceHeuristic, nil)
	if err != nil {
		return nil, nil, err
	}

	outcome := &entities.Outcome{Success: g.chance(InventorySelectionSuccessRate)}
	if outcome.Success {
		plan := g.transport.PlanWithTraffic(ranked[0].DistanceKm, req.Urgency, req.UnitsNeeded, g.geo.TrafficMultiplier(at.Hour()))
		outcome.ActualMinutes = g.jitter(float64(plan.ETAMinutes))
	}
	g.observe(outcome, at)
	return &entities.InventorySelectionPayload{Features: features, Label: label}, outcome, nil
}

func (g *SyntheticDataGenerator) transportPlanning(at time.Time) (entities.Payload, *entities.Outcome, error) {
	distance := g.distance()
	urgency := pick(g.rng, urgencyMix)
	units := 1 + g.rng.IntN(6)
	level := pick(g.rng, trafficMix)
	traffic := TrafficMultiplierFor(level)

	plan := g.transport.PlanWithTraffic(distance, urgency, units, traffic)
	payload := &entities.TransportPlanningPayload{
		Features: BuildTransportPlanningFeatures(distance, urgency, units, at.Hour(), traffic),
		Label:    BuildTransportPlanningLabel(plan, entities.SourceHeuristic, nil),
	}

	outcome := &entities.Outcome{Success: g.chance(TransportPlanningSuccessRate)}
	if outcome.Success {
		outcome.ActualMinutes = g.jitter(float64(plan.ETAMinutes))
	}
	g.observe(outcome, at)
	return payload, outcome, nil
}

func (g *SyntheticDataGenerator) eligibilityAnalysis(at time.Time) (entities.Payload, *entities.Outcome, error) {
	gender := entities.GenderMale
	if g.rng.IntN(2) == 1 {
		gender = entities.GenderFemale
	}
	height := math.Round(150 + 45*g.rng.Float64())
	hb := math.Round(math.Max(8, math.Min(19, 14+1.5*g.rng.NormFloat64()))*10) / 10
	negative := g.chance(diseaseTestsNegativeRate)

	profile := &entities.DonorProfile{
		ID:                   g.id(),
		Age:                  16 + g.rng.IntN(55),
		WeightKg:             math.Round(45 + 55*g.rng.Float64()),
		HeightCm:             &height,
		Gender:               gender,
		HemoglobinGdL:        &hb,
		DiseaseTestsNegative: &negative,
	}
	if !g.chance(firstTimeDonorRate) {
		days := 30 + g.rng.IntN(370)
		profile.DaysSinceLastDonation = &days
	}

	result := g.eligibility.Evaluate(profile)
	payload := &entities.EligibilityAnalysisPayload{
		Features: BuildEligibilityAnalysisFeatures(profile),
		Label:    BuildEligibilityAnalysisLabel(result.Passed, result, entities.SourceHeuristic, nil),
	}

	correct := g.chance(EligibilityAnalysisAccuracy)
	outcome := &entities.Outcome{Success: correct, PredictionCorrect: &correct}
	g.observe(outcome, at)
	return payload, outcome, nil
}

// timestamp is a random moment in the last historyDays full days whose hour
// follows hourMix.
func (g *SyntheticDataGenerator) timestamp() time.Time {
	today := g.now().Truncate(24 * time.Hour)
	day := today.AddDate(0, 0, -1-g.rng.IntN(g.historyDays))
	hours := pick(g.rng, hourMix)
	return day.Add(time.Duration(hours[g.rng.IntN(len(hours))])*time.Hour +
		time.Duration(g.rng.IntN(3600))*time.Second)
}

func (g *SyntheticDataGenerator) distance() float64 {
	r := pick(g.rng, distanceMix)
	return math.Round((r.min+(r.max-r.min)*g.rng.Float64())*10) / 10
}

// around returns a point at a sampled distance and random bearing from center.
func (g *SyntheticDataGenerator) around(center entities.Location) entities.Location {
	d := g.distance()
	bearing := 2 * math.Pi * g.rng.Float64()
	const kmPerDegree = 111.32
	return entities.Location{
		Latitude:  center.Latitude + d*math.Cos(bearing)/kmPerDegree,
		Longitude: center.Longitude + d*math.Sin(bearing)/(kmPerDegree*math.Cos(toRadians(center.Latitude))),
	}
}

func (g *SyntheticDataGenerator) observe(outcome *entities.Outcome, at time.Time) {
	observed := at.Add(time.Duration(30+g.rng.IntN(240)) * time.Minute)
	outcome.ObservedAt = &observed
}

func (g *SyntheticDataGenerator) chance(p float64) bool {
	return g.rng.Float64() < p
}

// jitter varies v uniformly by up to ±20 %.
func (g *SyntheticDataGenerator) jitter(v float64) *float64 {
	j := math.Round(v*(1+timingJitter*(2*g.rng.Float64()-1))*10) / 10
	return &j
}

// id draws a v4 UUID from the seeded source so a seed reproduces identifiers too.
func (g *SyntheticDataGenerator) id() string {
	u, err := uuid.NewRandomFromReader(rngReader{g.rng})
	if err != nil {
		return syntheticIDPrefix + uuid.NewString()
	}
	return syntheticIDPrefix + u.String()
}

type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.rng.Uint64()
		for j := i; j < len(p) && j < i+8; j++ {
			p[j] = byte(v)
			v >>= 8
		}
	}
	return len(p), nil
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	r := rng.Float64() * total
	for _, c := range choices {
		if r < c.weight {
			return c.value
		}
		r -= c.weight
	}
	return choices[len(choices)-1].value
}
