package services

import (
	"math"
	"sort"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// ErrNoCandidates is returned when filtering leaves nothing to rank
var ErrNoCandidates = apperrors.NewNotFoundError("no eligible candidates")

// Donor score weights
const (
	donorETAWeight         = 0.4
	donorDistanceWeight    = 0.3
	donorReliabilityWeight = 0.2
	donorHealthWeight      = 0.1

	donorETACeilingMinutes = 120.0
	donorDistanceCeilingKm = 50.0
)

// Inventory score weights
const (
	inventoryProximityWeight = 0.4
	inventoryExpiryWeight    = 0.3
	inventoryQuantityWeight  = 0.2
	inventoryFlatBonus       = 10.0

	inventoryDistanceCeilingKm = 100.0
	inventoryFreshDays         = 7.0
)

// CandidateScorer ranks donors and inventory sources for a request.
type CandidateScorer struct {
	geo *GeoEstimator
}

// NewCandidateScorer creates a new candidate scorer
func NewCandidateScorer(geo *GeoEstimator) *CandidateScorer {
	return &CandidateScorer{geo: geo}
}

// ScoreDonor combines ETA, distance, reliability and health into a 0-100 score.
func (s *CandidateScorer) ScoreDonor(distanceKm float64, etaMinutes int, reliability, healthScore float64) float64 {
	etaScore := math.Max(0, 100-float64(etaMinutes)/donorETACeilingMinutes*100)
	distanceScore := math.Max(0, 100-distanceKm/donorDistanceCeilingKm*100)
	reliabilityScore := reliability * 100

	return donorETAWeight*etaScore +
		donorDistanceWeight*distanceScore +
		donorReliabilityWeight*reliabilityScore +
		donorHealthWeight*healthScore
}

// RankDonors scores every compatible candidate inside the alert's search
// radius and orders them best first. Equal scores keep input order.
func (s *CandidateScorer) RankDonors(alert *entities.Alert, candidates []entities.Candidate, at time.Time) ([]entities.ScoredDonor, error) {
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	if err := entities.ValidateCandidates(candidates); err != nil {
		return nil, err
	}
	recipient := alert.RecipientType()

	ranked := make([]entities.ScoredDonor, 0, len(candidates))
	for i, c := range candidates {
		if c.BloodType != "" {
			donorType, _ := bloodtype.Normalize(c.BloodType)
			if !bloodtype.CanDonate(donorType, recipient) {
				continue
			}
		}

		distance := s.geo.DistanceBetween(alert.Location, c.Location)
		if alert.SearchRadiusKm > 0 && distance > alert.SearchRadiusKm {
			continue
		}
		est := s.geo.Estimate(distance, at)

		ranked = append(ranked, entities.ScoredDonor{
			Index:      i,
			Candidate:  c,
			DistanceKm: distance,
			ETAMinutes: est.RecommendedETA,
			Mode:       est.RecommendedMode,
			Score:      s.ScoreDonor(distance, est.RecommendedETA, c.Reliability, c.HealthScore),
		})
	}

	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// SelectDonor returns the best ranked donor.
func (s *CandidateScorer) SelectDonor(alert *entities.Alert, candidates []entities.Candidate, at time.Time) (*entities.ScoredDonor, error) {
	ranked, err := s.RankDonors(alert, candidates, at)
	if err != nil {
		return nil, err
	}
	return &ranked[0], nil
}

// ScoreInventory combines proximity, shelf life and quantity, plus a flat bonus.
func (s *CandidateScorer) ScoreInventory(distanceKm, daysToExpiry float64, available, needed int) float64 {
	proximity := math.Max(0, 100-distanceKm/inventoryDistanceCeilingKm*100)

	expiry := 100.0
	if daysToExpiry <= inventoryFreshDays {
		expiry = daysToExpiry / inventoryFreshDays * 100
	}

	quantity := 100.0
	if needed > 0 && available < needed {
		quantity = float64(available) / float64(needed) * 100
	}

	return inventoryProximityWeight*proximity +
		inventoryExpiryWeight*expiry +
		inventoryQuantityWeight*quantity +
		inventoryFlatBonus
}

// RankInventory scores every source holding stock and orders them best first.
func (s *CandidateScorer) RankInventory(req *entities.InventoryRequest, sources []entities.InventorySource) ([]entities.ScoredInventory, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := entities.ValidateSources(sources); err != nil {
		return nil, err
	}

	ranked := make([]entities.ScoredInventory, 0, len(sources))
	for i, src := range sources {
		if src.UnitsAvailable == 0 {
			continue
		}
		distance := s.geo.DistanceBetween(req.Location, src.Location)
		ranked = append(ranked, entities.ScoredInventory{
			Index:      i,
			Source:     src,
			DistanceKm: distance,
			Score:      s.ScoreInventory(distance, src.DaysToExpiry, src.UnitsAvailable, req.UnitsNeeded),
		})
	}

	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// SelectInventory returns the best ranked source.
func (s *CandidateScorer) SelectInventory(req *entities.InventoryRequest, sources []entities.InventorySource) (*entities.ScoredInventory, error) {
	ranked, err := s.RankInventory(req, sources)
	if err != nil {
		return nil, err
	}
	return &ranked[0], nil
}
