package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// DecisionService defines the decision operations used by the handler.
type DecisionService interface {
	SelectDonor(ctx context.Context, alert *entities.Alert, candidates []entities.Candidate, link services.Linkage) (*services.DonorSelectionDecision, error)
	AssessUrgency(ctx context.Context, bloodType string, currentUnits int, dailyUsage float64, link services.Linkage) (*services.UrgencyDecision, error)
	SelectInventory(ctx context.Context, req *entities.InventoryRequest, sources []entities.InventorySource, link services.Linkage) (*services.InventorySelectionDecision, error)
	PlanTransport(ctx context.Context, distanceKm float64, urgency entities.Urgency, units int, link services.Linkage) (*services.TransportDecision, error)
	AnalyzeEligibility(ctx context.Context, profile *entities.DonorProfile, link services.Linkage) (*services.EligibilityDecision, error)
}

// DecisionHandler serves the decision endpoints.
type DecisionHandler struct {
	service DecisionService
}

// NewDecisionHandler creates a new decision handler.
func NewDecisionHandler(service DecisionService) *DecisionHandler {
	return &DecisionHandler{service: service}
}

// linkFields lets a caller tie the decision to its own agent log.
type linkFields struct {
	AgentDecisionID string `json:"agent_decision_id,omitempty" validate:"max=128"`
	RequestID       string `json:"request_id,omitempty" validate:"max=128"`
}

type donorSelectionRequest struct {
	linkFields
	Alert      entities.Alert       `json:"alert"`
	Candidates []entities.Candidate `json:"candidates" validate:"required,min=1,dive"`
}

type urgencyAssessmentRequest struct {
	linkFields
	BloodType    string   `json:"blood_type" validate:"required"`
	CurrentUnits *int     `json:"current_units" validate:"required,gte=0"`
	DailyUsage   *float64 `json:"daily_usage" validate:"required,gte=0"`
}

type inventorySelectionRequest struct {
	linkFields
	Request entities.InventoryRequest  `json:"request"`
	Sources []entities.InventorySource `json:"sources" validate:"required,min=1,dive"`
}

type transportPlanningRequest struct {
	linkFields
	DistanceKm *float64         `json:"distance_km" validate:"required,gte=0"`
	Urgency    entities.Urgency `json:"urgency" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Units      int              `json:"units" validate:"gte=1"`
}

type eligibilityAnalysisRequest struct {
	linkFields
	Profile entities.DonorProfile `json:"profile"`
}

// SelectDonor handles POST /api/decisions/donor-selection
func (h *DecisionHandler) SelectDonor(w http.ResponseWriter, r *http.Request) {
	var req donorSelectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision, err := h.service.SelectDonor(r.Context(), &req.Alert, req.Candidates, linkage(r, req.linkFields))
	h.respond(w, r, decision, err)
}

// AssessUrgency handles POST /api/decisions/urgency-assessment
func (h *DecisionHandler) AssessUrgency(w http.ResponseWriter, r *http.Request) {
	var req urgencyAssessmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision, err := h.service.AssessUrgency(r.Context(), req.BloodType, *req.CurrentUnits, *req.DailyUsage, linkage(r, req.linkFields))
	h.respond(w, r, decision, err)
}

// SelectInventory handles POST /api/decisions/inventory-selection
func (h *DecisionHandler) SelectInventory(w http.ResponseWriter, r *http.Request) {
	var req inventorySelectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision, err := h.service.SelectInventory(r.Context(), &req.Request, req.Sources, linkage(r, req.linkFields))
	h.respond(w, r, decision, err)
}

// PlanTransport handles POST /api/decisions/transport-planning
func (h *DecisionHandler) PlanTransport(w http.ResponseWriter, r *http.Request) {
	var req transportPlanningRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision, err := h.service.PlanTransport(r.Context(), *req.DistanceKm, req.Urgency, req.Units, linkage(r, req.linkFields))
	h.respond(w, r, decision, err)
}

// AnalyzeEligibility handles POST /api/decisions/eligibility-analysis.
// An ineligible donor is a successful analysis and returns 200.
func (h *DecisionHandler) AnalyzeEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityAnalysisRequest
	if !h.decode(w, r, &req) {
		return
	}
	decision, err := h.service.AnalyzeEligibility(r.Context(), &req.Profile, linkage(r, req.linkFields))
	h.respond(w, r, decision, err)
}

func (h *DecisionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeRequest(r, dst); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return false
	}
	return true
}

func (h *DecisionHandler) respond(w http.ResponseWriter, r *http.Request, decision any, err error) {
	if err != nil {
		status := statusForError(err)
		var appErr *apperrors.AppError
		if status == http.StatusServiceUnavailable && errors.As(err, &appErr) {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("decision dependency unavailable")
			respondWithError(w, status, appErr.Message)
			return
		}
		if status >= http.StatusInternalServerError {
			observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("decision failed")
			respondWithError(w, status, "failed to compute decision")
			return
		}
		respondWithError(w, status, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, decision)
}

// linkage prefers ids from the body and falls back to the X-Request-ID header.
func linkage(r *http.Request, f linkFields) services.Linkage {
	link := services.Linkage{AgentDecisionID: f.AgentDecisionID, RequestID: f.RequestID}
	if link.RequestID == "" {
		link.RequestID = r.Header.Get("X-Request-ID")
	}
	return link
}
