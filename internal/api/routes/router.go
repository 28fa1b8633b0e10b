package routes

import (
	"net/http"

	"github.com/Aftab48/Haemologix-sub000/internal/api/handlers"
	"github.com/Aftab48/Haemologix-sub000/internal/api/middleware"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	decisionHandler *handlers.DecisionHandler
	healthHandler   *handlers.HealthHandler

	server  config.ServerConfig
	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	decisionHandler *handlers.DecisionHandler,
	healthHandler *handlers.HealthHandler,
	server config.ServerConfig,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		decisionHandler: decisionHandler,
		healthHandler:   healthHandler,
		server:          server,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Decision endpoints
	r.mux.HandleFunc("POST /api/decisions/donor-selection", r.decisionHandler.SelectDonor)
	r.mux.HandleFunc("POST /api/decisions/urgency-assessment", r.decisionHandler.AssessUrgency)
	r.mux.HandleFunc("POST /api/decisions/inventory-selection", r.decisionHandler.SelectInventory)
	r.mux.HandleFunc("POST /api/decisions/transport-planning", r.decisionHandler.PlanTransport)
	r.mux.HandleFunc("POST /api/decisions/eligibility-analysis", r.decisionHandler.AnalyzeEligibility)

	// Observability must wrap the mux directly so it can read the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.BodyLimit(r.server.MaxBodyBytes)(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORSMiddleware(r.server.AllowedOrigins)(handler)

	return handler
}
