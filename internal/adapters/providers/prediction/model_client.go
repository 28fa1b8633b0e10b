package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/modelapi"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
	"github.com/Aftab48/Haemologix-sub000/pkg/retry"
)

// ErrModelNotLoaded is an attempt failure: the service answered but has no model.
var ErrModelNotLoaded = errors.New("prediction service is up but model is not loaded")

const healthCacheKey = "model:health"

// Config bounds every prediction request.
type Config struct {
	Enabled        bool
	HealthTimeout  time.Duration
	PredictTimeout time.Duration
	HealthCacheTTL time.Duration
	Policy         retry.Config
}

// ConfigFromModel derives the retry policy from application config: linear
// backoff of step, 2*step... and a total deadline of the worst-case budget.
func ConfigFromModel(cfg config.ModelConfig) Config {
	policy := retry.LinearConfig(cfg.MaxAttempts, cfg.BackoffStep)
	policy.MaxTotalTimeout = policy.Budget(cfg.HealthTimeout + cfg.PredictTimeout)

	return Config{
		Enabled:        cfg.Enabled,
		HealthTimeout:  cfg.HealthTimeout,
		PredictTimeout: cfg.PredictTimeout,
		HealthCacheTTL: cfg.HealthCacheTTL,
		Policy:         policy,
	}
}

// ModelClient implements PredictionProvider over the prediction service.
// Each attempt is a health probe followed by the prediction call; attempts
// run sequentially under Config.Policy.
type ModelClient struct {
	api     modelapi.Client
	cfg     Config
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewModelClient creates a model client. cache and metrics may be nil.
func NewModelClient(api modelapi.Client, cfg Config, cache providers.CacheProvider, metrics *observability.Metrics) *ModelClient {
	return &ModelClient{
		api:     api,
		cfg:     cfg,
		cache:   cache,
		metrics: metrics,
	}
}

// Predict asks the model for a decision and never returns an error: any
// failure becomes a HeuristicFallback carrying the reason.
func (c *ModelClient) Predict(ctx context.Context, task entities.TaskType, body any) providers.ModelResult {
	if !c.cfg.Enabled || c.api == nil {
		return providers.Fallback("prediction service disabled")
	}
	if !task.Valid() {
		return providers.Fallback(fmt.Sprintf("unknown task type %q", task))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providers.Fallback(fmt.Sprintf("encode %s request: %v", task, err))
	}

	ctx, span := observability.StartSpan(ctx, "prediction."+string(task))
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	var resp *modelapi.PredictResponse
	attempts, err := retry.Run(ctx, c.cfg.Policy,
		func(ctx context.Context) error {
			if err := c.checkHealth(ctx); err != nil {
				return fmt.Errorf("health check: %w", err)
			}

			predictCtx, cancel := context.WithTimeout(ctx, c.cfg.PredictTimeout)
			defer cancel()
			r, err := c.api.Predict(predictCtx, task.Path(), payload)
			if err != nil {
				c.forgetHealth(ctx)
				return fmt.Errorf("predict: %w", err)
			}
			resp = r
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Debug().
				Str("task_type", string(task)).
				Int("attempt", attempt).
				Dur("retry_in", nextDelay).
				Err(err).
				Msg("prediction attempt failed")
		},
	)

	if err != nil {
		observability.RecordError(span, err)
		c.metrics.RecordModelAttempts(ctx, string(task), "fallback", attempts)
		logger.Info().
			Str("task_type", string(task)).
			Int("attempts", attempts).
			Str("reason", err.Error()).
			Msg("prediction service unavailable, using heuristic")
		return &providers.HeuristicFallback{Reason: err.Error(), Attempts: attempts}
	}

	c.metrics.RecordModelAttempts(ctx, string(task), "decision", attempts)
	return &providers.ModelDecision{
		Decision:     resp.Decision,
		Reasoning:    resp.Reasoning,
		Confidence:   resp.Confidence,
		Alternatives: resp.Alternatives,
		Attempts:     attempts,
	}
}

func (c *ModelClient) checkHealth(ctx context.Context) error {
	if c.healthCached(ctx) {
		return nil
	}

	healthCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	health, err := c.api.Health(healthCtx)
	if err != nil {
		return err
	}
	if !health.ModelLoaded {
		return ErrModelNotLoaded
	}

	if c.cache != nil && c.cfg.HealthCacheTTL > 0 {
		_ = c.cache.Set(ctx, healthCacheKey, []byte("1"), c.cfg.HealthCacheTTL)
	}
	return nil
}

func (c *ModelClient) healthCached(ctx context.Context) bool {
	if c.cache == nil || c.cfg.HealthCacheTTL <= 0 {
		return false
	}
	v, err := c.cache.Get(ctx, healthCacheKey)
	return err == nil && string(v) == "1"
}

func (c *ModelClient) forgetHealth(ctx context.Context) {
	if c.cache != nil && c.cfg.HealthCacheTTL > 0 {
		_ = c.cache.Delete(ctx, healthCacheKey)
	}
}
