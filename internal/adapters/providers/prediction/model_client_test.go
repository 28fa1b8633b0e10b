package prediction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/adapters/cache"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/modelapi"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
	"github.com/Aftab48/Haemologix-sub000/pkg/retry"
)

func fastConfig() Config {
	policy := retry.LinearConfig(3, 10*time.Millisecond)
	policy.MaxTotalTimeout = policy.Budget(150 * time.Millisecond)
	return Config{
		Enabled:        true,
		HealthTimeout:  50 * time.Millisecond,
		PredictTimeout: 100 * time.Millisecond,
		Policy:         policy,
	}
}

type fakeService struct {
	healthCalls  atomic.Int32
	predictCalls atomic.Int32
	modelLoaded  bool
	failPredicts int32
	predictDelay time.Duration
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		f.healthCalls.Add(1)
		if f.modelLoaded {
			w.Write([]byte(`{"status":"ok","model_loaded":true}`))
			return
		}
		w.Write([]byte(`{"status":"ok","model_loaded":false}`))
	})
	mux.HandleFunc("POST /predict/{task}", func(w http.ResponseWriter, r *http.Request) {
		n := f.predictCalls.Add(1)
		if f.predictDelay > 0 {
			select {
			case <-time.After(f.predictDelay):
			case <-r.Context().Done():
				return
			}
		}
		if n <= f.failPredicts {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"decision":{"urgency":"HIGH","priority_score":0.71},"reasoning":"low stock","confidence":0.9}`))
	})
	return mux
}

func TestModelClient_UnreachableHealthFallsBackWithinBudget(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := fastConfig()
	client := NewModelClient(modelapi.NewClient(url), cfg, nil, nil)

	start := time.Now()
	result := client.Predict(context.Background(), entities.TaskUrgencyAssessment, map[string]any{"blood_type": "O-"})
	elapsed := time.Since(start)

	fallback, ok := result.(*providers.HeuristicFallback)
	require.True(t, ok, "expected HeuristicFallback, got %T", result)
	assert.LessOrEqual(t, fallback.Attempts, 3)
	assert.Contains(t, fallback.Reason, "health check")
	assert.Less(t, elapsed, cfg.Policy.Budget(cfg.HealthTimeout+cfg.PredictTimeout)+200*time.Millisecond)
}

func TestModelClient_ModelNotLoadedIsRetriedThenFallsBack(t *testing.T) {
	svc := &fakeService{modelLoaded: false}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	result := NewModelClient(modelapi.NewClient(server.URL), fastConfig(), nil, nil).
		Predict(context.Background(), entities.TaskUrgencyAssessment, map[string]any{})

	fallback, ok := result.(*providers.HeuristicFallback)
	require.True(t, ok)
	assert.Equal(t, 3, fallback.Attempts)
	assert.Equal(t, int32(3), svc.healthCalls.Load())
	assert.Equal(t, int32(0), svc.predictCalls.Load())
}

func TestModelClient_RecoversAfterTransientFailures(t *testing.T) {
	svc := &fakeService{modelLoaded: true, failPredicts: 2}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	result := NewModelClient(modelapi.NewClient(server.URL), fastConfig(), nil, nil).
		Predict(context.Background(), entities.TaskUrgencyAssessment, map[string]any{})

	decision, ok := result.(*providers.ModelDecision)
	require.True(t, ok, "expected ModelDecision, got %T", result)
	assert.Equal(t, 3, decision.Attempts)
	assert.Equal(t, "low stock", decision.Reasoning)
	assert.Equal(t, 0.9, decision.Confidence)
	assert.JSONEq(t, `{"urgency":"HIGH","priority_score":0.71}`, string(decision.Decision))
}

func TestModelClient_SlowPredictionTimesOut(t *testing.T) {
	svc := &fakeService{modelLoaded: true, predictDelay: time.Second}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	start := time.Now()
	result := NewModelClient(modelapi.NewClient(server.URL), fastConfig(), nil, nil).
		Predict(context.Background(), entities.TaskTransportPlanning, map[string]any{})

	_, ok := result.(*providers.HeuristicFallback)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestModelClient_DisabledNeverCallsService(t *testing.T) {
	svc := &fakeService{modelLoaded: true}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	cfg := fastConfig()
	cfg.Enabled = false

	result := NewModelClient(modelapi.NewClient(server.URL), cfg, nil, nil).
		Predict(context.Background(), entities.TaskDonorSelection, map[string]any{})

	fallback, ok := result.(*providers.HeuristicFallback)
	require.True(t, ok)
	assert.Equal(t, 0, fallback.Attempts)
	assert.Equal(t, int32(0), svc.healthCalls.Load())
}

func TestModelClient_HealthCacheSkipsProbe(t *testing.T) {
	svc := &fakeService{modelLoaded: true}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	cfg := fastConfig()
	cfg.HealthCacheTTL = time.Minute
	client := NewModelClient(modelapi.NewClient(server.URL), cfg, cache.NewMemoryAdapter(), nil)

	for i := 0; i < 3; i++ {
		_, ok := client.Predict(context.Background(), entities.TaskEligibilityAnalysis, map[string]any{}).(*providers.ModelDecision)
		require.True(t, ok)
	}

	assert.Equal(t, int32(1), svc.healthCalls.Load())
	assert.Equal(t, int32(3), svc.predictCalls.Load())
}

func TestConfigFromModel_DefaultBudget(t *testing.T) {
	cfg := ConfigFromModel(config.ModelConfig{
		Enabled:        true,
		HealthTimeout:  5 * time.Second,
		PredictTimeout: 10 * time.Second,
		MaxAttempts:    3,
		BackoffStep:    time.Second,
	})

	assert.Equal(t, 3, cfg.Policy.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Policy.DelayAfter(1))
	assert.Equal(t, 2*time.Second, cfg.Policy.DelayAfter(2))
	// 3 x (5s + 10s) + 1s + 2s
	assert.Equal(t, 48*time.Second, cfg.Policy.MaxTotalTimeout)
}
