// Package modelapi is a thin HTTP client for the external prediction service.
package modelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is the wire-level surface of the prediction service.
type Client interface {
	Health(ctx context.Context) (*HealthResponse, error)
	Predict(ctx context.Context, taskPath string, body []byte) (*PredictResponse, error)
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status,omitempty"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
}

// PredictResponse is returned by POST /predict/<task>.
type PredictResponse struct {
	Decision     json.RawMessage   `json:"decision"`
	Reasoning    string            `json:"reasoning"`
	Confidence   float64           `json:"confidence"`
	Alternatives []json.RawMessage `json:"alternatives,omitempty"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prediction service %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPClient talks to the prediction service over HTTP. Deadlines come from
// the caller's context.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL
func NewClient(baseURL string) *HTTPClient {
	return NewClientWithHTTP(baseURL, &http.Client{})
}

// NewClientWithHTTP creates a client using the given *http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Health probes GET /health
func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	out := &HealthResponse{}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Predict posts a task body to /predict/<taskPath>
func (c *HTTPClient) Predict(ctx context.Context, taskPath string, body []byte) (*PredictResponse, error) {
	out := &PredictResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/predict/"+taskPath, body, out); err != nil {
		return nil, err
	}
	if len(out.Decision) == 0 || string(out.Decision) == "null" {
		return nil, fmt.Errorf("prediction service returned no decision for %s", taskPath)
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
