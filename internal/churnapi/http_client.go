package churnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

const maxResponseBytes = 1 << 20

type HTTPClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
	}
}

// healthResponse matches GET /health on the model service
type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (c *HTTPClient) Health(ctx context.Context) *models.HealthStatus {
	var body healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &body); err != nil {
		logger.WithEndpoint("/health").Debugf("Health check failed: %v", err)
		return models.OfflineStatus(err.Error())
	}

	status := &models.HealthStatus{
		State:       models.StateOnline,
		ModelLoaded: body.ModelLoaded,
		Version:     body.Version,
		CheckedAt:   time.Now(),
	}
	if !body.ModelLoaded {
		status.State = models.StateModelUnavailable
		status.Detail = body.Status
	}
	return status
}

func (c *HTTPClient) Metrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	var snapshot models.MetricsSnapshot
	if err := c.do(ctx, http.MethodGet, "/metrics", nil, &snapshot); err != nil {
		return nil, err
	}
	snapshot.FetchedAt = time.Now()
	return &snapshot, nil
}

func (c *HTTPClient) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var resp models.PredictionResponse
	if err := c.do(ctx, http.MethodPost, "/predict", payload, &resp); err != nil {
		return nil, err
	}

	logger.WithCustomer(resp.CustomerID).Debug("Prediction received")
	return &resp, nil
}

func (c *HTTPClient) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var info models.ModelInfo
	err := c.do(ctx, http.MethodGet, "/model-info", nil, &info)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound {
			netErr.Err = ErrModelInfoUnavailable
		}
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	endpoint := method + " " + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	logger.WithEndpoint(path).WithField("status", resp.StatusCode).
		Debugf("Churn API responded in %s", time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrInvalidResponse, err),
		}
	}

	return nil
}

// errorDetail extracts the detail field of an error body. Validation
// failures carry a list instead of a string; those are returned compacted.
func errorDetail(data []byte) string {
	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return detail
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body.Detail); err != nil {
		return string(body.Detail)
	}
	return buf.String()
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
