package churnapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// MockClient is an in-memory stand-in for the model service. It scores
// requests with a fixed probability and keeps running totals the way the
// real service does, so a prediction moves the metrics it reports.
type MockClient struct {
	mu sync.Mutex

	modelLoaded bool
	offline     bool
	probability float64
	riskLevel   string
	predictErr  error
	metricsErr  error
	modelInfo   *models.ModelInfo
	predictHook func(ctx context.Context) error

	total    int
	sumProb  float64
	byRisk   models.RiskCounts
	calls    map[string]int
	sequence int
}

type MockClientConfig struct {
	Probability float64
	ModelInfo   *models.ModelInfo
}

func NewMockClient(cfg MockClientConfig) *MockClient {
	probability := cfg.Probability
	if probability == 0 {
		probability = 0.5
	}

	return &MockClient{
		modelLoaded: true,
		probability: probability,
		modelInfo:   cfg.ModelInfo,
		calls:       make(map[string]int),
	}
}

func (c *MockClient) SetProbability(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probability = p
}

// SetRiskLevel overrides the risk level string returned by Predict.
func (c *MockClient) SetRiskLevel(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.riskLevel = level
}

func (c *MockClient) SetModelLoaded(loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelLoaded = loaded
}

func (c *MockClient) SetOffline(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = offline
}

func (c *MockClient) SetPredictError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictErr = err
}

func (c *MockClient) SetMetricsError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metricsErr = err
}

// SetPredictHook installs a function run at the start of Predict, outside
// the lock. Tests use it to hold a prediction in flight.
func (c *MockClient) SetPredictHook(fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictHook = fn
}

func (c *MockClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *MockClient) Health(ctx context.Context) *models.HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["health"]++

	if c.offline {
		return models.OfflineStatus("mock offline")
	}

	status := &models.HealthStatus{
		State:       models.StateOnline,
		ModelLoaded: c.modelLoaded,
		Version:     "mock",
		CheckedAt:   time.Now(),
	}
	if !c.modelLoaded {
		status.State = models.StateModelUnavailable
		status.Detail = "unhealthy"
	}
	return status
}

func (c *MockClient) Metrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["metrics"]++

	if err := c.failure("GET /metrics", c.metricsErr); err != nil {
		return nil, err
	}

	avg := 0.0
	if c.total > 0 {
		avg = c.sumProb / float64(c.total)
	}
	return &models.MetricsSnapshot{
		TotalPredictions:        c.total,
		PredictionsByRisk:       c.byRisk,
		AverageChurnProbability: avg,
		FetchedAt:               time.Now(),
	}, nil
}

func (c *MockClient) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error) {
	c.mu.Lock()
	hook := c.predictHook
	c.calls["predict"]++
	c.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure("POST /predict", c.predictErr); err != nil {
		return nil, err
	}
	if !c.modelLoaded {
		return nil, &NetworkError{Endpoint: "POST /predict", StatusCode: 503, Detail: "Model not loaded"}
	}

	category := models.ClassifyProbability(c.probability)
	level := c.riskLevel
	if level == "" {
		level = category.String()
	}

	prediction := 0
	if c.probability >= 0.5 {
		prediction = 1
	}

	c.sequence++
	c.total++
	c.sumProb += c.probability
	c.byRisk.Add(models.NormalizeRiskLevel(level), 1)

	return &models.PredictionResponse{
		CustomerID:       fmt.Sprintf("MOCK_%06d", c.sequence),
		ChurnPrediction:  prediction,
		ChurnProbability: c.probability,
		RiskLevel:        level,
		Timestamp:        time.Now().Format(time.RFC3339Nano),
	}, nil
}

func (c *MockClient) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["model_info"]++

	if err := c.failure("GET /model-info", nil); err != nil {
		return nil, err
	}
	if c.modelInfo == nil {
		return nil, &NetworkError{Endpoint: "GET /model-info", StatusCode: 404, Detail: "Model info not available", Err: ErrModelInfoUnavailable}
	}
	return c.modelInfo, nil
}

// failure must be called with mu held.
func (c *MockClient) failure(endpoint string, configured error) error {
	if c.offline {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("connection refused")}
	}
	return configured
}

func (c *MockClient) Close() error {
	return nil
}
