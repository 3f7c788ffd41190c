package churnapi

import (
	"context"
	"time"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/internal/resilience"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// ResilientClient puts a circuit breaker in front of a Client and retries
// the idempotent GET endpoints. Predictions are never retried.
type ResilientClient struct {
	client         Client
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientClientConfig struct {
	Client        Client
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientClient(cfg ResilientClientConfig) *ResilientClient {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "churn-api",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		IsFailure:     IsServerFailure,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientClient{
		client:         cfg.Client,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

// Health bypasses the breaker so the dashboard keeps probing while the
// circuit is open.
func (c *ResilientClient) Health(ctx context.Context) *models.HealthStatus {
	return c.client.Health(ctx)
}

func (c *ResilientClient) Metrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	var snapshot *models.MetricsSnapshot
	err := c.circuitBreaker.Execute(func() error {
		return c.retry(ctx, "/metrics", func() error {
			var err error
			snapshot, err = c.client.Metrics(ctx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *ResilientClient) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var info *models.ModelInfo
	err := c.circuitBreaker.Execute(func() error {
		return c.retry(ctx, "/model-info", func() error {
			var err error
			info, err = c.client.ModelInfo(ctx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *ResilientClient) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error) {
	var resp *models.PredictionResponse
	err := c.circuitBreaker.Execute(func() error {
		var err error
		resp, err = c.client.Predict(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ResilientClient) retry(ctx context.Context, endpoint string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil || !IsServerFailure(lastErr) {
			return lastErr
		}

		logger.WithEndpoint(endpoint).Warnf(
			"Churn API attempt %d/%d failed: %v",
			attempt, c.retryAttempts, lastErr,
		)

		if attempt < c.retryAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return lastErr
}

func (c *ResilientClient) Close() error {
	return c.client.Close()
}

func (c *ResilientClient) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientClient) CircuitSnapshot() resilience.Snapshot {
	return c.circuitBreaker.Snapshot()
}

func (c *ResilientClient) ResetCircuit() {
	c.circuitBreaker.Reset()
}
