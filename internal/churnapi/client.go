package churnapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

var (
	ErrUpstream             = errors.New("churn api request failed")
	ErrInvalidResponse      = errors.New("invalid response from churn api")
	ErrModelInfoUnavailable = errors.New("model info not available")
	ErrInvalidRequest       = errors.New("prediction request cannot be encoded")
)

// Client is the consumed surface of the churn model service.
type Client interface {
	// Health never fails: transport errors and non-200 responses are
	// reported as an offline status.
	Health(ctx context.Context) *models.HealthStatus

	Metrics(ctx context.Context) (*models.MetricsSnapshot, error)

	Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error)

	ModelInfo(ctx context.Context) (*models.ModelInfo, error)

	// Close releases any resources held by the client
	Close() error
}

// NetworkError describes a failed call to the model service: either the
// transport failed (StatusCode 0) or the service answered with a non-2xx.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *NetworkError) Error() string {
	msg := "churn api " + e.Endpoint
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrUpstream
}

// IsServerFailure reports whether err means the model service itself is
// unhealthy: transport failures and 5xx responses. Rejections of a request
// (4xx), requests that never left the process and caller cancellation are
// not.
func IsServerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidRequest) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode == 0 || netErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
