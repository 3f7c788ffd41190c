package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/OldStager01/churn-dashboard/internal/churnapi"
	"github.com/OldStager01/churn-dashboard/internal/dashboard"
	"github.com/OldStager01/churn-dashboard/internal/resilience"
	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

type ErrorResponse struct {
	Error          string                        `json:"error" example:"model service request failed"`
	Detail         string                        `json:"detail,omitempty" example:"Model not loaded"`
	Fields         []*validation.ValidationError `json:"fields,omitempty"`
	UpstreamStatus int                           `json:"upstream_status,omitempty" example:"503"`
}

// errorStatus maps service errors onto HTTP responses. Invalid upstream
// payloads are checked before validation errors because they wrap them.
func errorStatus(err error) (int, ErrorResponse) {
	var netErr *churnapi.NetworkError

	switch {
	case errors.Is(err, dashboard.ErrPredictionInFlight):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}

	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:  "model service temporarily unavailable",
			Detail: err.Error(),
		}

	case errors.Is(err, churnapi.ErrModelInfoUnavailable):
		return http.StatusNotFound, ErrorResponse{Error: "model info not available"}

	case errors.Is(err, churnapi.ErrInvalidResponse):
		return http.StatusBadGateway, ErrorResponse{
			Error:  "invalid response from model service",
			Detail: err.Error(),
		}

	case errors.As(err, &netErr):
		resp := ErrorResponse{
			Error:          "model service request failed",
			Detail:         netErr.Detail,
			UpstreamStatus: netErr.StatusCode,
		}
		if resp.Detail == "" {
			resp.Detail = err.Error()
		}
		return http.StatusBadGateway, resp

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, ErrorResponse{
			Error:  "model service request failed",
			Detail: err.Error(),
		}

	case errors.Is(err, churnapi.ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error:  "invalid customer data",
			Detail: err.Error(),
		}

	case errors.Is(err, validation.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{
			Error:  "invalid customer data",
			Fields: validation.Fields(err),
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}
