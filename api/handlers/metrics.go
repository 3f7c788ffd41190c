package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/churn-dashboard/internal/history"
)

// TrendResponse is the trend window plus the chart axes.
type TrendResponse struct {
	Capacity int              `json:"capacity" example:"10"`
	Samples  []history.Sample `json:"samples"`
	Labels   []string         `json:"labels"`
	Values   []float64        `json:"values"`
}

// GetMetrics godoc
// @Summary Aggregate metrics
// @Description Latest validated metrics snapshot from the model service.
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsSnapshot
// @Failure 503 {object} ErrorResponse "No snapshot yet"
// @Router /api/v1/metrics [get]
func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	snapshot := h.service.Metrics()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "metrics not available yet"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// RefreshMetrics godoc
// @Summary Refresh metrics now
// @Description Fetches metrics from the model service outside the refresh schedule.
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsSnapshot
// @Failure 502 {object} ErrorResponse "Model service error"
// @Failure 503 {object} ErrorResponse "Circuit open"
// @Router /api/v1/metrics/refresh [post]
func (h *DashboardHandler) RefreshMetrics(c *gin.Context) {
	snapshot, err := h.service.RefreshMetrics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetTrend godoc
// @Summary Churn probability trend
// @Description Recent average churn probability samples, oldest first.
// @Tags Metrics
// @Produce json
// @Param limit query int false "Return at most this many of the newest samples"
// @Success 200 {object} TrendResponse
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Router /api/v1/trend [get]
func (h *DashboardHandler) GetTrend(c *gin.Context) {
	trend := h.service.Trend()
	samples := trend.Samples()

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		if limit < len(samples) {
			samples = samples[len(samples)-limit:]
		}
	}

	resp := TrendResponse{
		Capacity: trend.Capacity(),
		Samples:  samples,
		Labels:   make([]string, len(samples)),
		Values:   make([]float64, len(samples)),
	}
	for i, s := range samples {
		resp.Labels[i] = s.Label
		resp.Values[i] = s.Value
	}
	c.JSON(http.StatusOK, resp)
}
