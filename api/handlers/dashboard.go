package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/churn-dashboard/internal/dashboard"
	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// Dashboard is the service behind the /api/v1 routes.
type Dashboard interface {
	HealthChecker
	Metrics() *models.MetricsSnapshot
	RefreshMetrics(ctx context.Context) (*models.MetricsSnapshot, error)
	Trend() history.TrendWindow
	Overview() *dashboard.Overview
	LastResult() *models.DisplayResult
	ModelInfo(ctx context.Context) (*models.ModelInfo, error)
	Predict(ctx context.Context, raw map[string]string) (*models.DisplayResult, error)
}

type DashboardHandler struct {
	service Dashboard
}

func NewDashboardHandler(service Dashboard) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetStatus godoc
// @Summary Model service status
// @Description Latest result of the periodic health check against the model service.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.HealthStatus
// @Router /api/v1/status [get]
func (h *DashboardHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

// GetOverview godoc
// @Summary Dashboard overview
// @Description Status, metrics, risk distribution, trend and last prediction in one payload.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dashboard.Overview
// @Router /api/v1/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Overview())
}

// GetLastPrediction godoc
// @Summary Last prediction
// @Tags Predictions
// @Produce json
// @Success 200 {object} models.DisplayResult
// @Failure 404 {object} ErrorResponse "No prediction yet"
// @Router /api/v1/predictions/last [get]
func (h *DashboardHandler) GetLastPrediction(c *gin.Context) {
	result := h.service.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no prediction yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetModelInfo godoc
// @Summary Model info
// @Description Training metadata of the deployed model, proxied from the model service.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.ModelInfo
// @Failure 404 {object} ErrorResponse "Model info not available"
// @Failure 502 {object} ErrorResponse "Model service error"
// @Failure 503 {object} ErrorResponse "Circuit open"
// @Router /api/v1/model-info [get]
func (h *DashboardHandler) GetModelInfo(c *gin.Context) {
	info, err := h.service.ModelInfo(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *DashboardHandler) fail(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context()).Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}
