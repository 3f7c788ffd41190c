package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// HealthChecker is the part of the dashboard service the probes need.
type HealthChecker interface {
	Ready() bool
	IsRunning() bool
	Status() *models.HealthStatus
}

type HealthHandler struct {
	service HealthChecker
}

func NewHealthHandler(service HealthChecker) *HealthHandler {
	return &HealthHandler{service: service}
}

type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Timestamp string            `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health godoc
// @Summary Dashboard health
// @Description Reports whether the refresh loop is running. The model service state is informational and never makes the dashboard unhealthy.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{
		"refresh_loop":  "running",
		"model_service": string(h.service.Status().State),
	}
	status := "healthy"
	code := http.StatusOK

	if !h.service.IsRunning() {
		checks["refresh_loop"] = "stopped"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: now(),
		Checks:    checks,
	})
}

// Ready godoc
// @Summary Readiness probe
// @Description Ready once the first model service health check has completed.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.service.Ready() {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: now(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: now(),
	})
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: now(),
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
