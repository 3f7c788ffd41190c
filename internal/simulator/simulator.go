package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

const (
	Version = "1.0.0"

	// naiveTimestamp matches the model service, which omits the zone.
	naiveTimestamp = "2006-01-02T15:04:05.000000"
)

type Config struct {
	Port          int
	Drift         string
	StartUnloaded bool
	ModelInfo     *models.ModelInfo
}

// Simulator serves the model service API backed by a fixed scorer.
type Simulator struct {
	config  Config
	engine  *gin.Engine
	scorer  Scorer
	tracker *Tracker

	mu          sync.RWMutex
	drift       Drift
	modelLoaded bool
	modelInfo   *models.ModelInfo

	httpServer *http.Server
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.ModelInfo == nil {
		cfg.ModelInfo = DefaultModelInfo()
	}

	s := &Simulator{
		config:      cfg,
		tracker:     NewTracker(),
		drift:       ParseDrift(cfg.Drift),
		modelLoaded: !cfg.StartUnloaded,
		modelInfo:   cfg.ModelInfo,
	}
	s.engine = s.routes()
	return s
}

// DefaultModelInfo describes the scorer as if it were a trained model.
func DefaultModelInfo() *models.ModelInfo {
	score := func(f float64) *float64 { return &f }
	return &models.ModelInfo{
		ModelName: "LogisticHeuristic",
		Timestamp: "2024-01-15T10:30:00",
		BestParams: map[string]interface{}{
			"C":       1.0,
			"penalty": "l2",
		},
		BestScore:     score(0.8412),
		TestF1Score:   score(0.6142),
		TestPrecision: score(0.6534),
		TestRecall:    score(0.5795),
		TestAccuracy:  score(0.8038),
		TestROCAUC:    score(0.8451),
	}
}

func (s *Simulator) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", s.metricsHandler)
	r.GET("/model-info", s.modelInfoHandler)
	r.POST("/predict", s.predictHandler)
	r.POST("/predict/batch", s.batchHandler)

	admin := r.Group("/admin")
	{
		admin.GET("/state", s.stateHandler)
		admin.POST("/model", s.modelHandler)
		admin.POST("/drift", s.driftHandler)
		admin.POST("/reset", s.resetHandler)
	}

	return r
}

// Handler exposes the routes without starting a listener.
func (s *Simulator) Handler() http.Handler {
	return s.engine
}

func (s *Simulator) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Churn model simulator listening on %s (drift %s)", addr, s.DriftName())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) SetModelLoaded(loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelLoaded = loaded
}

func (s *Simulator) ModelLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelLoaded
}

func (s *Simulator) SetDrift(d Drift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drift = d
}

func (s *Simulator) DriftName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drift.Name()
}

func (s *Simulator) Tracker() *Tracker {
	return s.tracker
}

// Predict scores one customer and records it in the tracker.
func (s *Simulator) Predict(c *Customer) (*models.PredictionResponse, error) {
	totalCharges, err := c.Charges()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	drift := s.drift
	s.mu.RUnlock()

	p := round4(sigmoid(drift.Apply(s.scorer.Logit(c, totalCharges))))
	level := riskLevel(p)

	prediction := 0
	if p >= 0.5 {
		prediction = 1
	}

	resp := &models.PredictionResponse{
		CustomerID:       "CUST_" + strings.ToUpper(uuid.NewString()[:8]),
		ChurnPrediction:  prediction,
		ChurnProbability: p,
		RiskLevel:        level,
		Timestamp:        time.Now().Format(naiveTimestamp),
	}
	s.tracker.Record(level, p)

	logger.WithCustomer(resp.CustomerID).WithField("risk", level).Debug("Scored customer")
	return resp, nil
}

// HTTP Handlers

func (s *Simulator) healthHandler(c *gin.Context) {
	loaded := s.ModelLoaded()
	status := "healthy"
	if !loaded {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"model_loaded": loaded,
		"timestamp":    time.Now().Format(naiveTimestamp),
		"version":      Version,
	})
}

func (s *Simulator) metricsHandler(c *gin.Context) {
	total, byRisk, avg := s.tracker.Totals()

	summary := gin.H{
		"model_name":    "N/A",
		"training_date": "N/A",
		"test_f1_score": "N/A",
		"test_roc_auc":  "N/A",
	}
	if info := s.currentModelInfo(); info != nil {
		summary["model_name"] = info.ModelName
		summary["training_date"] = info.Timestamp
		summary["test_f1_score"] = scoreString(info.TestF1Score)
		summary["test_roc_auc"] = scoreString(info.TestROCAUC)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_predictions":         total,
		"predictions_by_risk":       byRisk,
		"average_churn_probability": avg,
		"model_info":                summary,
	})
}

func (s *Simulator) modelInfoHandler(c *gin.Context) {
	info := s.currentModelInfo()
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Model info not available"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Simulator) predictHandler(c *gin.Context) {
	var customer Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": bindingDetail(err)})
		return
	}

	if !s.ModelLoaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Model not loaded"})
		return
	}

	resp, err := s.Predict(&customer)
	if err != nil {
		if errors.Is(err, ErrInvalidTotalCharges) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid TotalCharges value"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Prediction failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// batchHandler scores each customer independently. A bad entry yields an
// error item instead of failing the batch.
func (s *Simulator) batchHandler(c *gin.Context) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": bindingDetail(err)})
		return
	}

	if !s.ModelLoaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Model not loaded"})
		return
	}

	predictions := make([]interface{}, 0, len(raw))
	successful := 0
	for _, item := range raw {
		var customer Customer
		if err := json.Unmarshal(item, &customer); err != nil {
			predictions = append(predictions, gin.H{"error": err.Error()})
			continue
		}
		if err := binding.Validator.ValidateStruct(&customer); err != nil {
			predictions = append(predictions, gin.H{"error": err.Error()})
			continue
		}

		resp, err := s.Predict(&customer)
		if err != nil {
			predictions = append(predictions, gin.H{"error": err.Error()})
			continue
		}
		predictions = append(predictions, resp)
		successful++
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": predictions,
		"total":       len(raw),
		"successful":  successful,
	})
}

func (s *Simulator) stateHandler(c *gin.Context) {
	total, _, _ := s.tracker.Totals()
	c.JSON(http.StatusOK, gin.H{
		"model_loaded":      s.ModelLoaded(),
		"drift":             s.DriftName(),
		"total_predictions": total,
	})
}

type ModelRequest struct {
	Loaded *bool `json:"loaded" binding:"required"`
}

func (s *Simulator) modelHandler(c *gin.Context) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	s.SetModelLoaded(*req.Loaded)
	logger.Infof("Simulated model loaded=%t", *req.Loaded)

	c.JSON(http.StatusOK, gin.H{"message": "model state set", "model_loaded": *req.Loaded})
}

type DriftRequest struct {
	Drift string `json:"drift"` // "steady", "random", "gradual_rise", "seasonal"
}

func (s *Simulator) driftHandler(c *gin.Context) {
	var req DriftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	drift := ParseDrift(req.Drift)
	s.SetDrift(drift)
	logger.Infof("Set drift %s", drift.Name())

	c.JSON(http.StatusOK, gin.H{"message": "drift set", "drift": drift.Name()})
}

func (s *Simulator) resetHandler(c *gin.Context) {
	s.tracker.Reset()
	logger.Info("Simulator counters reset")
	c.JSON(http.StatusOK, gin.H{"message": "counters reset"})
}

func (s *Simulator) currentModelInfo() *models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.modelLoaded {
		return nil
	}
	return s.modelInfo
}

func scoreString(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *f)
}

// bindingDetail renders bind errors as a list of {loc, msg, type} items.
func bindingDetail(err error) []gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []gin.H{{
			"loc":  []string{"body"},
			"msg":  err.Error(),
			"type": "value_error.jsondecode",
		}}
	}

	detail := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		detail = append(detail, gin.H{
			"loc":  []string{"body", jsonName(fe.StructField())},
			"msg":  validationMessage(fe),
			"type": "value_error." + fe.Tag(),
		})
	}
	return detail
}

func jsonName(structField string) string {
	field, ok := reflect.TypeOf(Customer{}).FieldByName(structField)
	if !ok {
		return structField
	}
	return strings.Split(field.Tag.Get("json"), ",")[0]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return "ensure this value is greater than or equal to " + fe.Param()
	case "oneof":
		return "value is not a valid enumeration member; permitted: " + fe.Param()
	default:
		return "invalid value"
	}
}
