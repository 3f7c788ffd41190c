package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/churn-dashboard/internal/analyzer"
	"github.com/OldStager01/churn-dashboard/internal/cache"
	"github.com/OldStager01/churn-dashboard/internal/churnapi"
	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/internal/interpreter"
	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/internal/metrics"
	"github.com/OldStager01/churn-dashboard/internal/request"
	"github.com/OldStager01/churn-dashboard/internal/resilience"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// ErrPredictionInFlight is returned when a prediction is submitted while
// another one is still pending. Submissions are never queued.
var ErrPredictionInFlight = errors.New("a prediction is already in progress")

const DefaultRefreshInterval = 30 * time.Second

type Config struct {
	Client          churnapi.Client
	Cache           cache.Cache
	Publisher       *events.Publisher
	Metrics         *metrics.Metrics
	Analyzer        *analyzer.Analyzer
	RefreshInterval time.Duration
	HistorySize     int
	// Location is applied to model timestamps without an offset.
	Location *time.Location
}

// Service owns the dashboard state: the latest health status and metrics
// snapshot, the trend of average churn probability and the last prediction.
type Service struct {
	client          churnapi.Client
	cache           cache.Cache
	cacheEnabled    bool
	builder         *request.Builder
	interpreter     *interpreter.Interpreter
	history         *history.History
	analyzer        *analyzer.Analyzer
	publisher       *events.Publisher
	metrics         *metrics.Metrics
	refreshInterval time.Duration

	stateMu     sync.RWMutex
	health      *models.HealthStatus
	snapshot    *models.MetricsSnapshot
	lastResult  *models.DisplayResult
	analysis    *analyzer.Analysis
	refreshedAt time.Time

	inFlight atomic.Bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func New(cfg Config) *Service {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = history.DefaultCapacity
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NopCache{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NewPublisher(events.NewEventBus(0))
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = analyzer.New(analyzer.Config{})
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	_, nop := cfg.Cache.(cache.NopCache)

	s := &Service{
		client:          cfg.Client,
		cache:           cfg.Cache,
		cacheEnabled:    !nop,
		builder:         request.NewBuilder(),
		history:         history.New(cfg.HistorySize),
		analyzer:        cfg.Analyzer,
		publisher:       cfg.Publisher,
		metrics:         cfg.Metrics,
		refreshInterval: cfg.RefreshInterval,
	}
	s.interpreter = interpreter.New(
		interpreter.WithUnknownCategoryHook(s.onUnknownCategory),
		interpreter.WithLocation(cfg.Location),
	)
	return s
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true
	s.wg.Add(1)
	go s.run()

	logger.Infof("Dashboard refresh loop started (interval %s)", s.refreshInterval)
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	logger.Info("Dashboard refresh loop stopped")
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	s.runCycle(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(s.ctx)
		}
	}
}

// runCycle checks health and refreshes metrics concurrently. A failing
// metrics fetch does not cancel the health check.
func (s *Service) runCycle(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.refreshInterval-s.refreshInterval/10)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		s.CheckHealth(ctx)
		return nil
	})
	g.Go(func() error {
		_, err := s.RefreshMetrics(ctx)
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Metrics refresh failed: %v", err)
		s.publisher.Error("Metrics refresh failed", err)
	}
}

// CheckHealth probes the model service and stores the result. A change of
// state raises an alert.
func (s *Service) CheckHealth(ctx context.Context) *models.HealthStatus {
	status := s.client.Health(ctx)

	s.stateMu.Lock()
	previous := s.health
	s.health = status
	s.stateMu.Unlock()

	s.metrics.SetUpstreamState(stateGauge(status.State))
	s.publisher.HealthChecked(status)

	if previous != nil && previous.State != status.State {
		severity := models.SeverityInfo
		if status.State != models.StateOnline {
			severity = models.SeverityWarning
		}
		msg := fmt.Sprintf("Model service changed: %s -> %s", previous.Label(), status.Label())
		logger.Warn(msg)
		s.publisher.Alert(severity, msg, status)
	}

	return status
}

// RefreshMetrics fetches the aggregate metrics, validates them and records
// the average churn probability in the trend. Concurrent refreshes are
// allowed; the last one to finish wins.
func (s *Service) RefreshMetrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	start := time.Now()
	defer func() { s.metrics.SetRefreshLatency(time.Since(start)) }()

	snapshot, err := s.client.Metrics(ctx)
	if err != nil {
		s.metrics.IncRefresh(true)
		s.metrics.IncUpstreamRequest("/metrics", outcome(err))
		return nil, err
	}
	s.metrics.IncUpstreamRequest("/metrics", "ok")

	if err := snapshot.Validate(); err != nil {
		s.metrics.IncRefresh(true)
		return nil, fmt.Errorf("%w: %w", churnapi.ErrInvalidResponse, err)
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}

	window, err := s.history.Record(snapshot.AverageChurnProbability, snapshot.FetchedAt)
	if err != nil {
		s.metrics.IncRefresh(true)
		return nil, err
	}

	analysis := s.analyzer.Analyze(window, time.Now())

	s.stateMu.Lock()
	previous := s.analysis
	s.snapshot = snapshot
	s.analysis = analysis
	s.refreshedAt = time.Now()
	s.stateMu.Unlock()

	s.metrics.IncRefresh(false)
	s.metrics.SetUpstreamMetrics(snapshot.TotalPredictions, snapshot.AverageChurnProbability)
	s.publisher.MetricsRefreshed(snapshot, window)
	s.alertOnAnalysis(previous, analysis)

	return snapshot, nil
}

// Predict runs one prediction end to end. Only one prediction may be in
// flight; a concurrent call fails with ErrPredictionInFlight.
func (s *Service) Predict(ctx context.Context, raw map[string]string) (*models.DisplayResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncPredictionError("in_flight")
		return nil, ErrPredictionInFlight
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	publisher := s.publisher.WithTraceID(logger.TraceIDFromContext(ctx))

	req, err := s.builder.Build(raw)
	if err != nil {
		s.predictionFailed(ctx, publisher, "validation", err)
		return nil, err
	}

	resp, cached := s.lookup(ctx, req)
	if !cached {
		resp, err = s.client.Predict(ctx, req)
		if err != nil {
			s.metrics.IncUpstreamRequest("/predict", outcome(err))
			s.predictionFailed(ctx, publisher, outcome(err), err)
			return nil, err
		}
		s.metrics.IncUpstreamRequest("/predict", "ok")
	}

	result, err := s.interpreter.Interpret(resp)
	if err != nil {
		err = fmt.Errorf("%w: %w", churnapi.ErrInvalidResponse, err)
		s.predictionFailed(ctx, publisher, "invalid_response", err)
		return nil, err
	}
	result.Cached = cached

	if !cached && s.cacheEnabled {
		s.cache.Set(ctx, req, resp)
	}

	stored := *result
	stored.Actions = append([]string(nil), result.Actions...)
	s.stateMu.Lock()
	s.lastResult = &stored
	s.stateMu.Unlock()

	s.metrics.IncPrediction(result.Category.String())
	s.metrics.SetPredictionLatency(time.Since(start))
	publisher.PredictionCompleted(result)

	logger.WithTrace(ctx).WithField("customer_id", result.CustomerID).
		WithField("risk", result.Category.String()).
		WithField("cached", cached).
		Info("Prediction completed")

	if _, err := s.RefreshMetrics(ctx); err != nil {
		logger.WithTrace(ctx).Warnf("Post-prediction metrics refresh failed: %v", err)
	}

	return result, nil
}

func (s *Service) lookup(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, bool) {
	if !s.cacheEnabled {
		return nil, false
	}
	resp, ok := s.cache.Get(ctx, req)
	s.metrics.IncCache(ok)
	return resp, ok
}

// alertOnAnalysis raises alerts when the churn level changes, when an
// elevated level becomes sustained and on every spike.
func (s *Service) alertOnAnalysis(previous, current *analyzer.Analysis) {
	prevLevel := analyzer.LevelNormal
	prevSustained := false
	if previous != nil {
		prevLevel = previous.Level
		prevSustained = previous.Sustained
	}
	pct := current.AverageProbability * 100

	if current.Level != prevLevel {
		switch current.Level {
		case analyzer.LevelCritical:
			s.publisher.Alert(models.SeverityCritical, fmt.Sprintf("Average churn probability is critical (%.1f%%)", pct), current)
		case analyzer.LevelWarning:
			s.publisher.Alert(models.SeverityWarning, fmt.Sprintf("Average churn probability is elevated (%.1f%%)", pct), current)
		default:
			s.publisher.Alert(models.SeverityInfo, fmt.Sprintf("Average churn probability back to normal (%.1f%%)", pct), current)
		}
	}
	if current.Sustained && !prevSustained {
		s.publisher.Alert(models.SeverityWarning, fmt.Sprintf("Churn probability elevated since %s", current.ElevatedSince.Format(history.LabelLayout)), current)
	}
	if current.HasSpike {
		s.publisher.Alert(models.SeverityWarning, fmt.Sprintf("Churn probability jumped %.0f%% since the last refresh", current.SpikePercent), current)
	}
}

func (s *Service) predictionFailed(ctx context.Context, publisher *events.Publisher, reason string, err error) {
	s.metrics.IncPredictionError(reason)
	publisher.PredictionFailed(reason, err)
	logger.WithTrace(ctx).WithField("reason", reason).Warnf("Prediction failed: %v", err)
}

func (s *Service) onUnknownCategory(err *models.UnknownCategoryError) {
	s.metrics.IncUnknownRiskLevel()
	s.publisher.UnknownCategory(err.Value)
	logger.WithField("risk_level", err.Value).Warn("Unrecognized risk level, using fallback recommendation")
}

func (s *Service) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	info, err := s.client.ModelInfo(ctx)
	s.metrics.IncUpstreamRequest("/model-info", outcome(err))
	return info, err
}

// PredictionInFlight reports whether a prediction is currently pending.
func (s *Service) PredictionInFlight() bool {
	return s.inFlight.Load()
}

// Ready reports whether at least one health check has completed.
func (s *Service) Ready() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.health != nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func stateGauge(state models.ServiceState) int {
	switch state {
	case models.StateOnline:
		return 2
	case models.StateModelUnavailable:
		return 1
	default:
		return 0
	}
}
