package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/OldStager01/churn-dashboard/internal/analyzer"
	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/internal/metrics"
	"github.com/OldStager01/churn-dashboard/internal/resilience"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// RiskShare is one slice of the risk distribution chart.
type RiskShare struct {
	Category models.RiskCategory `json:"category"`
	Count    int                 `json:"count"`
	Percent  float64             `json:"percent"`
}

type Overview struct {
	Status             *models.HealthStatus    `json:"status"`
	StatusLabel        string                  `json:"status_label"`
	Metrics            *models.MetricsSnapshot `json:"metrics,omitempty"`
	Distribution       []RiskShare             `json:"distribution"`
	Trend              history.TrendWindow     `json:"trend"`
	Analysis           *analyzer.Analysis      `json:"analysis,omitempty"`
	LastResult         *models.DisplayResult   `json:"last_result,omitempty"`
	PredictionInFlight bool                    `json:"prediction_in_flight"`
	Circuit            *resilience.Snapshot    `json:"circuit,omitempty"`
	RefreshedAt        *time.Time              `json:"refreshed_at,omitempty"`
}

type circuitReporter interface {
	CircuitSnapshot() resilience.Snapshot
}

// Status returns the latest health status. Before the first check it is
// offline with a zero CheckedAt.
func (s *Service) Status() *models.HealthStatus {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.health == nil {
		return &models.HealthStatus{State: models.StateOffline, Detail: "not checked yet"}
	}
	status := *s.health
	return &status
}

// Metrics returns the latest validated snapshot, or nil before the first
// successful refresh.
func (s *Service) Metrics() *models.MetricsSnapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	snapshot := *s.snapshot
	return &snapshot
}

func (s *Service) Trend() history.TrendWindow {
	return s.history.Current()
}

// LastResult returns a copy of the most recent prediction, or nil.
func (s *Service) LastResult() *models.DisplayResult {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.lastResult == nil {
		return nil
	}
	result := *s.lastResult
	result.Actions = append([]string(nil), s.lastResult.Actions...)
	return &result
}

// Analysis returns the grading of the trend as of the last refresh.
func (s *Service) Analysis() *analyzer.Analysis {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.analysis == nil {
		return nil
	}
	analysis := *s.analysis
	return &analysis
}

// Circuit returns the upstream circuit breaker state when the client has one.
func (s *Service) Circuit() *resilience.Snapshot {
	reporter, ok := s.client.(circuitReporter)
	if !ok {
		return nil
	}
	snap := reporter.CircuitSnapshot()
	return &snap
}

func (s *Service) Overview() *Overview {
	status := s.Status()
	snapshot := s.Metrics()

	o := &Overview{
		Status:             status,
		StatusLabel:        status.Label(),
		Metrics:            snapshot,
		Trend:              s.Trend(),
		LastResult:         s.LastResult(),
		Analysis:           s.Analysis(),
		PredictionInFlight: s.PredictionInFlight(),
		Circuit:            s.Circuit(),
	}
	if snapshot != nil {
		o.Distribution = Distribution(snapshot.PredictionsByRisk)
	} else {
		o.Distribution = Distribution(models.RiskCounts{})
	}

	s.stateMu.RLock()
	if !s.refreshedAt.IsZero() {
		at := s.refreshedAt
		o.RefreshedAt = &at
	}
	s.stateMu.RUnlock()

	return o
}

// Distribution splits the counts into percentages of the total, rounded to
// one decimal place. Unknown is only included when non-zero.
func Distribution(counts models.RiskCounts) []RiskShare {
	categories := models.AllRiskCategories()
	if counts.Unknown > 0 {
		categories = append(categories, models.RiskUnknown)
	}

	total := decimal.NewFromInt(int64(counts.Total()))
	shares := make([]RiskShare, 0, len(categories))
	for _, category := range categories {
		count := counts.Get(category)
		share := RiskShare{Category: category, Count: count}
		if !total.IsZero() {
			share.Percent = decimal.NewFromInt(int64(count)).
				Div(total).
				Shift(2).
				Round(1).
				InexactFloat64()
		}
		shares = append(shares, share)
	}
	return shares
}

// CircuitObserver returns a circuit breaker state callback that updates the
// ops metrics and publishes a dashboard event.
func CircuitObserver(m *metrics.Metrics, p *events.Publisher) func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		m.SetCircuitBreakerState(name, int(to))
		p.CircuitStateChanged(name, from.String(), to.String())
		logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
	}
}
