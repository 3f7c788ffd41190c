package analyzer

import (
	"sync"
	"time"

	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/internal/logger"
)

// Level grades the average churn probability.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

type Config struct {
	HighThreshold     float64
	CriticalThreshold float64
	// TrendDelta is the change in average probability between the older and
	// newer half of the window that counts as a trend.
	TrendDelta float64
	// SpikePercent is the relative jump between consecutive samples that
	// counts as a spike.
	SpikePercent float64
	SustainedFor time.Duration
}

// Analysis summarizes the trend window for the overview and alerting.
type Analysis struct {
	AverageProbability float64    `json:"average_probability"`
	Level              Level      `json:"level"`
	Trend              Trend      `json:"trend"`
	HasSpike           bool       `json:"has_spike"`
	SpikePercent       float64    `json:"spike_percent"`
	ElevatedSince      *time.Time `json:"elevated_since,omitempty"`
	Sustained          bool       `json:"sustained"`
	Recommendation     string     `json:"recommendation"`
	AnalyzedAt         time.Time  `json:"analyzed_at"`
}

// Analyzer grades successive trend windows. It keeps the time the average
// first went above the high threshold so sustained elevation can be told
// apart from a single bad refresh.
type Analyzer struct {
	config Config

	mu            sync.Mutex
	elevatedSince time.Time
}

func New(cfg Config) *Analyzer {
	if cfg.HighThreshold == 0 {
		cfg.HighThreshold = 0.5
	}
	if cfg.CriticalThreshold == 0 {
		cfg.CriticalThreshold = 0.7
	}
	if cfg.TrendDelta == 0 {
		cfg.TrendDelta = 0.03
	}
	if cfg.SpikePercent == 0 {
		cfg.SpikePercent = 25
	}
	if cfg.SustainedFor == 0 {
		cfg.SustainedFor = 5 * time.Minute
	}
	return &Analyzer{config: cfg}
}

// Analyze grades the latest sample of window. An empty window is normal and
// stable.
func (a *Analyzer) Analyze(window history.TrendWindow, now time.Time) *Analysis {
	result := &Analysis{
		Level:      LevelNormal,
		Trend:      TrendStable,
		AnalyzedAt: now,
	}

	latest, ok := window.Latest()
	if !ok {
		a.reset()
		result.Recommendation = recommendation(result)
		return result
	}

	values := window.Values()
	result.AverageProbability = latest.Value
	result.Level = a.level(latest.Value)
	result.Trend = a.trend(values)
	result.HasSpike, result.SpikePercent = a.spike(values)

	if since, elevated := a.track(latest.Value, now); elevated {
		result.ElevatedSince = &since
		result.Sustained = now.Sub(since) >= a.config.SustainedFor
	}
	result.Recommendation = recommendation(result)

	logger.WithField("level", result.Level).
		WithField("trend", result.Trend).
		WithField("spike", result.HasSpike).
		Debugf("Analyzed trend: avg=%.3f", latest.Value)

	return result
}

func (a *Analyzer) level(p float64) Level {
	switch {
	case p >= a.config.CriticalThreshold:
		return LevelCritical
	case p >= a.config.HighThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// trend compares the mean of the older half of the window with the newer
// half. Fewer than three samples is always stable.
func (a *Analyzer) trend(values []float64) Trend {
	if len(values) < 3 {
		return TrendStable
	}

	diff := mean(values[len(values)/2:]) - mean(values[:len(values)/2])
	switch {
	case diff > a.config.TrendDelta:
		return TrendRising
	case diff < -a.config.TrendDelta:
		return TrendFalling
	default:
		return TrendStable
	}
}

func (a *Analyzer) spike(values []float64) (bool, float64) {
	if len(values) < 2 {
		return false, 0
	}
	previous := values[len(values)-2]
	if previous == 0 {
		return false, 0
	}

	change := (values[len(values)-1] - previous) / previous * 100
	return change >= a.config.SpikePercent, change
}

func (a *Analyzer) track(p float64, now time.Time) (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p < a.config.HighThreshold {
		a.elevatedSince = time.Time{}
		return time.Time{}, false
	}
	if a.elevatedSince.IsZero() {
		a.elevatedSince = now
	}
	return a.elevatedSince, true
}

func (a *Analyzer) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elevatedSince = time.Time{}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func recommendation(a *Analysis) string {
	switch {
	case a.Level == LevelCritical:
		return "investigate_immediately"
	case a.HasSpike:
		return "review_recent_predictions"
	case a.Level == LevelWarning && (a.Sustained || a.Trend == TrendRising):
		return "launch_retention_campaign"
	case a.Level == LevelWarning:
		return "monitor_closely"
	case a.Trend == TrendFalling:
		return "retention_improving"
	default:
		return "maintain"
	}
}
