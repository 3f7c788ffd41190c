package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OldStager01/churn-dashboard/internal/logger"
)

const namespace = "churn_dashboard"

// Metrics holds the dashboard's operational counters and gauges and renders
// them in the Prometheus text format.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	predictionsTotal  map[string]int64            // risk category -> count
	predictionErrors  map[string]int64            // reason -> count
	upstreamRequests  map[string]map[string]int64 // endpoint -> outcome -> count
	refreshesTotal    int64
	refreshErrors     int64
	unknownRiskLevels int64
	cacheHits         int64
	cacheMisses       int64

	// Gauges
	upstreamState       float64
	averageProbability  float64
	upstreamPredictions float64
	circuitBreakerState map[string]int // 0=closed, 1=open, 2=half-open
	websocketClients    int

	// Last observed latencies
	predictionLatency time.Duration
	refreshLatency    time.Duration
}

func New() *Metrics {
	return &Metrics{
		predictionsTotal:    make(map[string]int64),
		predictionErrors:    make(map[string]int64),
		upstreamRequests:    make(map[string]map[string]int64),
		circuitBreakerState: make(map[string]int),
	}
}

func (m *Metrics) IncPrediction(risk string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionsTotal[risk]++
}

func (m *Metrics) IncPredictionError(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionErrors[reason]++
}

func (m *Metrics) IncUpstreamRequest(endpoint, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upstreamRequests[endpoint] == nil {
		m.upstreamRequests[endpoint] = make(map[string]int64)
	}
	m.upstreamRequests[endpoint][outcome]++
}

func (m *Metrics) IncRefresh(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshesTotal++
	if failed {
		m.refreshErrors++
	}
}

func (m *Metrics) IncUnknownRiskLevel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unknownRiskLevels++
}

func (m *Metrics) IncCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

// SetUpstreamState records the model service state: 0 offline,
// 1 model unavailable, 2 online.
func (m *Metrics) SetUpstreamState(state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamState = float64(state)
}

func (m *Metrics) SetUpstreamMetrics(totalPredictions int, averageProbability float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamPredictions = float64(totalPredictions)
	m.averageProbability = averageProbability
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerState[name] = state
}

func (m *Metrics) SetWebSocketClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.websocketClients = n
}

func (m *Metrics) SetPredictionLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionLatency = d
}

func (m *Metrics) SetRefreshLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLatency = d
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo renders all series sorted by name and labels.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	m.mu.RLock()
	var lines []string
	add := func(name string, labels map[string]string, value float64) {
		lines = append(lines, formatMetric(namespace+"_"+name, labels, value))
	}

	for risk, count := range m.predictionsTotal {
		add("predictions_total", map[string]string{"risk": risk}, float64(count))
	}
	for reason, count := range m.predictionErrors {
		add("prediction_errors_total", map[string]string{"reason": reason}, float64(count))
	}
	for endpoint, outcomes := range m.upstreamRequests {
		for outcome, count := range outcomes {
			add("upstream_requests_total", map[string]string{"endpoint": endpoint, "outcome": outcome}, float64(count))
		}
	}
	for name, state := range m.circuitBreakerState {
		add("circuit_breaker_state", map[string]string{"name": name}, float64(state))
	}

	add("refreshes_total", nil, float64(m.refreshesTotal))
	add("refresh_errors_total", nil, float64(m.refreshErrors))
	add("unknown_risk_levels_total", nil, float64(m.unknownRiskLevels))
	add("cache_hits_total", nil, float64(m.cacheHits))
	add("cache_misses_total", nil, float64(m.cacheMisses))
	add("upstream_state", nil, m.upstreamState)
	add("upstream_predictions", nil, m.upstreamPredictions)
	add("average_churn_probability", nil, m.averageProbability)
	add("websocket_clients", nil, float64(m.websocketClients))
	add("prediction_latency_ms", nil, float64(m.predictionLatency.Milliseconds()))
	add("refresh_latency_ms", nil, float64(m.refreshLatency.Milliseconds()))
	m.mu.RUnlock()

	sort.Strings(lines)

	var written int64
	for _, line := range lines {
		n, err := io.WriteString(w, line)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func formatMetric(name string, labels map[string]string, value float64) string {
	var b strings.Builder
	b.WriteString(name)

	if len(labels) > 0 {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k + "=" + strconv.Quote(labels[k]))
		}
		b.WriteString("}")
	}

	b.WriteString(" " + strconv.FormatFloat(value, 'f', -1, 64) + "\n")
	return b.String()
}

// Server serves /metrics on its own port.
type Server struct {
	srv *http.Server
}

func NewServer(port int, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start() {
	logger.Infof("Prometheus metrics server listening on %s", s.srv.Addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
