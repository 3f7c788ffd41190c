package events_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/internal/events"
	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestEventBus_SubscribeFiltersByType(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	predictions := bus.Subscribe(models.EventTypePredictionCompleted)
	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeHealthChecked, "test", "health"))
	bus.Publish(models.NewEvent(models.EventTypePredictionCompleted, "test", "prediction"))

	assert.Equal(t, models.EventTypePredictionCompleted, receive(t, predictions).Type)
	assert.Len(t, predictions, 0)

	assert.Equal(t, models.EventTypeHealthChecked, receive(t, all).Type)
	assert.Equal(t, models.EventTypePredictionCompleted, receive(t, all).Type)
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := events.NewEventBus(1)
	defer bus.Close()

	ch := bus.SubscribeAll()
	bus.Publish(models.NewEvent(models.EventTypeAlert, "test", "first"))
	bus.Publish(models.NewEvent(models.EventTypeAlert, "test", "second"))

	published, dropped := bus.Counts()
	assert.Equal(t, uint64(2), published)
	assert.Equal(t, uint64(1), dropped)
	assert.Equal(t, "first", receive(t, ch).Message)
}

func TestEventBus_CloseClosesSubscribers(t *testing.T) {
	bus := events.NewEventBus(1)
	typed := bus.Subscribe(models.EventTypeAlert, models.EventTypeError)
	all := bus.SubscribeAll()

	bus.Close()
	bus.Close()

	_, ok := <-typed
	assert.False(t, ok)
	_, ok = <-all
	assert.False(t, ok)

	// Publishing after close is a no-op.
	bus.Publish(models.NewEvent(models.EventTypeAlert, "test", "late"))

	late := bus.SubscribeAll()
	_, ok = <-late
	assert.False(t, ok)
}

func TestPublisher_Severities(t *testing.T) {
	tests := []struct {
		name     string
		publish  func(p *events.Publisher)
		wantType models.EventType
		wantSev  models.EventSeverity
	}{
		{
			name:     "offline health is critical",
			publish:  func(p *events.Publisher) { p.HealthChecked(models.OfflineStatus("refused")) },
			wantType: models.EventTypeHealthChecked,
			wantSev:  models.SeverityCritical,
		},
		{
			name: "model unavailable is a warning",
			publish: func(p *events.Publisher) {
				p.HealthChecked(&models.HealthStatus{State: models.StateModelUnavailable})
			},
			wantType: models.EventTypeHealthChecked,
			wantSev:  models.SeverityWarning,
		},
		{
			name: "online health is info",
			publish: func(p *events.Publisher) {
				p.HealthChecked(&models.HealthStatus{State: models.StateOnline, ModelLoaded: true})
			},
			wantType: models.EventTypeHealthChecked,
			wantSev:  models.SeverityInfo,
		},
		{
			name: "high risk prediction is a warning",
			publish: func(p *events.Publisher) {
				p.PredictionCompleted(&models.DisplayResult{Category: models.RiskHigh, Headline: "High Churn Risk"})
			},
			wantType: models.EventTypePredictionCompleted,
			wantSev:  models.SeverityWarning,
		},
		{
			name:     "circuit opening is critical",
			publish:  func(p *events.Publisher) { p.CircuitStateChanged("churn-api", "closed", "open") },
			wantType: models.EventTypeCircuitChanged,
			wantSev:  models.SeverityCritical,
		},
		{
			name:     "errors are critical",
			publish:  func(p *events.Publisher) { p.Error("refresh failed", errors.New("boom")) },
			wantType: models.EventTypeError,
			wantSev:  models.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := events.NewEventBus(10)
			defer bus.Close()
			ch := bus.SubscribeAll()

			tt.publish(events.NewPublisher(bus))

			ev := receive(t, ch)
			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantSev, ev.Severity)
			assert.NotEmpty(t, ev.ID)
		})
	}
}

func TestPublisher_TraceIDAndPayload(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(models.EventTypeMetricsRefreshed)

	snapshot := &models.MetricsSnapshot{TotalPredictions: 3, AverageChurnProbability: 0.4}
	trend := history.NewTrendWindow(10).Record(0.4, time.Now())

	events.NewPublisher(bus).WithTraceID("trace-1").MetricsRefreshed(snapshot, trend)

	ev := receive(t, ch)
	assert.Equal(t, "trace-1", ev.TraceID)
	payload, ok := ev.Data.(events.MetricsPayload)
	require.True(t, ok)
	assert.Same(t, snapshot, payload.Metrics)
	assert.Equal(t, 1, payload.Trend.Len())
}

func TestEventLogger_StopsOnClose(t *testing.T) {
	bus := events.NewEventBus(10)
	l := events.NewEventLogger(bus.SubscribeAll())
	l.Start()

	events.NewPublisher(bus).Alert(models.SeverityWarning, "model service degraded", nil)
	bus.Close()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event logger did not stop")
	}
}
