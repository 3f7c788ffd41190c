package events

import (
	"fmt"

	"github.com/OldStager01/churn-dashboard/internal/history"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

const Source = "dashboard"

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) HealthChecked(status *models.HealthStatus) {
	event := models.NewEvent(models.EventTypeHealthChecked, Source, status.Label()).
		WithData(status)

	switch status.State {
	case models.StateOffline:
		event.WithSeverity(models.SeverityCritical)
	case models.StateModelUnavailable:
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

// MetricsPayload is the data of a metrics_refreshed event.
type MetricsPayload struct {
	Metrics *models.MetricsSnapshot `json:"metrics"`
	Trend   history.TrendWindow     `json:"trend"`
}

func (p *Publisher) MetricsRefreshed(snapshot *models.MetricsSnapshot, trend history.TrendWindow) {
	msg := fmt.Sprintf("Metrics refreshed: %d predictions", snapshot.TotalPredictions)
	event := models.NewEvent(models.EventTypeMetricsRefreshed, Source, msg).
		WithData(MetricsPayload{Metrics: snapshot, Trend: trend})
	p.publish(event)
}

func (p *Publisher) PredictionCompleted(result *models.DisplayResult) {
	event := models.NewEvent(models.EventTypePredictionCompleted, Source, result.Headline).
		WithData(result)

	if result.Category == models.RiskHigh {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) PredictionFailed(reason string, err error) {
	event := models.NewEvent(models.EventTypePredictionFailed, Source, "Prediction failed: "+reason).
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) UnknownCategory(value string) {
	event := models.NewEvent(models.EventTypeUnknownCategory, Source, "Unrecognized risk level from model service").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{
			"risk_level": value,
		})
	p.publish(event)
}

func (p *Publisher) CircuitStateChanged(name, from, to string) {
	msg := fmt.Sprintf("Circuit %s: %s -> %s", name, from, to)
	event := models.NewEvent(models.EventTypeCircuitChanged, name, msg).
		WithData(map[string]interface{}{
			"name": name,
			"from": from,
			"to":   to,
		})

	if to == "open" {
		event.WithSeverity(models.SeverityCritical)
	}

	p.publish(event)
}

func (p *Publisher) Alert(severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, Source, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(message string, err error) {
	event := models.NewEvent(models.EventTypeError, Source, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
