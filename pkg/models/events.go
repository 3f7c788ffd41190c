package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeHealthChecked       EventType = "health_checked"
	EventTypeMetricsRefreshed    EventType = "metrics_refreshed"
	EventTypePredictionCompleted EventType = "prediction_completed"
	EventTypePredictionFailed    EventType = "prediction_failed"
	EventTypeUnknownCategory     EventType = "unknown_category"
	EventTypeCircuitChanged      EventType = "circuit_state_changed"
	EventTypeAlert               EventType = "alert"
	EventTypeError               EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal dashboard event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	Source    string        `json:"source,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, source, message string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  SeverityInfo,
		Source:    source,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
