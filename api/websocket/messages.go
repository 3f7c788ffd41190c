package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// Topic is what clients subscribe to. Each dashboard event maps to one.
type Topic string

const (
	TopicStatus     Topic = "status"
	TopicMetrics    Topic = "metrics"
	TopicPrediction Topic = "prediction"
	TopicAlert      Topic = "alert"

	// TopicOverview is only sent once, right after connecting.
	TopicOverview Topic = "overview"
)

func AllTopics() []Topic {
	return []Topic{TopicStatus, TopicMetrics, TopicPrediction, TopicAlert}
}

func ParseTopic(s string) (Topic, bool) {
	for _, t := range AllTopics() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// TopicFor maps an event type to its topic, or "" for events that are not
// streamed.
func TopicFor(eventType models.EventType) Topic {
	switch eventType {
	case models.EventTypeHealthChecked:
		return TopicStatus
	case models.EventTypeMetricsRefreshed:
		return TopicMetrics
	case models.EventTypePredictionCompleted, models.EventTypePredictionFailed:
		return TopicPrediction
	case models.EventTypeAlert, models.EventTypeCircuitChanged,
		models.EventTypeUnknownCategory, models.EventTypeError:
		return TopicAlert
	default:
		return ""
	}
}

type OutgoingMessage struct {
	Topic     Topic       `json:"topic"`
	Event     string      `json:"event,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(topic Topic, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Topic:     topic,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// FromEvent converts a dashboard event; it returns nil for events that are
// not streamed.
func FromEvent(event *models.Event) *OutgoingMessage {
	topic := TopicFor(event.Type)
	if topic == "" {
		return nil
	}
	return &OutgoingMessage{
		Topic:     topic,
		Event:     string(event.Type),
		Severity:  string(event.Severity),
		Message:   event.Message,
		Timestamp: event.Timestamp,
		TraceID:   event.TraceID,
		Data:      event.Data,
	}
}

func (m *OutgoingMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// IncomingMessage is a subscription change sent by the browser.
type IncomingMessage struct {
	Type   string   `json:"type"` // "subscribe" or "unsubscribe"
	Topics []string `json:"topics"`
}

type subscriptionUpdate struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	Topics    []Topic   `json:"topics"`
	Timestamp time.Time `json:"timestamp"`
}
