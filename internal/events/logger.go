package events

import (
	"context"
	"sync"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// EventLogger writes every event on its channel to the structured log.
// Event payloads are not logged.
type EventLogger struct {
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewEventLogger(eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (l *EventLogger) Start() {
	l.wg.Add(1)
	go l.run()
}

func (l *EventLogger) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *EventLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	fields := map[string]interface{}{
		"event_type": event.Type,
		"event_id":   event.ID,
		"source":     event.Source,
		"severity":   event.Severity,
	}
	if event.TraceID != "" {
		fields["trace_id"] = event.TraceID
	}
	if result, ok := event.Data.(*models.DisplayResult); ok {
		fields["customer_id"] = result.CustomerID
		fields["risk"] = result.Category.String()
	}

	entry := logger.WithFields(fields)

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Debug(event.Message)
	}
}
