package websocket

import (
	"sync"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// EventBridge forwards dashboard events to WebSocket clients by topic.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		done:       make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	b.wg.Add(1)
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
	b.wg.Wait()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forward(event)
		}
	}
}

func (b *EventBridge) forward(event *models.Event) {
	msg := FromEvent(event)
	if msg == nil {
		return
	}

	data, err := msg.JSON()
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(msg.Topic, data)
}
