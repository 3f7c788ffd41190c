package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// EventBus fans dashboard events out to in-process subscribers. Publish
// never blocks: a full subscriber channel drops the event.
type EventBus struct {
	subscribers map[models.EventType][]chan *models.Event
	allChans    []chan *models.Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{
		subscribers: make(map[models.EventType][]chan *models.Event),
		bufferSize:  bufferSize,
	}
}

func (b *EventBus) Subscribe(eventTypes ...models.EventType) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	return ch
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.allChans = append(b.allChans, ch)
	return ch
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)

	for _, ch := range b.subscribers[event.Type] {
		b.deliver(ch, event)
	}
	for _, ch := range b.allChans {
		b.deliver(ch, event)
	}
}

func (b *EventBus) deliver(ch chan *models.Event, event *models.Event) {
	select {
	case ch <- event:
	default:
		b.dropped.Add(1)
		logger.Warnf("Event channel full, dropping event: %s", event.Type)
	}
}

// Counts returns how many events were published and dropped so far.
func (b *EventBus) Counts() (published, dropped uint64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	closed := make(map[chan *models.Event]bool)
	closeOnce := func(ch chan *models.Event) {
		if !closed[ch] {
			close(ch)
			closed[ch] = true
		}
	}

	for _, ch := range b.allChans {
		closeOnce(ch)
	}
	for _, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			closeOnce(ch)
		}
	}

	b.subscribers = make(map[models.EventType][]chan *models.Event)
	b.allChans = nil
}
