package websocket

import (
	"sync"

	"github.com/OldStager01/churn-dashboard/internal/logger"
)

type broadcastMessage struct {
	topic Topic
	data  []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   Settings

	// OnClientCount is called with the new total after every change.
	OnClientCount func(n int)
}

func NewHub(settings Settings) *Hub {
	settings = settings.withDefaults()
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastMessage, settings.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.countChanged("connected")

		case client := <-h.unregister:
			h.mu.Lock()
			removed := h.removeLocked(client)
			h.mu.Unlock()
			if removed {
				h.countChanged("disconnected")
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver sends to every subscribed client. Clients whose buffer is full
// are dropped.
func (h *Hub) deliver(msg broadcastMessage) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.Subscribed(msg.topic) {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}

	h.mu.Lock()
	for _, client := range slow {
		h.removeLocked(client)
	}
	h.mu.Unlock()

	logger.Warnf("Dropped %d slow WebSocket client(s)", len(slow))
	h.countChanged("dropped")
}

func (h *Hub) removeLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	close(client.send)
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		h.removeLocked(client)
	}
	h.mu.Unlock()
	h.countChanged("closed")
}

func (h *Hub) countChanged(action string) {
	n := h.ClientCount()
	logger.Debugf("WebSocket client %s (total: %d)", action, n)
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}
}

// Broadcast queues a message for a topic without blocking.
func (h *Hub) Broadcast(topic Topic, data []byte) {
	select {
	case h.broadcast <- broadcastMessage{topic: topic, data: data}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Full reports whether the connection limit has been reached.
func (h *Hub) Full() bool {
	return h.settings.MaxConnections > 0 && h.ClientCount() >= h.settings.MaxConnections
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
