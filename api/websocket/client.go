package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/config"
)

// Settings tunes connections. Zero values fall back to defaults.
type Settings struct {
	MaxConnections  int
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	BroadcastBuffer int
	ClientBuffer    int
	AllowedOrigins  []string
}

func SettingsFromConfig(cfg config.WebSocketConfig, allowedOrigins []string) Settings {
	return Settings{
		MaxConnections:  cfg.MaxConnections,
		PingInterval:    cfg.PingInterval,
		WriteTimeout:    cfg.WriteTimeout,
		PongTimeout:     cfg.PongTimeout,
		MaxMessageSize:  cfg.MaxMessageSize,
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		BroadcastBuffer: cfg.BroadcastBuffer,
		ClientBuffer:    cfg.ClientBuffer,
		AllowedOrigins:  allowedOrigins,
	}
}

func (s Settings) withDefaults() Settings {
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.PongTimeout <= 0 {
		s.PongTimeout = 60 * time.Second
	}
	if s.PingInterval <= 0 || s.PingInterval >= s.PongTimeout {
		s.PingInterval = (s.PongTimeout * 9) / 10
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 512
	}
	if s.ReadBufferSize <= 0 {
		s.ReadBufferSize = 1024
	}
	if s.WriteBufferSize <= 0 {
		s.WriteBufferSize = 1024
	}
	if s.BroadcastBuffer <= 0 {
		s.BroadcastBuffer = 256
	}
	if s.ClientBuffer <= 0 {
		s.ClientBuffer = 256
	}
	return s
}

func (s Settings) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	control chan []byte

	mu     sync.RWMutex
	topics map[Topic]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, topics []Topic) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.settings.ClientBuffer),
		control: make(chan []byte, 8),
		topics:  make(map[Topic]bool),
	}
	c.setTopics(topics, true)
	return c
}

func (c *Client) Subscribed(topic Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

func (c *Client) Topics() []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topics := make([]Topic, 0, len(c.topics))
	for _, t := range AllTopics() {
		if c.topics[t] {
			topics = append(topics, t)
		}
	}
	return topics
}

func (c *Client) setTopics(topics []Topic, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		if on {
			c.topics[t] = true
		} else {
			delete(c.topics, t)
		}
	}
}

func (c *Client) ReadPump() {
	settings := c.hub.settings
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	settings := c.hub.settings
	ticker := time.NewTicker(settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case message := <-c.control:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	topics := parseTopics(msg.Topics)

	switch msg.Type {
	case "subscribe":
		c.setTopics(topics, true)
	case "unsubscribe":
		c.setTopics(topics, false)
	default:
		return
	}

	c.sendControl(subscriptionUpdate{
		Type:      "subscription_update",
		Action:    msg.Type,
		Topics:    c.Topics(),
		Timestamp: time.Now(),
	})
}

func (c *Client) sendControl(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket control message: %v", err)
		return
	}
	select {
	case c.control <- data:
	default:
		logger.Warn("Client control channel full, dropping message")
	}
}

func parseTopics(names []string) []Topic {
	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		if t, ok := ParseTopic(strings.TrimSpace(name)); ok {
			topics = append(topics, t)
		}
	}
	return topics
}

// ServeWebSocket upgrades the connection and registers the client. Topics
// come from ?topics=status,metrics and default to all of them. When
// snapshot is set its result is sent first as an overview message.
func ServeWebSocket(hub *Hub, snapshot func() interface{}) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.ReadBufferSize,
		WriteBufferSize: hub.settings.WriteBufferSize,
		CheckOrigin:     hub.settings.checkOrigin,
	}

	return func(c *gin.Context) {
		if hub.Full() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		topics := AllTopics()
		if raw := c.Query("topics"); raw != "" {
			topics = parseTopics(strings.Split(raw, ","))
		}

		client := NewClient(hub, conn, topics)
		if snapshot != nil {
			if data, err := NewMessage(TopicOverview, snapshot()).JSON(); err == nil {
				client.send <- data
			}
		}
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
