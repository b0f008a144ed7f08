// Package events pushes live ledger and task events to connected admin
// dashboards over WebSocket. Delivery is best-effort: a slow client is
// dropped rather than allowed to block the publishers.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types published by the services.
const (
	StockUpdated    = "stock.updated"
	HistoryRecorded = "history.recorded"
	HistoryEdited   = "history.edited"
	TaskCompleted   = "task.completed"
)

// Publisher is the producer-side interface the services depend on.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

// Event is the wire format sent to dashboard clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboards are served from another origin
	},
}

// Hub fans events out to all connected clients.
type Hub struct {
	mu        sync.Mutex
	clients   map[*client]bool
	broadcast chan []byte
	log       *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an event hub. Run must be started before Publish is used.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan []byte, 256),
		log:       log,
	}
}

// Run dispatches broadcast messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Client too slow; disconnect it.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for all connected clients. It never blocks the
// caller; when the queue is full the event is dropped and logged.
func (h *Hub) Publish(eventType string, payload interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now()})
	if err != nil {
		h.log.Warn("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("event queue full, dropping event", zap.String("type", eventType))
	}
}

// HandleWS upgrades the request and registers the connection.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.clients[cl] = true
	h.mu.Unlock()

	go cl.writePump()
	go h.readPump(cl)
}

// readPump drains the connection so pings are answered; inbound messages
// are ignored, the feed is one-way.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}
	}
}

// writePump pushes queued events and keepalive pings to the client.
func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// NopPublisher discards events; used in tests and the CLI demo.
type NopPublisher struct{}

func (NopPublisher) Publish(eventType string, payload interface{}) {}
