package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is one account notification pushed over WebSocket.
type Event struct {
	Type      string      `json:"type"`
	UserID    uuid.UUID   `json:"user_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Connection represents one WebSocket subscriber
type Connection struct {
	UserID  uuid.UUID
	IsAdmin bool
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub fans account events (balance changes, payment results) out to
// the owning user's connections and to all connected admins.
type Hub struct {
	connections map[uuid.UUID]map[*Connection]bool
	admins      map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}
}

// NewHub creates the event hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		admins:      make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
	}
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			if conn.IsAdmin {
				h.admins[conn] = true
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.connections[conn.UserID]; ok {
				if set[conn] {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.connections, conn.UserID)
					}
				}
			}
			delete(h.admins, conn)
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, set := range h.connections {
				for conn := range set {
					close(conn.Send)
				}
			}
			h.connections = make(map[uuid.UUID]map[*Connection]bool)
			h.admins = make(map[*Connection]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and drops all connections
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a connection to the hub. No-op once the hub stopped.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection from the hub. No-op once the hub
// stopped, so reader goroutines unwinding after Stop don't hang.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish sends an event to the user's connections and every admin.
// Slow subscribers are skipped rather than blocking the publisher.
func (h *Hub) Publish(userID uuid.UUID, event string, payload interface{}) {
	raw, err := json.Marshal(Event{
		Type:      event,
		UserID:    userID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("event marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(conn *Connection) {
		select {
		case conn.Send <- raw:
		default:
			log.Warn().Str("user_id", conn.UserID.String()).Msg("event dropped: slow subscriber")
		}
	}

	for conn := range h.connections[userID] {
		deliver(conn)
	}
	for conn := range h.admins {
		if conn.UserID == userID {
			continue
		}
		deliver(conn)
	}
}
