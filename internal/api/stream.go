// Websocket step stream — subscribers per world, write failures drop the
// connection.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS is enforced by the HTTP middleware; the handshake itself
	// accepts any origin that got this far.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client wraps a connection with a write lock; the websocket library
// allows at most one concurrent writer per connection, and broadcasts
// arrive from both runner goroutines and request handlers.
type client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks websocket subscribers per world id.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*client]bool)}
}

// HandleSubscribe upgrades the request and registers the connection for
// the world in the path.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	worldID := r.PathValue("id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	if h.subs[worldID] == nil {
		h.subs[worldID] = make(map[*client]bool)
	}
	h.subs[worldID][c] = true
	h.mu.Unlock()

	slog.Info("subscriber connected", "world", worldID)

	// Reader loop exists only to detect close.
	go func() {
		defer h.drop(worldID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a payload to every subscriber of a world. Connections
// that fail to accept the write are dropped.
func (h *Hub) Broadcast(worldID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.subs[worldID]))
	for c := range h.subs[worldID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.drop(worldID, c)
		}
	}
}

// CloseWorld disconnects every subscriber of a world.
func (h *Hub) CloseWorld(worldID string) {
	h.mu.Lock()
	clients := h.subs[worldID]
	delete(h.subs, worldID)
	h.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
}

func (h *Hub) drop(worldID string, c *client) {
	h.mu.Lock()
	if set, ok := h.subs[worldID]; ok {
		delete(set, c)
	}
	h.mu.Unlock()
	c.conn.Close()
}
