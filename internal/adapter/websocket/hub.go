// Package websocket streams ISS snapshots to browser clients.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/observability"
)

// Message types.
const (
	MessageTypeISSState = "iss_state"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("websocket hub closed")

// Message is the envelope written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks connected clients and fans snapshots out to them. New clients
// receive the latest snapshot immediately.
type Hub struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}
	latest  []byte
	closed  bool
}

// NewHub creates a hub. allowedOrigins follows the CORS setting: "*" accepts
// any origin, otherwise the Origin header must match an entry.
func NewHub(allowedOrigins []string, logger *slog.Logger, metrics *observability.Metrics) *Hub {
	h := &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Load broadcasts s to every client. Clients whose send buffer is full are
// disconnected.
func (h *Hub) Load(_ context.Context, s domain.ISSState) error {
	payload, err := json.Marshal(Message{Type: MessageTypeISSState, Data: s})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.latest = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket client", "client", c.id)
			h.removeLocked(c)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := newClient(h, conn)
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	c.start()
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.logger.Info("websocket client connected", "client", c.id, "total_clients", len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.logger.Info("websocket client disconnected", "client", c.id, "total_clients", len(h.clients))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	n := len(h.clients)
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.logger.Info("websocket hub closed", "clients_at_shutdown", n)
}
