package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/boardblitz/boardblitz/internal/model"
)

const (
	// clientBufferSize is the per-subscriber outgoing buffer
	clientBufferSize = 64
	// hubBufferSize is the pending-publish buffer per code
	hubBufferSize = 256
)

// Client is one subscription to a session code. The owning transport
// drains Send; a client that falls behind has messages dropped rather
// than blocking the publisher or its peers.
type Client struct {
	// Send receives encoded events until the hub closes it
	Send chan []byte

	connID      string
	connectedAt time.Time
}

// NewClient creates a subscriber handle identified by a connection id
func NewClient(connID string) *Client {
	return &Client{
		Send:        make(chan []byte, clientBufferSize),
		connID:      connID,
		connectedAt: time.Now(),
	}
}

// Hub fans events out to every subscriber of a single session code.
// Within one code, events are delivered in publish order; no ordering is
// guaranteed across codes.
type Hub struct {
	code    model.GameCode
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub for a session code
func NewHub(code model.GameCode, logger *slog.Logger) *Hub {
	return &Hub{
		code:       code,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("code", string(code))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, hubBufferSize),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("subscriber registered",
				slog.String("conn_id", client.connID),
				slog.Int("total_subscribers", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				total := len(h.clients)
				h.mu.Unlock()
				h.logger.Debug("subscriber unregistered",
					slog.String("conn_id", client.connID),
					slog.Duration("subscribed_for", time.Since(client.connectedAt)),
					slog.Int("total_subscribers", total))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("broadcast partially dropped - slow subscribers",
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Subscribe adds a client to the hub. Subscribing an already-registered
// client is a no-op.
func (h *Hub) Subscribe(client *Client) {
	h.mu.RLock()
	already := h.clients[client]
	h.mu.RUnlock()
	if already {
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unsubscribe removes a client; unknown clients are ignored
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an encoded event for delivery to every subscriber
func (h *Hub) Publish(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("publish dropped - hub buffer full")
	}
}

// Close shuts the hub down and disconnects all subscribers
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager owns the hub for every session code with subscribers
type HubManager struct {
	hubs   map[model.GameCode]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.GameCode]*Hub),
		logger: logger.With(slog.String("component", "broadcast")),
	}
}

// GetOrCreateHub returns the hub for a code, starting one if needed
func (m *HubManager) GetOrCreateHub(code model.GameCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}
	hub := NewHub(code, m.logger)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a code, or nil if none exists
func (m *HubManager) GetHub(code model.GameCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// RemoveHub closes and forgets the hub for a code
func (m *HubManager) RemoveHub(code model.GameCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
	}
}

// CleanupEmptyHubs removes hubs with no subscribers
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.SubscriberCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removed))
	}
}
