package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/pkg/notification"
)

// Hub maintains the set of connected users and pushes notification events to them
type Hub struct {
	// Connected clients by user id. A user may hold several connections.
	clients map[int64]map[*Client]bool

	// Users connected with the admin role
	admins map[*Client]bool

	// Outbound events from the dispatcher
	broadcast chan notification.Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients and admins for readers outside Run
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		admins:     make(map[*Client]bool),
		broadcast:  make(chan notification.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then
// closes every client connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	if client.admin {
		h.admins[client] = true
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Bool("admin", client.admin).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	delete(h.admins, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// broadcastEvent writes event to every connection of its audience. Slow
// clients whose buffer is full are disconnected.
func (h *Hub) broadcastEvent(event notification.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("eventID", event.ID).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := h.targetsLocked(event)
	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("eventID", event.ID).
		Str("type", string(event.Type)).
		Int("clientCount", len(targets)).
		Msg("Event broadcasted")
}

func (h *Hub) targetsLocked(event notification.Event) []*Client {
	var targets []*Client
	switch event.Audience {
	case notification.AudienceAdmins:
		for client := range h.admins {
			targets = append(targets, client)
		}
	case notification.AudienceUser:
		for client := range h.clients[event.RecipientID] {
			targets = append(targets, client)
		}
	}
	return targets
}

// Name identifies the hub as a notification sink.
func (h *Hub) Name() string { return "websocket" }

// Deliver hands event to the hub loop. Offline users simply miss in-app
// delivery; other sinks still reach them. After the hub stops events are discarded.
func (h *Hub) Deliver(ctx context.Context, event notification.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket delivery of %s: %w", event.ID, ctx.Err())
	}
}

// ConnectedCount returns the number of open connections of a user
func (h *Hub) ConnectedCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
