package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

// delivery is a message queued on the hub. A nil target broadcasts.
type delivery struct {
	target *uuid.UUID
	msg    domain.NotificationMessage
}

// Hub maintains the set of active Clients and fans messages out to them.
type Hub struct {
	// Clients maps user IDs to their active connections
	// A single user can have multiple connections (multiple tabs/devices)
	clients map[uuid.UUID]map[*Client]bool

	// outbound is the bounded queue of messages waiting for fan-out
	outbound chan delivery

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects the clients map
	mu sync.RWMutex

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(queueSize int, m *metrics.Metrics, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		outbound:   make(chan delivery, queueSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     logger.With("component", "websocket_hub"),
	}
}

// SendToUser queues msg for every connection of userID.
func (h *Hub) SendToUser(userID uuid.UUID, msg domain.NotificationMessage) {
	h.enqueue(delivery{target: &userID, msg: msg})
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg domain.NotificationMessage) {
	h.enqueue(delivery{msg: msg})
}

// enqueue never blocks the caller; a full queue drops the message.
func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	default:
		h.metrics.HubDropped.Inc()
		h.logger.Warn("hub queue full, dropping message",
			"type", d.msg.Type,
		)
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
// When ctx is cancelled every client is closed and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	h.metrics.HubClients.Inc()

	h.logger.Info("client registered",
		"user_id", client.UserID,
		"total_connections", len(h.clients[client.UserID]),
	)
}

// unregisterClient removes a client from the hub. Safe to call twice.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients, ok := h.clients[client.UserID]
	if !ok || !userClients[client] {
		return
	}

	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	h.metrics.HubClients.Dec()

	client.CloseSend()

	h.logger.Info("client unregistered",
		"user_id", client.UserID,
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, userClients := range h.clients {
		for client := range userClients {
			client.CloseSend()
			h.metrics.HubClients.Dec()
		}
		delete(h.clients, userID)
	}
}

// deliver hands d to each target's send queue. A client whose queue is
// full is disconnected so it cannot stall the others.
func (h *Hub) deliver(d delivery) {
	targets := h.targets(d.target)
	if len(targets) == 0 {
		return
	}

	h.logger.Debug("delivering message",
		"type", d.msg.Type,
		"client_count", len(targets),
	)

	for _, client := range targets {
		select {
		case client.Send <- d.msg:
			h.metrics.HubMessages.WithLabelValues(string(d.msg.Type)).Inc()
		default:
			h.logger.Warn("client send buffer full, disconnecting",
				"user_id", client.UserID,
			)
			h.unregisterClient(client)
		}
	}
}

// targets copies the recipient list so no lock is held while sending.
func (h *Hub) targets(userID *uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	if userID != nil {
		for client := range h.clients[*userID] {
			out = append(out, client)
		}
		return out
	}

	for _, userClients := range h.clients {
		for client := range userClients {
			out = append(out, client)
		}
	}
	return out
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.clients {
		count += len(userClients)
	}
	return count
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}
