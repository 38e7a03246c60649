package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// SendBufferSize is the per-connection outbound queue length.
	SendBufferSize = 256
)

// MessagePong answers a client keep-alive.
const MessagePong domain.MessageType = "PONG"

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan domain.NotificationMessage

	// User ID for this client.
	UserID uuid.UUID

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, logger *slog.Logger) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan domain.NotificationMessage, SendBufferSize),
		UserID: userID,
		logger: logger.With("component", "websocket_client", "user_id", userID.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.Done():
		}
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeMessage(msg); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeMessage writes one message as a single text frame.
func (c *Client) writeMessage(msg domain.NotificationMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type string `json:"type"`
}

// handleIncomingMessage processes messages received from the client.
// The channel is server to client; only keep-alives are answered.
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "PING":
		c.sendPong()
	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) sendPong() {
	defer func() {
		// Send may already be closed by the hub.
		_ = recover()
	}()
	select {
	case c.Send <- domain.NotificationMessage{Type: MessagePong, Data: map[string]any{}}:
	default:
	}
}

// Serve registers a client for an upgraded connection and starts its
// pumps. It fails with ErrClientClosed when the hub is no longer running.
func Serve(hub *Hub, conn *websocket.Conn, userID uuid.UUID, logger *slog.Logger) error {
	client := NewClient(hub, conn, userID, logger)

	select {
	case hub.Register <- client:
	case <-hub.Done():
		_ = conn.Close()
		return apperrors.ErrClientClosed
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}
