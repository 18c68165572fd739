package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskgate/taskgate/internal/infrastructure/logging"
)

// WebSocket constants.
const (
	// WSTypeEvent is the only message type the stream emits; the
	// endpoint is broadcast-only.
	WSTypeEvent = "event"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	// wsPingInterval is how often protocol-level pings are sent.
	wsPingInterval = 30 * time.Second

	// wsPongWait is how long to wait for any client traffic before the
	// connection is considered dead.
	wsPongWait = 60 * time.Second

	// wsMaxMessageSize bounds inbound frames. Clients have nothing to
	// say beyond control frames, so the limit is small.
	wsMaxMessageSize = 512
)

// WSMessage is the envelope streamed to connected clients.
type WSMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Hub manages WebSocket connections and broadcasts execution events.
type Hub struct {
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient represents a connected event stream client.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Bearer auth runs before the upgrade; browser origin is not
		// part of the trust model.
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// Broadcast sends an event to every connected client.
// The client list is snapshotted under the hub lock and released before
// sending, so a slow client never blocks the hub.
func (h *Hub) Broadcast(eventType string, payload any) {
	msg := WSMessage{
		Type:      WSTypeEvent,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handleEventsStream upgrades the connection and streams execution
// events until the client goes away. When auth is enabled the bearer
// middleware has already vetted the caller.
func (s *Server) handleEventsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade writes its own error response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	if identity := identityFrom(r.Context()); identity != "" {
		s.logger.Debug("event stream opened", "identity", identity)
	}

	client := &WSClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}

	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump consumes client frames. The stream is outbound-only, so
// inbound data is discarded; reading is still required to process
// control frames and notice disconnects.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps the
		// connection alive even if the client never answers pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsPongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsPongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during broadcast)
// and full buffers (slow client).
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}
