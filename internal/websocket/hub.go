package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"estatehub/internal/logger"
	"estatehub/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var log = logger.New("WS")

// ErrHubClosed is returned for messages sent after Run has returned.
var ErrHubClosed = errors.New("websocket hub closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by CORS on the HTTP routes; the token is the gate here.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one outbound event. Module restricts delivery to admins who
// can view it; AdminID restricts delivery to a single admin.
type Message struct {
	Data    []byte
	Module  string
	AdminID *uuid.UUID
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	Principal permission.Principal
	SessionID uuid.UUID
}

func (c *Client) accepts(m Message) bool {
	if m.AdminID != nil && *m.AdminID != c.Principal.ID {
		return false
	}
	if m.Module == "" {
		return true
	}
	mod, err := permission.ParseModule(m.Module)
	if err != nil {
		return false
	}
	return permission.Can(c.Principal, mod, permission.View)
}

// Hub maintains the set of active clients and fans messages out to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	kick       chan uuid.UUID
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		kick:       make(chan uuid.UUID, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the core dispatch loop for WebSocket events. It returns when
// ctx is cancelled, closing every client. Sends to the hub after that return
// without blocking.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Info("client connected admin=%s", client.Principal.ID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info("client disconnected admin=%s", client.Principal.ID)
			}
			h.mu.Unlock()
		case sessionID := <-h.kick:
			h.mu.Lock()
			for client := range h.clients {
				if client.SessionID == sessionID {
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.accepts(message) {
					continue
				}
				select {
				case client.Send <- message.Data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for delivery.
func (h *Hub) Broadcast(ctx context.Context, m Message) error {
	select {
	case h.broadcast <- m:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DisconnectSession closes every connection opened under the session.
func (h *Hub) DisconnectSession(sessionID uuid.UUID) {
	select {
	case h.kick <- sessionID:
	case <-h.done:
	}
}

// Register adds a client to the hub. On a stopped hub the client's Send
// channel is closed straight away so its pumps wind down.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
		_ = c.Conn.Close()
	}()
	for {
		// Clients never send; reading keeps the connection alive and detects close.
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("read error: %v", err)
			}
			break
		}
	}
}

// TokenAuthenticator resolves an admin access token to its principal and session.
type TokenAuthenticator func(ctx context.Context, token string) (permission.Principal, uuid.UUID, error)

var errMissingToken = errors.New("missing token")

// ServeWs handles websocket requests from the peer
func ServeWs(hub *Hub, c *gin.Context, authenticate TokenAuthenticator) {
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Warn("connection rejected: %v", errMissingToken)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	principal, sessionID, err := authenticate(c.Request.Context(), tokenString)
	if err != nil {
		log.Warn("connection rejected: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("upgrade failed: %v", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Principal: principal, SessionID: sessionID}
	hub.Register(client)

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
