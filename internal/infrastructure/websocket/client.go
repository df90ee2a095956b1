package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campusmart/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBufferSize = 64
)

// Client is one socket connection. A user may hold several at once, one per
// tab or device; each gets its own id.
type Client struct {
	ID     string
	UserID string

	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Send queues payload without blocking. A client whose buffer is full is too
// slow to keep up and gets disconnected.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		logger.Warn("WebSocket: send buffer full for client %s (user %s), closing", c.ID, c.UserID)
		c.Close()
		return false
	}
}

// Close stops the write loop, which sends a close frame and releases the socket.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// ReadPump reads frames until the connection fails, handing each one to the
// manager. It unregisters the client on the way out.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket: read error for client %s: %v", c.ID, err)
			}
			return
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("WebSocket: write error for client %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}
