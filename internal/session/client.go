package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mulakhat/interview/internal/models"
)

// Client is one websocket connection bound to an authenticated user. A user
// may hold several clients at once (multiple tabs), each independently
// addressable.
type Client struct {
	ID     string
	UserID string
	Role   models.Role

	conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.WSFrame)
}

func NewClient(conn *websocket.Conn, userID string, role models.Role) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		conn:   conn,
	}
}

// SetSendHook replaces the websocket writer (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send delivers a frame best-effort; a write error on a dying connection is
// dropped, the read loop will notice the disconnect.
func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteJSON(frame)
}
