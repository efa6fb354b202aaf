package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Conn is the subset of the websocket connection the registry drives. Tests
// substitute a fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client wraps one live connection. Outbound frames go through a buffered
// send channel drained by a single writer goroutine; the two-phase alive
// flag backs the liveness sweep.
type Client struct {
	conn     Conn
	socketID string

	send          chan []byte
	alive         atomic.Bool
	writeDeadline time.Duration

	// mu guards closed and the send on the channel so Close can never
	// close the channel between a caller's check and its send.
	mu     sync.Mutex
	closed bool
}

func NewClient(conn Conn, writeDeadline time.Duration) *Client {
	c := &Client{
		conn:          conn,
		socketID:      uuid.NewString(),
		send:          make(chan []byte, 256),
		writeDeadline: writeDeadline,
	}
	c.alive.Store(true)
	go c.writePump()
	return c
}

func (c *Client) SocketID() string { return c.socketID }

// MarkAlive re-arms the liveness flag; wired to the connection's pong
// handler.
func (c *Client) MarkAlive() { c.alive.Store(true) }

func (c *Client) isAlive() bool { return c.alive.Load() }

func (c *Client) resetAlive() { c.alive.Store(false) }

// Enqueue hands a frame to the writer without blocking. A full buffer or a
// closed client drops the frame; real-time push is advisory.
func (c *Client) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeDeadline))
}

func (c *Client) writePump() {
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			// Dead connection: stop accepting frames. The channel stays
			// open; Close skips it once closed is set.
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
}

// Close shuts the writer down and closes the underlying connection. Safe to
// call more than once and safe against concurrent Enqueue.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.conn.Close()
}
