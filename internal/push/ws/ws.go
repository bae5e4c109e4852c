// Package ws adapts a websocket connection to the push channel contract.
// Same shape as the SSE adapter: a bounded queue drained by a single Serve
// loop, so per-connection write order follows Send order and only one
// goroutine ever touches the socket's write side.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"supportdesk/internal/push"
)

const writeWait = 10 * time.Second

var (
	// ErrBufferFull is returned when the client is not draining its queue.
	ErrBufferFull = errors.New("ws: event buffer full")
	// ErrClosed is returned for sends after the channel shut down.
	ErrClosed = errors.New("ws: channel closed")
)

// Upgrader performs the websocket handshake for the events endpoint.
// Origin checks are left to the surrounding middleware.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Channel is one websocket subscriber connection.
type Channel struct {
	conn  *websocket.Conn
	queue chan push.Event
	done  chan struct{}
	once  sync.Once
}

// NewChannel wraps an upgraded connection with a queue of the given size.
func NewChannel(conn *websocket.Conn, buffer int) *Channel {
	if buffer <= 0 {
		buffer = 64
	}
	return &Channel{
		conn:  conn,
		queue: make(chan push.Event, buffer),
		done:  make(chan struct{}),
	}
}

// Send enqueues ev without blocking. A full queue is reported as a failed
// delivery so the registry prunes the connection.
func (c *Channel) Send(ev push.Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.queue <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops the Serve loop and tears down the socket. Safe to call more
// than once.
func (c *Channel) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Serve pumps queued events to the socket until the peer closes, the
// context is canceled, or the channel is closed, and returns the terminal
// reason. The caller owns registering the channel before Serve and
// unregistering after it returns.
func (c *Channel) Serve(ctx context.Context) push.CloseReason {
	readErr := make(chan error, 1)
	go func() {
		// Inbound frames are ignored; the read loop exists to observe
		// the peer's close frame and transport errors.
		for {
			if _, _, err := c.conn.NextReader(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.writeClose(websocket.CloseGoingAway)
			return push.ReasonCompleted
		case <-c.done:
			c.writeClose(websocket.CloseNormalClosure)
			return push.ReasonCompleted
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return push.ReasonCompleted
			}
			return push.ReasonErrored
		case ev := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				var nerr net.Error
				if errors.As(err, &nerr) && nerr.Timeout() {
					return push.ReasonTimedOut
				}
				return push.ReasonErrored
			}
		}
	}
}

func (c *Channel) writeClose(code int) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
}
