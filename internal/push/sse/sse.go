// Package sse adapts a Server-Sent Events response stream to the push
// channel contract. Each connection gets a bounded event queue drained by
// the single Serve loop, so events are written in Send order and a slow
// client surfaces as a full queue instead of a blocked broadcaster.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"supportdesk/internal/push"
)

var (
	// ErrBufferFull is returned when the client is not draining its queue.
	ErrBufferFull = errors.New("sse: event buffer full")
	// ErrClosed is returned for sends after the channel shut down.
	ErrClosed = errors.New("sse: channel closed")
)

// Channel is one SSE subscriber connection.
type Channel struct {
	queue chan push.Event
	done  chan struct{}
	once  sync.Once
}

// NewChannel returns a channel buffering up to buffer pending events.
func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 64
	}
	return &Channel{
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

// Close stops the Serve loop. Safe to call more than once.
func (c *Channel) Close() {
	c.once.Do(func() { close(c.done) })
}

// Serve streams queued events until the client disconnects or the channel
// is closed, and returns the terminal reason. The caller owns registering
// the channel before Serve and unregistering after it returns.
func (c *Channel) Serve(w http.ResponseWriter, r *http.Request) push.CloseReason {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return push.ReasonErrored
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return push.ReasonCompleted
		case <-c.done:
			return push.ReasonCompleted
		case ev := <-c.queue:
			if err := writeEvent(w, ev); err != nil {
				return push.ReasonErrored
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev push.Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}
