package realtime

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sseHeartbeat = 25 * time.Second

// SSEConn is a Conn whose events are drained by a streaming HTTP handler.
type SSEConn struct {
	id        string
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewSSEConn() *SSEConn {
	return &SSEConn{
		id:     uuid.New().String(),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

func (c *SSEConn) ID() string { return c.id }

// Push blocks until the stream accepts ev, the conn closes, or ctx ends.
func (c *SSEConn) Push(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SSEConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Stream joins the request's user and writes events until the client goes
// away or the conn is evicted.
func (c *SSEConn) Stream(ctx *gin.Context, registry *Registry, userID string) error {
	if err := registry.Join(userID, c); err != nil {
		return err
	}
	defer func() {
		registry.Leave(c)
		_ = c.Close()
	}()

	w := ctx.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment to keep some proxies happy.
	if _, err := w.Write([]byte(": ok\n\n")); err != nil {
		return nil
	}
	w.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx.Stream(func(out io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case <-c.done:
			return false
		case <-heartbeat.C:
			if _, err := out.Write([]byte(": ping\n\n")); err != nil {
				return false
			}
			return true
		case ev := <-c.events:
			ctx.SSEvent(string(ev.Type), ev)
			return true
		}
	})
	return nil
}
