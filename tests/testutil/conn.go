package testutil

import (
	"context"
	"errors"
	"sync"

	"healthpulse/services/realtime"

	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected push failure")

// RecordingConn is an in-memory realtime.Conn that keeps every pushed event.
type RecordingConn struct {
	id string

	mu     sync.Mutex
	events []realtime.Event
	closed bool
	// Fail makes every Push return ErrInjected.
	Fail bool
	// Block makes Push wait for ctx to end.
	Block bool
}

func NewRecordingConn() *RecordingConn {
	return &RecordingConn{id: uuid.New().String()}
}

// NewFailingConn returns a conn whose pushes always fail.
func NewFailingConn() *RecordingConn {
	c := NewRecordingConn()
	c.Fail = true
	return c
}

func (c *RecordingConn) ID() string { return c.id }

func (c *RecordingConn) Push(ctx context.Context, ev realtime.Event) error {
	c.mu.Lock()
	fail, block, closed := c.Fail, c.Block, c.closed
	c.mu.Unlock()

	switch {
	case closed:
		return realtime.ErrConnClosed
	case fail:
		return ErrInjected
	case block:
		<-ctx.Done()
		return ctx.Err()
	}

	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

func (c *RecordingConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *RecordingConn) Events() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventsOf returns the pushed events of type t.
func (c *RecordingConn) EventsOf(t realtime.EventType) []realtime.Event {
	var out []realtime.Event
	for _, ev := range c.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
