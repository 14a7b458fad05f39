package realtime

import (
	"context"
	"errors"
)

type EventType string

const (
	EventNewNotification EventType = "newNotification"
	EventNewPost         EventType = "newPost"
	EventChatReply       EventType = "chatReply"
	EventJoined          EventType = "joined"
	EventError           EventType = "error"
)

// Event is the envelope every transport writes to the client.
type Event struct {
	Type EventType   `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

var (
	// ErrNotPersisted rejects push requests for records no store has written.
	ErrNotPersisted = errors.New("realtime: record is not persisted")
	ErrConnClosed   = errors.New("realtime: connection closed")
	ErrEmptyID      = errors.New("realtime: identity must not be empty")
)

// Conn is a live client connection. Push must honour ctx cancellation.
type Conn interface {
	ID() string
	Push(ctx context.Context, ev Event) error
	Close() error
}
