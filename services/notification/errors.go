package notification

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("notification not found")
	ErrForbidden = errors.New("notification belongs to another user")
	// ErrUnsupportedTransition is returned for Read -> Unread.
	ErrUnsupportedTransition = errors.New("notifications cannot be marked unread")
	ErrInvalidInput          = errors.New("owner and message are required")
)

// PersistenceError means a store write or read failed; nothing was delivered.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
