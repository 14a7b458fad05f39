package models

import "time"

// Persisted wraps a record that a store has durably written. Stores are the
// only callers of Persist; the push paths accept nothing else.
type Persisted[T any] struct {
	record   T
	id       string
	storedAt time.Time
}

// Persist is called by a store after its write succeeded.
func Persist[T any](record T, id string, storedAt time.Time) Persisted[T] {
	return Persisted[T]{record: record, id: id, storedAt: storedAt}
}

func (p Persisted[T]) Record() T           { return p.record }
func (p Persisted[T]) ID() string          { return p.id }
func (p Persisted[T]) StoredAt() time.Time { return p.storedAt }

// Valid is false for the zero value.
func (p Persisted[T]) Valid() bool {
	return p.id != "" && !p.storedAt.IsZero()
}
