package scheduler

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// MessageSelector picks the message for a run. It is called once per run.
type MessageSelector interface {
	Select(runID string) string
}

// FixedSelector always returns the same message.
type FixedSelector string

func (f FixedSelector) Select(string) string { return string(f) }

// CatalogSelector picks uniformly from a message catalog.
type CatalogSelector struct {
	mu       sync.Mutex
	messages []string
	rnd      *rand.Rand
}

// NewCatalogSelector copies messages; rnd may be nil for a time-seeded source.
func NewCatalogSelector(messages []string, rnd *rand.Rand) (*CatalogSelector, error) {
	if len(messages) == 0 {
		return nil, errors.New("message catalog is empty")
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CatalogSelector{messages: append([]string(nil), messages...), rnd: rnd}, nil
}

func (c *CatalogSelector) Select(string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages[c.rnd.Intn(len(c.messages))]
}
