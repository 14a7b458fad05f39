package realtime

import (
	"context"
	"time"

	"healthpulse/models"

	"go.uber.org/zap"
)

type BroadcastReport struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// Broadcaster pushes events to every attached connection regardless of identity.
type Broadcaster struct {
	registry    *Registry
	pushTimeout time.Duration
	parallelism int
	logger      *zap.Logger
}

func NewBroadcaster(registry *Registry, pushTimeout time.Duration, parallelism int, logger *zap.Logger) *Broadcaster {
	if pushTimeout <= 0 {
		pushTimeout = 2 * time.Second
	}
	if parallelism <= 0 {
		parallelism = 32
	}
	return &Broadcaster{
		registry:    registry,
		pushTimeout: pushTimeout,
		parallelism: parallelism,
		logger:      logger,
	}
}

// broadcast sends ev to all live connections. One failing conn never blocks
// or fails the others. Callers go through the typed helpers so only stored
// records reach the wire.
func (b *Broadcaster) broadcast(ctx context.Context, ev Event) BroadcastReport {
	counts := pushAll(ctx, b.registry, b.registry.All(), ev, b.pushTimeout, b.parallelism, b.logger)
	if counts.failed > 0 {
		b.logger.Info("Broadcast finished with failures",
			zap.String("event", string(ev.Type)),
			zap.Int("attempted", counts.attempted),
			zap.Int("failed", counts.failed))
	}
	return BroadcastReport{Attempted: counts.attempted, Delivered: counts.delivered, Failed: counts.failed}
}

func (b *Broadcaster) BroadcastPost(ctx context.Context, p models.Persisted[models.Post]) (BroadcastReport, error) {
	if !p.Valid() {
		return BroadcastReport{}, ErrNotPersisted
	}
	return b.broadcast(ctx, Event{Type: EventNewPost, Data: p.Record()}), nil
}

func (b *Broadcaster) BroadcastChatReply(ctx context.Context, m models.Persisted[models.ChatMessage]) (BroadcastReport, error) {
	if !m.Valid() {
		return BroadcastReport{}, ErrNotPersisted
	}
	return b.broadcast(ctx, Event{Type: EventChatReply, Data: m.Record()}), nil
}
