package realtime

import (
	"context"
	"time"

	"healthpulse/models"

	"go.uber.org/zap"
)

// OfflinePusher reaches an owner who has no live connection (mobile push).
type OfflinePusher interface {
	PushOffline(ctx context.Context, n models.Notification) error
}

// DeliveryReport describes one Deliver call.
type DeliveryReport struct {
	NotificationID string `json:"notificationId"`
	OwnerID        string `json:"ownerId"`
	Attempted      int    `json:"attempted"`
	Delivered      int    `json:"delivered"`
	Failed         int    `json:"failed"`
	Offline        bool   `json:"offline"`
}

// Dispatcher pushes persisted notifications to their owner's connections.
type Dispatcher struct {
	registry    *Registry
	pushTimeout time.Duration
	parallelism int
	offline     OfflinePusher
	logger      *zap.Logger
}

func NewDispatcher(registry *Registry, pushTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = 2 * time.Second
	}
	return &Dispatcher{
		registry:    registry,
		pushTimeout: pushTimeout,
		parallelism: 8,
		logger:      logger,
	}
}

// SetOfflinePusher enables mobile push for owners with no live connection.
func (d *Dispatcher) SetOfflinePusher(p OfflinePusher) {
	d.offline = p
}

// Deliver pushes n to every live connection of its owner. Push failures are
// counted and logged, never returned; the only error is ErrNotPersisted.
func (d *Dispatcher) Deliver(ctx context.Context, n models.Persisted[models.Notification]) (DeliveryReport, error) {
	if !n.Valid() {
		return DeliveryReport{}, ErrNotPersisted
	}
	rec := n.Record()
	report := DeliveryReport{NotificationID: n.ID(), OwnerID: rec.OwnerID}

	conns := d.registry.ConnectionsFor(rec.OwnerID)
	if len(conns) == 0 {
		if d.offline != nil {
			if err := d.offline.PushOffline(ctx, rec); err != nil {
				d.logger.Debug("Offline push skipped",
					zap.String("owner", rec.OwnerID),
					zap.String("notification", n.ID()),
					zap.Error(err))
			} else {
				report.Offline = true
			}
		}
		return report, nil
	}

	counts := pushAll(ctx, d.registry, conns, Event{Type: EventNewNotification, Data: rec}, d.pushTimeout, d.parallelism, d.logger)
	report.Attempted, report.Delivered, report.Failed = counts.attempted, counts.delivered, counts.failed
	return report, nil
}
