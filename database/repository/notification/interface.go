package notificationRepo

import (
	"context"
	"errors"
	"time"

	"healthpulse/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("notification not found")
	// ErrDuplicateRun is returned by AppendForRun when the owner already has
	// a notification for that run.
	ErrDuplicateRun = errors.New("notification for run already exists")
)

// NotificationRepository is the durable per-user notification store.
type NotificationRepository interface {
	// Append writes a new unread notification and returns it once durable.
	Append(ctx context.Context, n models.Notification) (models.Persisted[models.Notification], error)
	// AppendForRun is Append keyed by (owner, runID); at most one per pair.
	AppendForRun(ctx context.Context, n models.Notification, runID string) (models.Persisted[models.Notification], error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// ListFor returns the owner's notifications newest first.
	ListFor(ctx context.Context, ownerID string, filter models.ReadFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, ownerID string) (int64, error)
	// MarkRead is a no-op for an already read notification.
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, ownerID string, at time.Time) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteMatching(ctx context.Context, ownerID string, filter models.ReadFilter) (int64, error)
}

// prepare fills the fields a store owns on insert.
func prepare(n models.Notification, runID string) models.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.IsRead = false
	n.ReadAt = nil
	n.RunID = runID
	return n
}
