package notification

import (
	"context"
	"fmt"

	notificationRepo "healthpulse/database/repository/notification"
	"healthpulse/models"
	"healthpulse/services/realtime"
	"healthpulse/utils"

	"go.uber.org/zap"
)

// NotificationService is the producer and pull surface for per-user notifications.
type NotificationService interface {
	// NotifyUser persists message for ownerID and then pushes it live.
	NotifyUser(ctx context.Context, ownerID, message string) (models.Notification, error)
	// NotifyForRun is NotifyUser keyed by a batch run; a repeat for the
	// same owner and run returns notificationRepo.ErrDuplicateRun.
	NotifyForRun(ctx context.Context, ownerID, message, runID string) (models.Notification, error)

	List(ctx context.Context, ownerID string, filter models.ReadFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, ownerID string) (int64, error)
	MarkRead(ctx context.Context, requesterID, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, ownerID string) (int64, error)
	MarkUnread(ctx context.Context, requesterID, id string) error
	Delete(ctx context.Context, requesterID, id string) error
	DeleteMatching(ctx context.Context, ownerID string, filter models.ReadFilter) (int64, error)
}

// Deliverer pushes a persisted notification to its owner's live connections.
type Deliverer interface {
	Deliver(ctx context.Context, n models.Persisted[models.Notification]) (realtime.DeliveryReport, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	repo      notificationRepo.NotificationRepository
	deliverer Deliverer
	locks     *utils.KeyedMutex
	logger    *zap.Logger
}

func NewDefaultNotificationService(
	repo notificationRepo.NotificationRepository,
	deliverer Deliverer,
	logger *zap.Logger,
) (*DefaultNotificationService, error) {
	if repo == nil || deliverer == nil {
		return nil, fmt.Errorf("notification service initialization error: repository or deliverer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		repo:      repo,
		deliverer: deliverer,
		locks:     utils.NewKeyedMutex(),
		logger:    logger,
	}, nil
}
