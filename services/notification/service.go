package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	notificationRepo "healthpulse/database/repository/notification"
	"healthpulse/models"

	"go.uber.org/zap"
)

func (s *DefaultNotificationService) NotifyUser(ctx context.Context, ownerID, message string) (models.Notification, error) {
	return s.notify(ctx, ownerID, message, "")
}

func (s *DefaultNotificationService) NotifyForRun(ctx context.Context, ownerID, message, runID string) (models.Notification, error) {
	return s.notify(ctx, ownerID, message, runID)
}

func (s *DefaultNotificationService) notify(ctx context.Context, ownerID, message, runID string) (models.Notification, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(message) == "" {
		return models.Notification{}, ErrInvalidInput
	}

	unlock := s.locks.Lock(ownerID)
	var (
		stored models.Persisted[models.Notification]
		err    error
	)
	rec := models.Notification{OwnerID: ownerID, Message: message}
	if runID == "" {
		stored, err = s.repo.Append(ctx, rec)
	} else {
		stored, err = s.repo.AppendForRun(ctx, rec, runID)
	}
	unlock()
	if err != nil {
		if errors.Is(err, notificationRepo.ErrDuplicateRun) {
			return models.Notification{}, err
		}
		return models.Notification{}, NewPersistenceError("append", err)
	}

	report, err := s.deliverer.Deliver(ctx, stored)
	if err != nil {
		s.logger.Error("Delivery rejected", zap.String("notification", stored.ID()), zap.Error(err))
	} else if report.Failed > 0 {
		s.logger.Info("Notification persisted with failed pushes",
			zap.String("owner", ownerID),
			zap.String("notification", stored.ID()),
			zap.Int("failed", report.Failed))
	}
	return stored.Record(), nil
}

func (s *DefaultNotificationService) List(ctx context.Context, ownerID string, filter models.ReadFilter) ([]models.Notification, error) {
	list, err := s.repo.ListFor(ctx, ownerID, filter)
	if err != nil {
		return nil, NewPersistenceError("list", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

func (s *DefaultNotificationService) CountUnread(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, ownerID)
	if err != nil {
		return 0, NewPersistenceError("count unread", err)
	}
	return n, nil
}

// owned loads id and checks it belongs to requesterID.
func (s *DefaultNotificationService) owned(ctx context.Context, requesterID, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, NewPersistenceError("get", err)
	}
	if n.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return n, nil
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, requesterID, id string) (*models.Notification, error) {
	n, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	unlock := s.locks.Lock(n.OwnerID)
	defer unlock()
	now := time.Now().UTC()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, NewPersistenceError("mark read", err)
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, ownerID string) (int64, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	updated, err := s.repo.MarkAllRead(ctx, ownerID, time.Now().UTC())
	if err != nil {
		return 0, NewPersistenceError("mark all read", err)
	}
	return updated, nil
}

// MarkUnread is a no-op on an unread notification and fails with
// ErrUnsupportedTransition on a read one: Read is terminal.
func (s *DefaultNotificationService) MarkUnread(ctx context.Context, requesterID, id string) error {
	n, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if !n.IsRead {
		return nil
	}
	return ErrUnsupportedTransition
}

func (s *DefaultNotificationService) Delete(ctx context.Context, requesterID, id string) error {
	n, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(n.OwnerID)
	defer unlock()
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return ErrNotFound
		}
		return NewPersistenceError("delete", err)
	}
	return nil
}

func (s *DefaultNotificationService) DeleteMatching(ctx context.Context, ownerID string, filter models.ReadFilter) (int64, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	deleted, err := s.repo.DeleteMatching(ctx, ownerID, filter)
	if err != nil {
		return 0, NewPersistenceError("delete matching", err)
	}
	return deleted, nil
}
