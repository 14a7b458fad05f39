package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthpulse/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeSendReminder = "reminder:send"

var ErrInvalidReminder = errors.New("reminder needs a message and a fire time")

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(payload.ReminderID),
		asynq.MaxRetry(5),
	}

	return task, opts, nil
}

// Enqueuer is the part of asynq.Client the scheduler uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderScheduler queues single-user reminders for later delivery.
type ReminderScheduler struct {
	client Enqueuer
}

func NewReminderScheduler(client Enqueuer) *ReminderScheduler {
	return &ReminderScheduler{client: client}
}

func (s *ReminderScheduler) Schedule(ctx context.Context, ownerID, message string, fireAt time.Time) (models.ReminderPayload, error) {
	message = strings.TrimSpace(message)
	if ownerID == "" || message == "" || fireAt.IsZero() {
		return models.ReminderPayload{}, ErrInvalidReminder
	}

	payload := models.ReminderPayload{
		ReminderID: uuid.New().String(),
		OwnerID:    ownerID,
		Message:    message,
		FireDate:   fireAt.UTC().Format(time.RFC3339),
	}
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return models.ReminderPayload{}, err
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		return models.ReminderPayload{}, fmt.Errorf("failed to enqueue reminder %s: %w", payload.ReminderID, err)
	}
	return payload, nil
}
