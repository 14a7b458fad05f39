package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"healthpulse/config"
	"healthpulse/models"
	"healthpulse/services/notification"
	"healthpulse/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderNotifier is the producer call a fired reminder makes.
type ReminderNotifier interface {
	NotifyUser(ctx context.Context, ownerID, message string) (models.Notification, error)
}

// ReminderWorker processes queued reminders.
type ReminderWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// RedisOpt is the asynq connection for the reminder queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

func NewReminderWorker(notifier ReminderNotifier, logger *zap.Logger) *ReminderWorker {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(notifier, logger))

	return &ReminderWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *ReminderWorker) Start() {
	go func() {
		w.logger.Info("[ReminderWorker] Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Warn("[ReminderWorker] Failed to start worker",
				zap.Int("attempt", attempts), zap.Int("max", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("[ReminderWorker] Max retry attempts reached; reminders are disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
}

// HandleReminderTask turns a fired reminder into a persisted notification.
func HandleReminderTask(notifier ReminderNotifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("[ReminderHandler] Invalid payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		logger.Info("[ReminderHandler] Triggering reminder",
			zap.String("reminderId", p.ReminderID),
			zap.String("owner", p.OwnerID),
			zap.String("fireDate", p.FireDate))

		if _, err := notifier.NotifyUser(ctx, p.OwnerID, p.Message); err != nil {
			if errors.Is(err, notification.ErrInvalidInput) {
				return fmt.Errorf("reminder %s: %v: %w", p.ReminderID, err, asynq.SkipRetry)
			}
			logger.Error("[ReminderHandler] Failed to persist reminder", zap.String("reminderId", p.ReminderID), zap.Error(err))
			return err
		}
		return nil
	}
}
