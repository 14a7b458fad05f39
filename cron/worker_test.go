package cron_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"healthpulse/cron"
	"healthpulse/models"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"
	"healthpulse/services/tasks"
	"healthpulse/tests/testutil"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReminderTaskPersistsAndDelivers(t *testing.T) {
	stores, _ := testutil.NewTestStores(t)
	reg := realtime.NewRegistry(4)
	conn := testutil.NewRecordingConn()
	require.NoError(t, reg.Join("user-a", conn))
	svc, err := notification.NewDefaultNotificationService(stores.Notifications, realtime.NewDispatcher(reg, time.Second, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)

	payload := models.ReminderPayload{ReminderID: "r1", OwnerID: "user-a", Message: "Take your vitamins", FireDate: "2026-10-19T08:00:00Z"}
	task, _, err := tasks.NewReminderTask(payload, time.Now())
	require.NoError(t, err)

	handler := cron.HandleReminderTask(svc, zap.NewNop())
	require.NoError(t, handler(context.Background(), task))

	list, err := svc.List(context.Background(), "user-a", models.FilterUnread)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Take your vitamins", list[0].Message)
	assert.Len(t, conn.EventsOf(realtime.EventNewNotification), 1)
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(context.Context, string, string) (models.Notification, error) {
	return models.Notification{}, notification.ErrInvalidInput
}

func TestReminderTaskSkipsRetryOnBadInput(t *testing.T) {
	handler := cron.HandleReminderTask(nopNotifier{}, zap.NewNop())

	err := handler(context.Background(), asynq.NewTask(tasks.TypeSendReminder, []byte("{not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	b, _ := json.Marshal(models.ReminderPayload{ReminderID: "r2"})
	err = handler(context.Background(), asynq.NewTask(tasks.TypeSendReminder, b))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
