package notificationRepo_test

import (
	"context"
	"testing"
	"time"

	notificationRepo "healthpulse/database/repository/notification"
	"healthpulse/models"
	"healthpulse/tests/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) notificationRepo.NotificationRepository {
	t.Helper()
	repo, err := notificationRepo.NewGormNotificationRepo(testutil.NewTestDB(t))
	require.NoError(t, err)
	return repo
}

func TestAppendReturnsPersisted(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p, err := repo.Append(ctx, models.Notification{OwnerID: "user-a", Message: "hello", IsRead: true})
	require.NoError(t, err)
	require.True(t, p.Valid())
	assert.False(t, p.Record().IsRead)

	got, err := repo.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Message)
	assert.Empty(t, got.RunID)
}

func TestAppendForRunRejectsDuplicatePair(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.AppendForRun(ctx, models.Notification{OwnerID: "user-a", Message: "m"}, "2026-10-19")
	require.NoError(t, err)
	_, err = repo.AppendForRun(ctx, models.Notification{OwnerID: "user-a", Message: "m"}, "2026-10-19")
	assert.ErrorIs(t, err, notificationRepo.ErrDuplicateRun)
	_, err = repo.AppendForRun(ctx, models.Notification{OwnerID: "user-a", Message: "m"}, "2026-10-20")
	require.NoError(t, err)

	// Ordinary notifications are not bound by the run index.
	for i := 0; i < 2; i++ {
		_, err = repo.Append(ctx, models.Notification{OwnerID: "user-a", Message: "free"})
		require.NoError(t, err)
	}

	list, err := repo.ListFor(ctx, "user-a", models.FilterAll)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestMarkReadMissingIsNotFound(t *testing.T) {
	repo := newRepo(t)

	err := repo.MarkRead(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, notificationRepo.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), "missing"), notificationRepo.ErrNotFound)
}

func TestCountUnreadAndFilters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	first, err := repo.Append(ctx, models.Notification{OwnerID: "user-a", Message: "1"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.Notification{OwnerID: "user-a", Message: "2"})
	require.NoError(t, err)
	require.NoError(t, repo.MarkRead(ctx, first.ID(), time.Now()))

	unread, err := repo.CountUnread(ctx, "user-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	read, err := repo.ListFor(ctx, "user-a", models.FilterRead)
	require.NoError(t, err)
	require.Len(t, read, 1)
	require.NotNil(t, read[0].ReadAt)
}
