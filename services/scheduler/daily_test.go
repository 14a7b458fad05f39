package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"healthpulse/config"
	"healthpulse/database/repository"
	"healthpulse/models"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"
	"healthpulse/services/scheduler"
	"healthpulse/tests/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type env struct {
	stores *repository.Stores
	reg    *realtime.Registry
	svc    *notification.DefaultNotificationService
	users  []string
}

func newEnv(t *testing.T, users int) env {
	t.Helper()
	stores, db := testutil.NewTestStores(t)
	ids := make([]string, users)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%02d", i)
	}
	testutil.SeedUsers(t, db, ids...)

	reg := realtime.NewRegistry(4)
	svc, err := notification.NewDefaultNotificationService(stores.Notifications, realtime.NewDispatcher(reg, 50*time.Millisecond, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return env{stores: stores, reg: reg, svc: svc, users: ids}
}

func (e env) job(notifier scheduler.Notifier, opts scheduler.Options) *scheduler.DailyBroadcast {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return scheduler.NewDailyBroadcast(notifier, e.stores.Users, opts, zap.NewNop())
}

func (e env) countFor(t *testing.T, owner string) int {
	t.Helper()
	list, err := e.stores.Notifications.ListFor(context.Background(), owner, models.FilterAll)
	require.NoError(t, err)
	return len(list)
}

func TestRunDeliversExactlyOnePerUser(t *testing.T) {
	e := newEnv(t, 5)
	good := testutil.NewRecordingConn()
	require.NoError(t, e.reg.Join("user-00", good))
	require.NoError(t, e.reg.Join("user-01", testutil.NewFailingConn()))
	slow := testutil.NewRecordingConn()
	slow.Block = true
	require.NoError(t, e.reg.Join("user-02", slow))

	job := e.job(e.svc, scheduler.Options{Workers: 2, PageSize: 2})
	report, err := job.RunDailyBroadcast(context.Background(), scheduler.FixedSelector(config.DefaultDailyMessages[0]))
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", report.RunID)
	assert.Equal(t, 5, report.Users)
	assert.Equal(t, 5, report.Created)
	assert.Zero(t, report.Failed)
	for _, u := range e.users {
		assert.Equal(t, 1, e.countFor(t, u), u)
	}

	evs := good.EventsOf(realtime.EventNewNotification)
	require.Len(t, evs, 1)
	assert.Equal(t, "Hydrate today: aim for eight glasses of water.", evs[0].Data.(models.Notification).Message)
}

func TestRerunSameDayIsSkipped(t *testing.T) {
	e := newEnv(t, 3)
	job := e.job(e.svc, scheduler.Options{})
	ctx := context.Background()

	_, err := job.RunDailyBroadcast(ctx, scheduler.FixedSelector("stretch"))
	require.NoError(t, err)
	report, err := job.RunDailyBroadcast(ctx, scheduler.FixedSelector("stretch"))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 3, report.Skipped)
	for _, u := range e.users {
		assert.Equal(t, 1, e.countFor(t, u), u)
	}

	last, ok := job.LastReport()
	require.True(t, ok)
	assert.Equal(t, report.Skipped, last.Skipped)
}

func TestNextDayIsANewRun(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	day := fixedNow
	job := e.job(e.svc, scheduler.Options{Now: func() time.Time { return day }})

	_, err := job.RunDailyBroadcast(ctx, scheduler.FixedSelector("day one"))
	require.NoError(t, err)
	day = day.Add(24 * time.Hour)
	report, err := job.RunDailyBroadcast(ctx, scheduler.FixedSelector("day two"))
	require.NoError(t, err)

	assert.Equal(t, "2026-10-20", report.RunID)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 2, e.countFor(t, "user-00"))
}

type flakyNotifier struct {
	next   scheduler.Notifier
	failOn string
}

func (f flakyNotifier) NotifyForRun(ctx context.Context, ownerID, message, runID string) (models.Notification, error) {
	if ownerID == f.failOn {
		return models.Notification{}, errors.New("store unavailable")
	}
	return f.next.NotifyForRun(ctx, ownerID, message, runID)
}

func TestUnitFailureDoesNotAbortRun(t *testing.T) {
	e := newEnv(t, 4)
	job := e.job(flakyNotifier{next: e.svc, failOn: "user-02"}, scheduler.Options{Workers: 3})

	report, err := job.RunDailyBroadcast(context.Background(), scheduler.FixedSelector("walk"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "user-02", report.Failures[0].OwnerID)
	assert.Equal(t, 0, e.countFor(t, "user-02"))
	assert.Equal(t, 1, e.countFor(t, "user-03"))
}

func TestRunIDUsesSchedulerLocation(t *testing.T) {
	e := newEnv(t, 1)
	late := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	job := e.job(e.svc, scheduler.Options{
		Location: time.FixedZone("UTC+9", 9*3600),
		Now:      func() time.Time { return late },
	})

	report, err := job.RunDailyBroadcast(context.Background(), scheduler.FixedSelector("sleep early"))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", report.RunID)
}

func TestRedisRunLockBlocksConcurrentRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, 2)
	job := e.job(e.svc, scheduler.Options{})
	lock := scheduler.NewRedisRunLock(client)
	job.SetRunLock(lock)
	ctx := context.Background()

	release, ok, err := lock.Acquire(ctx, "2026-10-19", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = job.RunDailyBroadcast(ctx, scheduler.FixedSelector("x"))
	assert.ErrorIs(t, err, scheduler.ErrRunInProgress)
	assert.Equal(t, 0, e.countFor(t, "user-00"))

	release()
	report, err := job.RunDailyBroadcast(ctx, scheduler.FixedSelector("x"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.False(t, mr.Exists("daily-broadcast:lock:2026-10-19"))
}

type failingDirectory struct{}

func (failingDirectory) ListRecipients(context.Context, string, int) ([]models.Recipient, error) {
	return nil, errors.New("directory offline")
}

func TestDirectoryFailureAbortsRun(t *testing.T) {
	job := scheduler.NewDailyBroadcast(flakyNotifier{}, failingDirectory{}, scheduler.Options{Now: func() time.Time { return fixedNow }}, zap.NewNop())

	report, err := job.RunDailyBroadcast(context.Background(), scheduler.FixedSelector("x"))
	require.Error(t, err)
	assert.Equal(t, 0, report.Users)
}

func TestMissedPushRecoveredByPullAfterReconnect(t *testing.T) {
	e := newEnv(t, 1)
	owner := e.users[0]
	dead := testutil.NewFailingConn()
	require.NoError(t, e.reg.Join(owner, dead))

	report, err := e.job(e.svc, scheduler.Options{}).RunDailyBroadcast(context.Background(), scheduler.FixedSelector("Hydrate today"))
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)
	assert.True(t, dead.Closed())

	// Client drops, reconnects, then hydrates from history.
	e.reg.Leave(dead)
	fresh := testutil.NewRecordingConn()
	require.NoError(t, e.reg.Join(owner, fresh))

	list, err := e.svc.List(context.Background(), owner, models.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hydrate today", list[0].Message)
	assert.False(t, list[0].IsRead)
	assert.Empty(t, fresh.Events())
}

type ttlRecordingLock struct{ ttl time.Duration }

func (l *ttlRecordingLock) Acquire(_ context.Context, _ string, ttl time.Duration) (func(), bool, error) {
	l.ttl = ttl
	return func() {}, true, nil
}

func TestDefaultLockTTLIsShort(t *testing.T) {
	e := newEnv(t, 1)
	job := e.job(e.svc, scheduler.Options{})
	lock := &ttlRecordingLock{}
	job.SetRunLock(lock)

	_, err := job.RunDailyBroadcast(context.Background(), scheduler.FixedSelector("x"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, lock.ttl)
}

func TestRedisRunLockRenewsWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	key := "daily-broadcast:lock:2026-10-19"

	release, ok, err := scheduler.NewRedisRunLock(client).Acquire(context.Background(), "2026-10-19", 300*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.TTL(key) > 200*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond)

	release()
	assert.False(t, mr.Exists(key))
}

func TestRedisRunLockFreesAfterCrashedHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	key := "daily-broadcast:lock:2026-10-19"
	lock := scheduler.NewRedisRunLock(client)

	// A holder that died without releasing leaves only its TTL behind.
	require.NoError(t, mr.Set(key, "dead-holder"))
	mr.SetTTL(key, 30*time.Second)

	_, ok, err := lock.Acquire(context.Background(), "2026-10-19", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(31 * time.Second)
	release, ok, err := lock.Acquire(context.Background(), "2026-10-19", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	release()
}
