package community_test

import (
	"context"
	"errors"
	"testing"
	"time"

	postRepo "healthpulse/database/repository/post"
	"healthpulse/models"
	"healthpulse/services/community"
	"healthpulse/services/notification"
	"healthpulse/services/realtime"
	"healthpulse/tests/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommunity(t *testing.T) (*community.DefaultCommunityService, *realtime.Registry) {
	t.Helper()
	stores, _ := testutil.NewTestStores(t)
	reg := realtime.NewRegistry(4)
	svc, err := community.NewDefaultCommunityService(stores.Posts, realtime.NewBroadcaster(reg, time.Second, 8, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return svc, reg
}

func TestCreateReachesAllThreeConnections(t *testing.T) {
	svc, reg := newCommunity(t)
	conns := []*testutil.RecordingConn{testutil.NewRecordingConn(), testutil.NewRecordingConn(), testutil.NewRecordingConn()}
	require.NoError(t, reg.Join("user-a", conns[0]))
	require.NoError(t, reg.Join("user-b", conns[1]))
	reg.Attach(conns[2])

	post, err := svc.Create(context.Background(), "user-a", "Ran my first 5k!")
	require.NoError(t, err)

	for _, c := range conns {
		evs := c.EventsOf(realtime.EventNewPost)
		require.Len(t, evs, 1)
		assert.Equal(t, post.ID, evs[0].Data.(models.Post).ID)
	}
}

func TestCreateWithoutListenersStillPersists(t *testing.T) {
	svc, _ := newCommunity(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-a", "quiet post")
	require.NoError(t, err)

	posts, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, _ := newCommunity(t)
	ctx := context.Background()
	for _, c := range []string{"p1", "p2", "p3"} {
		_, err := svc.Create(ctx, "user-a", c)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "p3", first[0].Content)
	second, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "p1", second[0].Content)
}

func TestDeleteOnlyByAuthor(t *testing.T) {
	svc, _ := newCommunity(t)
	ctx := context.Background()
	post, err := svc.Create(ctx, "user-a", "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "user-b", post.ID), community.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, "user-a", post.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "user-a", post.ID), community.ErrNotFound)
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	svc, _ := newCommunity(t)

	_, err := svc.Create(context.Background(), "user-a", " ")
	assert.ErrorIs(t, err, community.ErrEmptyContent)
}

func TestBroadcastEventStoresBeforePushing(t *testing.T) {
	svc, reg := newCommunity(t)
	ctx := context.Background()
	c := testutil.NewRecordingConn()
	reg.Attach(c)

	stored, err := svc.BroadcastEvent(ctx, models.Post{AuthorID: "coach", Content: "Hydration week starts today"})
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	posts, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, stored.ID, posts[0].ID)

	evs := c.EventsOf(realtime.EventNewPost)
	require.Len(t, evs, 1)
	assert.Equal(t, stored.ID, evs[0].Data.(models.Post).ID)
}

func TestBroadcastEventRejectsEmptyPayload(t *testing.T) {
	svc, reg := newCommunity(t)
	ctx := context.Background()
	c := testutil.NewRecordingConn()
	reg.Attach(c)

	_, err := svc.BroadcastEvent(ctx, models.Post{AuthorID: "coach"})
	assert.ErrorIs(t, err, community.ErrEmptyContent)

	posts, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, c.Events())
}

type failingPostRepo struct{ postRepo.PostRepository }

func (failingPostRepo) Append(context.Context, models.Post) (models.Persisted[models.Post], error) {
	return models.Persisted[models.Post]{}, errors.New("disk full")
}

func TestBroadcastEventPushesNothingWhenStoreFails(t *testing.T) {
	reg := realtime.NewRegistry(4)
	c := testutil.NewRecordingConn()
	reg.Attach(c)
	svc, err := community.NewDefaultCommunityService(failingPostRepo{}, realtime.NewBroadcaster(reg, time.Second, 8, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)

	_, err = svc.BroadcastEvent(context.Background(), models.Post{AuthorID: "coach", Content: "lost"})
	var perr *notification.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, c.Events())
}
