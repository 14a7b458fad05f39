package userRepo_test

import (
	"context"
	"testing"

	userRepo "healthpulse/database/repository/user"
	"healthpulse/tests/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecipientsPagesByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, err := userRepo.NewGormUserRepo(db)
	require.NoError(t, err)
	testutil.SeedUsers(t, db, "u3", "u1", "u5", "u2", "u4")
	ctx := context.Background()

	var seen []string
	after := ""
	for {
		page, err := repo.ListRecipients(ctx, after, 2)
		require.NoError(t, err)
		for _, r := range page {
			seen = append(seen, r.ID)
		}
		if len(page) < 2 {
			break
		}
		after = page[len(page)-1].ID
	}
	assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5"}, seen)
}

func TestUpsertFCMToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, err := userRepo.NewGormUserRepo(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.UpsertFCMToken(ctx, "u1", "t1"))
	require.NoError(t, repo.UpsertFCMToken(ctx, "u1", "t2"))

	r, err := repo.GetRecipient(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "t2", r.FCMToken)

	_, err = repo.GetRecipient(ctx, "nobody")
	assert.ErrorIs(t, err, userRepo.ErrNotFound)
}
