package realtime_test

import (
	"fmt"
	"sync"
	"testing"

	"healthpulse/services/realtime"
	"healthpulse/tests/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryJoinAndLookup(t *testing.T) {
	reg := realtime.NewRegistry(4)
	a1, a2, b := testutil.NewRecordingConn(), testutil.NewRecordingConn(), testutil.NewRecordingConn()

	require.NoError(t, reg.Join("user-a", a1))
	require.NoError(t, reg.Join("user-a", a2))
	require.NoError(t, reg.Join("user-b", b))

	assert.Len(t, reg.ConnectionsFor("user-a"), 2)
	assert.Len(t, reg.ConnectionsFor("user-b"), 1)
	assert.Empty(t, reg.ConnectionsFor("user-c"))
	assert.Len(t, reg.ConnectionsFor(realtime.GlobalIdentity), 3)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistryJoinTwiceIsNoop(t *testing.T) {
	reg := realtime.NewRegistry(4)
	c := testutil.NewRecordingConn()

	require.NoError(t, reg.Join("user-a", c))
	require.NoError(t, reg.Join("user-a", c))

	assert.Len(t, reg.ConnectionsFor("user-a"), 1)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryJoinRejectsEmptyIdentity(t *testing.T) {
	reg := realtime.NewRegistry(4)
	assert.ErrorIs(t, reg.Join("", testutil.NewRecordingConn()), realtime.ErrEmptyID)
}

func TestRegistryAttachIsGlobalOnly(t *testing.T) {
	reg := realtime.NewRegistry(4)
	c := testutil.NewRecordingConn()

	reg.Attach(c)

	assert.Equal(t, 1, reg.Len())
	assert.Empty(t, reg.ConnectionsFor("user-a"))
}

func TestRegistryLeaveRemovesEveryMembership(t *testing.T) {
	reg := realtime.NewRegistry(4)
	c := testutil.NewRecordingConn()
	other := testutil.NewRecordingConn()
	require.NoError(t, reg.Join("user-a", c))
	require.NoError(t, reg.Join("user-a", other))

	assert.True(t, reg.Leave(c))
	assert.False(t, reg.Leave(c))

	conns := reg.ConnectionsFor("user-a")
	require.Len(t, conns, 1)
	assert.Equal(t, other.ID(), conns[0].ID())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRejoinAfterLeave(t *testing.T) {
	reg := realtime.NewRegistry(4)
	c := testutil.NewRecordingConn()
	require.NoError(t, reg.Join("user-a", c))
	reg.Leave(c)

	require.NoError(t, reg.Join("user-a", c))
	assert.Len(t, reg.ConnectionsFor("user-a"), 1)
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	reg := realtime.NewRegistry(8)
	const users = 50

	var wg sync.WaitGroup
	conns := make([]*testutil.RecordingConn, users)
	for i := 0; i < users; i++ {
		conns[i] = testutil.NewRecordingConn()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("user-%d", i)
			_ = reg.Join(identity, conns[i])
			if i%2 == 0 {
				reg.Leave(conns[i])
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, users/2, reg.Len())
	for i := 0; i < users; i++ {
		identity := fmt.Sprintf("user-%d", i)
		if i%2 == 0 {
			assert.Empty(t, reg.ConnectionsFor(identity), identity)
		} else {
			assert.Len(t, reg.ConnectionsFor(identity), 1, identity)
		}
	}
}
