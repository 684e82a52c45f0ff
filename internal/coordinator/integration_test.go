package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/reachability"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/ganot/sitesync/internal/testserver"
	"github.com/ganot/sitesync/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_AgainstFakeAPI(t *testing.T) {
	ctx := context.Background()

	ts := testserver.New(t)
	ts.AddAccount("a@b.c", testserver.Account{Password: "pw", User: testUser, Tenants: []int{7}})
	ts.SetFixture("/projects", 0, `[{"id":2,"name":"Harbour Tower","projectNumber":"HT-01"}]`)
	ts.SetFixture("/drawings", 2, drawingsV1)

	client := transport.NewClient(ts.URL())
	sess := session.NewService(client, nil, nil)
	result, err := sess.Login(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	require.Equal(t, session.StateTenantSelected, result.Snapshot.State)
	require.Equal(t, 7, result.Snapshot.TenantID)

	monitor := reachability.New(nil)
	defer monitor.Close()
	monitor.Observe(true)
	require.True(t, monitor.WaitForInitialStatus(ctx, time.Second))

	store := newCache(t)
	c := New(Config{Fetcher: client, Cache: store, Session: sess, Network: monitor})

	projects, err := c.Projects(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, OriginNetwork, projects.Origin)
	require.Len(t, projects.Data, 1)
	require.Equal(t, "Harbour Tower", projects.Data[0].Name)

	drawings, err := c.Drawings(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, drawings.Data, 1)
	require.Equal(t, 1, ts.Calls("/drawings"))

	// Server errors without a cache entry reach the caller.
	ts.FailWith("/rfis", 500)
	_, err = c.RFIs(ctx, 2, nil)
	require.ErrorIs(t, err, transport.ErrInvalidResponse)

	// Offline: served from cache, no request made.
	monitor.Observe(false)
	require.Eventually(t, func() bool { return !monitor.IsAvailable() }, time.Second, 5*time.Millisecond)
	offline, err := c.Drawings(ctx, 2, nil)
	require.NoError(t, err)
	require.Equal(t, OriginCache, offline.Origin)
	require.Equal(t, drawings.Data, offline.Data)
	require.Equal(t, 1, ts.Calls("/drawings"))

	// Back online with a revoked token: the session ends.
	monitor.Observe(true)
	require.Eventually(t, monitor.IsAvailable, time.Second, 5*time.Millisecond)
	ts.ExpireTokens()
	_, err = c.Drawings(ctx, 2, nil)
	require.ErrorIs(t, err, ErrReauthenticate)
	require.Equal(t, session.StateLoggedOut, sess.Snapshot().State)
	require.True(t, store.Exists(resource.NewKey(resource.Drawings, 2)), "cache survives logout")
}
