package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ganot/sitesync/internal/cache"
	"github.com/ganot/sitesync/internal/domain/drawing"
	"github.com/ganot/sitesync/internal/domain/form"
	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/repository/mocks"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/ganot/sitesync/internal/transport"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	drawingsV1 = `{"drawings":[{"id":1,"number":"A-101","title":"Ground floor"}]}`
	drawingsV2 = `{"drawings":[{"id":1,"number":"A-101","title":"Ground floor rev B"},{"id":2,"number":"A-102"}]}`
	testUser   = `{"id":1,"email":"a@b.c","tenants":[{"tenant":{"id":7,"name":"Acme"}}]}`
)

type network struct {
	up atomic.Bool
}

func (n *network) IsAvailable() bool { return n.up.Load() }

func online() *network {
	n := &network{}
	n.up.Store(true)
	return n
}

// countingFetcher serves fixed bodies per kind and counts calls.
type countingFetcher struct {
	mu     sync.Mutex
	bodies map[resource.Kind]string
	errs   map[resource.Kind]error
	calls  int
}

func (f *countingFetcher) Fetch(_ context.Context, _ string, kind resource.Kind, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[kind]), nil
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func loggedInSession(t *testing.T) *session.Service {
	t.Helper()
	auth := &mocks.Authenticator{}
	auth.On("Login", mock.Anything, "a@b.c", "pw").
		Return(&transport.AuthResponse{Token: "T1", User: json.RawMessage(testUser)}, nil)
	auth.On("SelectTenant", mock.Anything, "T1", 7).
		Return(&transport.AuthResponse{Token: "T2", User: json.RawMessage(testUser)}, nil)

	svc := session.NewService(auth, nil, nil)
	_, err := svc.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	return svc
}

func newCache(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return store
}

func seedDrawings(t *testing.T, store *cache.Store, projectID int, body string) []drawing.Drawing {
	t.Helper()
	data, err := drawing.DecodeList([]byte(body), projectID)
	require.NoError(t, err)
	_, ok := store.Write(context.Background(), resource.NewKey(resource.Drawings, projectID), data)
	require.True(t, ok)
	return data
}

type recorder[T any] struct {
	results []Result[T]
}

func (r *recorder[T]) emit(res Result[T]) { r.results = append(r.results, res) }

func TestCoordinator_OfflineWithCache(t *testing.T) {
	store := newCache(t)
	want := seedDrawings(t, store, 2, drawingsV1)
	fetcher := &countingFetcher{}

	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: &network{}})

	rec := &recorder[[]drawing.Drawing]{}
	res, err := c.Drawings(context.Background(), 2, rec.emit)
	require.NoError(t, err)
	require.Equal(t, OriginCache, res.Origin)
	require.Empty(t, res.Staleness)
	require.Equal(t, want, res.Data)
	require.Len(t, rec.results, 1)
	require.Zero(t, fetcher.Calls(), "no transport call while offline")
}

func TestCoordinator_OfflineWithoutCache(t *testing.T) {
	fetcher := &countingFetcher{}
	c := New(Config{Fetcher: fetcher, Cache: newCache(t), Session: loggedInSession(t), Network: &network{}})

	rec := &recorder[[]drawing.Drawing]{}
	res, err := c.Drawings(context.Background(), 2, rec.emit)
	require.NoError(t, err)
	require.Empty(t, res.Data)
	require.Equal(t, StalenessOfflineEmpty, res.Staleness)
	require.Len(t, rec.results, 1)
	require.Zero(t, fetcher.Calls())
}

func TestCoordinator_OnlineRefreshes(t *testing.T) {
	store := newCache(t)
	fetcher := &countingFetcher{bodies: map[resource.Kind]string{resource.Drawings: drawingsV1}}
	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: online()})
	ctx := context.Background()

	rec := &recorder[[]drawing.Drawing]{}
	first, err := c.Drawings(ctx, 2, rec.emit)
	require.NoError(t, err)
	require.Equal(t, OriginNetwork, first.Origin)
	require.Len(t, first.Data, 1)
	require.Len(t, rec.results, 1, "nothing cached on the first fetch")
	require.True(t, store.Exists(resource.NewKey(resource.Drawings, 2)))

	fetcher.mu.Lock()
	fetcher.bodies[resource.Drawings] = drawingsV2
	fetcher.mu.Unlock()

	rec = &recorder[[]drawing.Drawing]{}
	second, err := c.Drawings(ctx, 2, rec.emit)
	require.NoError(t, err)
	require.Len(t, rec.results, 2)
	require.Equal(t, OriginCache, rec.results[0].Origin)
	require.Equal(t, first.Data, rec.results[0].Data)
	require.Equal(t, OriginNetwork, rec.results[1].Origin)
	require.Len(t, second.Data, 2)
	require.True(t, second.StoredAt.After(first.StoredAt), "storedAt must increase")
}

func TestCoordinator_RefreshFailureServesCache(t *testing.T) {
	store := newCache(t)
	want := seedDrawings(t, store, 2, drawingsV1)
	failure := &transport.StatusError{StatusCode: 500}
	fetcher := &countingFetcher{errs: map[resource.Kind]error{resource.Drawings: failure}}
	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: online()})

	rec := &recorder[[]drawing.Drawing]{}
	res, err := c.Drawings(context.Background(), 2, rec.emit)
	require.NoError(t, err)
	require.Equal(t, OriginCache, res.Origin)
	require.Equal(t, StalenessRefreshFailed, res.Staleness)
	require.ErrorIs(t, res.Err, transport.ErrInvalidResponse)
	require.Equal(t, want, res.Data)
	require.Len(t, rec.results, 2)
}

func TestCoordinator_DecodeFailureServesCache(t *testing.T) {
	store := newCache(t)
	seedDrawings(t, store, 2, drawingsV1)
	fetcher := &countingFetcher{bodies: map[resource.Kind]string{resource.Drawings: `{"drawings":[{"title":"no id"}]}`}}
	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: online()})

	res, err := c.Drawings(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Equal(t, StalenessRefreshFailed, res.Staleness)
	require.Error(t, res.Err)
}

func TestCoordinator_FailureWithoutCache(t *testing.T) {
	fetcher := &countingFetcher{errs: map[resource.Kind]error{
		resource.Drawings: &transport.NetworkError{Err: errors.New("connection reset")},
	}}
	c := New(Config{Fetcher: fetcher, Cache: newCache(t), Session: loggedInSession(t), Network: online()})

	rec := &recorder[[]drawing.Drawing]{}
	_, err := c.Drawings(context.Background(), 2, rec.emit)
	require.ErrorIs(t, err, transport.ErrNetwork)
	require.Empty(t, rec.results)
}

func TestCoordinator_LoggedOut(t *testing.T) {
	fetcher := &countingFetcher{}
	sess := session.NewService(&mocks.Authenticator{}, nil, nil)
	c := New(Config{Fetcher: fetcher, Cache: newCache(t), Session: sess, Network: online()})

	_, err := c.Projects(context.Background(), nil)
	require.ErrorIs(t, err, ErrReauthenticate)
	require.Zero(t, fetcher.Calls())
}

func TestCoordinator_TokenExpiredOnce(t *testing.T) {
	sess := loggedInSession(t)
	var loggedOut atomic.Int32
	sess.OnChange(func(s session.Snapshot) {
		if s.State == session.StateLoggedOut {
			loggedOut.Add(1)
		}
	})

	var barrier sync.WaitGroup
	barrier.Add(2)
	fetcher := FetcherFunc(func(context.Context, string, resource.Kind, int) ([]byte, error) {
		barrier.Done()
		barrier.Wait()
		return nil, transport.ErrTokenExpired
	})
	c := New(Config{Fetcher: fetcher, Cache: newCache(t), Session: sess, Network: online()})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = c.Drawings(context.Background(), 2, nil)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = c.RFIs(context.Background(), 2, nil)
	}()
	wg.Wait()

	require.ErrorIs(t, errs[0], ErrReauthenticate)
	require.ErrorIs(t, errs[1], ErrReauthenticate)
	require.Equal(t, int32(1), loggedOut.Load())
	require.Equal(t, session.StateLoggedOut, sess.Snapshot().State)
}

func TestCoordinator_ExpiryDiscardsPendingFetches(t *testing.T) {
	store := newCache(t)
	sess := loggedInSession(t)

	started := make(chan struct{})
	release := make(chan struct{})
	fetcher := FetcherFunc(func(_ context.Context, _ string, kind resource.Kind, _ int) ([]byte, error) {
		if kind == resource.Drawings {
			close(started)
			<-release
			return []byte(drawingsV1), nil
		}
		return nil, transport.ErrTokenExpired
	})
	c := New(Config{Fetcher: fetcher, Cache: store, Session: sess, Network: online()})

	done := make(chan error, 1)
	go func() {
		_, err := c.Drawings(context.Background(), 2, nil)
		done <- err
	}()
	<-started

	_, err := c.RFIs(context.Background(), 2, nil)
	require.ErrorIs(t, err, ErrReauthenticate)

	close(release)
	require.ErrorIs(t, <-done, ErrReauthenticate)
	require.False(t, store.Exists(resource.NewKey(resource.Drawings, 2)), "no cache write after the session ended")
}

func TestCoordinator_LastInitiatedFetchWins(t *testing.T) {
	store := newCache(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetcher := FetcherFunc(func(context.Context, string, resource.Kind, int) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []byte(drawingsV1), nil
		}
		return []byte(drawingsV2), nil
	})
	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: online()})

	done := make(chan error, 1)
	go func() {
		_, err := c.Drawings(context.Background(), 2, nil)
		done <- err
	}()
	<-started

	newer, err := c.Drawings(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Len(t, newer.Data, 2)

	close(release)
	require.ErrorIs(t, <-done, ErrSuperseded)

	var cached []drawing.Drawing
	_, ok := store.Read(resource.NewKey(resource.Drawings, 2), &cached)
	require.True(t, ok)
	require.Equal(t, newer.Data, cached)
}

func TestCoordinator_CancelledFetchDoesNotWrite(t *testing.T) {
	store := newCache(t)
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := FetcherFunc(func(context.Context, string, resource.Kind, int) ([]byte, error) {
		cancel()
		return []byte(drawingsV1), nil
	})
	c := New(Config{Fetcher: fetcher, Cache: store, Session: loggedInSession(t), Network: online()})

	_, err := c.Drawings(ctx, 2, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, store.Exists(resource.NewKey(resource.Drawings, 2)))
}

func TestCoordinator_FormSubmissionsServedOfflineAfterRefresh(t *testing.T) {
	fetcher := &countingFetcher{bodies: map[resource.Kind]string{
		resource.FormSubmissions: `[{"id":1,"formId":3,"responses":{"signoff":{"notes":""},"photo":{"image":"","location":{}},"name":"x"}}]`,
	}}
	net := online()
	c := New(Config{Fetcher: fetcher, Cache: newCache(t), Session: loggedInSession(t), Network: net})

	res, err := c.FormSubmissions(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Equal(t, OriginNetwork, res.Origin)
	require.Len(t, res.Data, 1)

	net.up.Store(false)
	cached, err := c.FormSubmissions(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Equal(t, OriginCache, cached.Origin)
	require.Empty(t, cached.Staleness)
	require.Len(t, cached.Data, 1)
	require.Equal(t, form.KindCloseout, cached.Data[0].Responses["signoff"].Kind)
	require.Equal(t, form.KindCamera, cached.Data[0].Responses["photo"].Kind)
	require.Equal(t, res.Data, cached.Data)
}
