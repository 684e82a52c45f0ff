// Package coordinator runs the one fetch algorithm every resource kind
// shares: serve the cache, refresh from the network when it is reachable,
// and reconcile the two without ever letting an older response replace a
// newer one.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/repository"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/ganot/sitesync/internal/transport"
)

// Origin says where a result's data came from.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
)

// Staleness notices shown next to data that isn't fresh.
const (
	StalenessRefreshFailed = "refresh failed, showing cached data"
	StalenessOfflineEmpty  = "offline, no cached data"
)

var (
	// ErrReauthenticate means the session is gone; there is no data to show.
	ErrReauthenticate = errors.New("no data, reauthenticate")
	// ErrSuperseded means a newer fetch for the same resource, or a newer
	// session, owns the result.
	ErrSuperseded = errors.New("superseded by a newer fetch")
)

// Result is one report from a fetch.
type Result[T any] struct {
	Data      T
	Origin    Origin
	Staleness string
	StoredAt  time.Time
	// Err is the refresh failure behind a stale result.
	Err error
}

// Fetcher performs the remote call for a kind.
type Fetcher interface {
	Fetch(ctx context.Context, token string, kind resource.Kind, projectID int) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, token string, kind resource.Kind, projectID int) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, token string, kind resource.Kind, projectID int) ([]byte, error) {
	return f(ctx, token, kind, projectID)
}

// Cache stores decoded collections.
type Cache interface {
	Write(ctx context.Context, key resource.Key, payload any) (time.Time, bool)
	Read(key resource.Key, out any) (time.Time, bool)
	Exists(key resource.Key) bool
}

// Session supplies credentials and takes expiry reports.
type Session interface {
	Credentials() (session.Credentials, bool)
	ExpireToken(token string) bool
}

// Network reports reachability.
type Network interface {
	IsAvailable() bool
}

// Config wires a Coordinator. Offline may be nil when per-project offline
// mode isn't used.
type Config struct {
	Fetcher Fetcher
	Cache   Cache
	Session Session
	Network Network
	Offline repository.OfflineProjectRepository
	Logger  *slog.Logger
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	fetcher Fetcher
	cache   Cache
	session Session
	network Network
	offline repository.OfflineProjectRepository
	logger  *slog.Logger

	mu   sync.Mutex
	keys map[resource.Key]*keyState
}

// keyState orders fetches of one key. issued counts started fetches;
// committed is the sequence number of the last result written.
type keyState struct {
	issued uint64

	commit    sync.Mutex
	committed uint64
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		fetcher: cfg.Fetcher,
		cache:   cfg.Cache,
		session: cfg.Session,
		network: cfg.Network,
		offline: cfg.Offline,
		logger:  logger,
		keys:    make(map[resource.Key]*keyState),
	}
}

func (c *Coordinator) begin(key resource.Key) (*keyState, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.keys[key]
	if !ok {
		st = &keyState{}
		c.keys[key] = st
	}
	st.issued++
	return st, st.issued
}

// fetch is the shared algorithm. emit may be nil; the returned Result is
// the last one emitted.
func fetch[T any](
	ctx context.Context,
	c *Coordinator,
	kind resource.Kind,
	projectID int,
	decode func([]byte) (T, error),
	emit func(Result[T]),
) (Result[T], error) {
	if emit == nil {
		emit = func(Result[T]) {}
	}
	key := resource.NewKey(kind, projectID)
	log := c.logger.With("resource", string(kind), "project_id", key.ProjectID)

	creds, ok := c.session.Credentials()
	if !ok {
		return Result[T]{}, ErrReauthenticate
	}

	var (
		cached    T
		cachedRes Result[T]
	)
	storedAt, hasCache := c.cache.Read(key, &cached)
	if hasCache {
		cachedRes = Result[T]{Data: cached, Origin: OriginCache, StoredAt: storedAt}
		emit(cachedRes)
	}

	if !c.network.IsAvailable() {
		if hasCache {
			return cachedRes, nil
		}
		res := Result[T]{Origin: OriginCache, Staleness: StalenessOfflineEmpty}
		emit(res)
		return res, nil
	}

	st, seq := c.begin(key)
	raw, err := c.fetcher.Fetch(ctx, creds.Token, kind, key.ProjectID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result[T]{}, ctxErr
	}
	var data T
	if err == nil {
		data, err = decode(raw)
	}

	if err != nil {
		if errors.Is(err, transport.ErrTokenExpired) {
			if c.session.ExpireToken(creds.Token) {
				log.Info("token expired during fetch")
			}
			return Result[T]{}, ErrReauthenticate
		}
		if _, ok := c.session.Credentials(); !ok {
			return Result[T]{}, ErrReauthenticate
		}
		if !hasCache {
			return Result[T]{}, fmt.Errorf("fetch %s: %w", key, err)
		}
		log.Warn("refresh failed, serving cache", "error", err)
		res := cachedRes
		res.Staleness = StalenessRefreshFailed
		res.Err = err
		emit(res)
		return res, nil
	}

	res, err := commit(ctx, c, st, seq, key, creds, data)
	if err != nil {
		return Result[T]{}, err
	}
	emit(res)
	return res, nil
}

// commit writes data unless a later fetch of the same key already has, or
// the session changed while the request was in flight.
func commit[T any](
	ctx context.Context,
	c *Coordinator,
	st *keyState,
	seq uint64,
	key resource.Key,
	creds session.Credentials,
	data T,
) (Result[T], error) {
	st.commit.Lock()
	defer st.commit.Unlock()

	log := c.logger.With("resource", string(key.Kind), "project_id", key.ProjectID)
	if seq < st.committed {
		log.Debug("discarding stale response", "seq", seq, "committed", st.committed)
		return Result[T]{}, ErrSuperseded
	}
	current, ok := c.session.Credentials()
	if !ok {
		return Result[T]{}, ErrReauthenticate
	}
	if current.Epoch != creds.Epoch {
		log.Debug("discarding response from previous session")
		return Result[T]{}, ErrSuperseded
	}

	written, ok := c.cache.Write(ctx, key, data)
	if !ok {
		if err := ctx.Err(); err != nil {
			return Result[T]{}, err
		}
		written = time.Now().UTC()
	}
	st.committed = seq
	return Result[T]{Data: data, Origin: OriginNetwork, StoredAt: written}, nil
}
