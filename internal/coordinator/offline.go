package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/sitesync/internal/resource"
	"golang.org/x/sync/errgroup"
)

// ErrOfflineUnsupported is returned when no offline flag store is wired.
var ErrOfflineUnsupported = errors.New("offline mode not configured")

// IsAvailableOffline reports whether a project's kind can be opened
// offline: the project must be marked for offline use and the entry must
// be cached.
func (c *Coordinator) IsAvailableOffline(ctx context.Context, kind resource.Kind, projectID int) (bool, error) {
	if c.offline == nil {
		return false, nil
	}
	enabled, err := c.offline.IsEnabled(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("reading offline flag: %w", err)
	}
	return enabled && c.cache.Exists(resource.NewKey(kind, projectID)), nil
}

// SetOfflineMode marks or unmarks a project for offline use. Enabling
// while online also downloads the project's drawings and documents.
func (c *Coordinator) SetOfflineMode(ctx context.Context, projectID int, enabled bool) error {
	if c.offline == nil {
		return ErrOfflineUnsupported
	}
	if err := c.offline.SetEnabled(ctx, projectID, enabled); err != nil {
		return fmt.Errorf("setting offline mode: %w", err)
	}
	if !enabled || !c.network.IsAvailable() {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := c.Drawings(gctx, projectID, nil)
		return prefetchErr(res.Err, err)
	})
	g.Go(func() error {
		res, err := c.Documents(gctx, projectID, nil)
		return prefetchErr(res.Err, err)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("downloading project %d for offline use: %w", projectID, err)
	}
	return nil
}

func prefetchErr(staleErr, err error) error {
	if err != nil {
		return err
	}
	return staleErr
}

// KindOutcome summarises one kind's refresh within SyncProject.
type KindOutcome struct {
	Kind      resource.Kind
	Origin    Origin
	Staleness string
	StoredAt  time.Time
	Count     int
	Err       error
}

func outcome[E any](kind resource.Kind, res Result[[]E], err error) KindOutcome {
	if err == nil {
		err = res.Err
	}
	return KindOutcome{
		Kind:      kind,
		Origin:    res.Origin,
		Staleness: res.Staleness,
		StoredAt:  res.StoredAt,
		Count:     len(res.Data),
		Err:       err,
	}
}

// SyncProject refreshes every project-scoped kind concurrently. One
// kind failing doesn't stop the others; the error is ErrReauthenticate if
// the session ended, otherwise nil.
func (c *Coordinator) SyncProject(ctx context.Context, projectID int) ([]KindOutcome, error) {
	outcomes := make([]KindOutcome, len(resource.ProjectKinds))

	var g errgroup.Group
	g.SetLimit(3)
	for i, kind := range resource.ProjectKinds {
		g.Go(func() error {
			outcomes[i] = c.syncKind(ctx, kind, projectID)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if errors.Is(o.Err, ErrReauthenticate) {
			return outcomes, ErrReauthenticate
		}
	}
	return outcomes, nil
}

func (c *Coordinator) syncKind(ctx context.Context, kind resource.Kind, projectID int) KindOutcome {
	switch kind {
	case resource.Drawings:
		res, err := c.Drawings(ctx, projectID, nil)
		return outcome(kind, res, err)
	case resource.RFIs:
		res, err := c.RFIs(ctx, projectID, nil)
		return outcome(kind, res, err)
	case resource.Forms:
		res, err := c.Forms(ctx, projectID, nil)
		return outcome(kind, res, err)
	case resource.FormSubmissions:
		res, err := c.FormSubmissions(ctx, projectID, nil)
		return outcome(kind, res, err)
	case resource.Documents:
		res, err := c.Documents(ctx, projectID, nil)
		return outcome(kind, res, err)
	default:
		return KindOutcome{Kind: kind, Err: fmt.Errorf("kind %s is not project scoped", kind)}
	}
}
