package repository

import (
	"context"
	"time"
)

// PreferenceRepository stores small persisted flags, such as the one-time
// cache migration marker.
type PreferenceRepository interface {
	Bool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// OfflineProject is a project the user marked for offline use.
type OfflineProject struct {
	ProjectID int
	EnabledAt time.Time
}

// OfflineProjectRepository stores per-project offline flags.
type OfflineProjectRepository interface {
	SetEnabled(ctx context.Context, projectID int, enabled bool) error
	IsEnabled(ctx context.Context, projectID int) (bool, error)
	List(ctx context.Context) ([]OfflineProject, error)
}
