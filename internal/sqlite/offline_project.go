package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/sitesync/internal/repository"
)

// OfflineProjectRepository implements repository.OfflineProjectRepository for SQLite
type OfflineProjectRepository struct {
	db  *DB
	now func() time.Time
}

// NewOfflineProjectRepository creates a new OfflineProjectRepository
func NewOfflineProjectRepository(db *DB) *OfflineProjectRepository {
	return &OfflineProjectRepository{db: db, now: time.Now}
}

// SetEnabled marks or unmarks a project for offline use. Re-enabling keeps
// the original timestamp.
func (r *OfflineProjectRepository) SetEnabled(ctx context.Context, projectID int, enabled bool) error {
	var err error
	if enabled {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO offline_projects (project_id, enabled_at) VALUES (?, ?) ON CONFLICT(project_id) DO NOTHING`,
			projectID, r.now().UTC().Format(time.RFC3339Nano))
	} else {
		_, err = r.db.ExecContext(ctx, `DELETE FROM offline_projects WHERE project_id = ?`, projectID)
	}
	if err != nil {
		return fmt.Errorf("failed to set offline flag for project %d: %w", projectID, err)
	}
	return nil
}

// IsEnabled reports whether the project is marked for offline use.
func (r *OfflineProjectRepository) IsEnabled(ctx context.Context, projectID int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_projects WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to get offline flag for project %d: %w", projectID, err)
	}
	return count > 0, nil
}

// List returns every offline project, oldest first.
func (r *OfflineProjectRepository) List(ctx context.Context) ([]repository.OfflineProject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT project_id, enabled_at FROM offline_projects ORDER BY enabled_at ASC, project_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offline projects: %w", err)
	}
	defer rows.Close()

	var projects []repository.OfflineProject
	for rows.Next() {
		var (
			p         repository.OfflineProject
			enabledAt string
		)
		if err := rows.Scan(&p.ProjectID, &enabledAt); err != nil {
			return nil, fmt.Errorf("failed to scan offline project: %w", err)
		}
		p.EnabledAt, err = time.Parse(time.RFC3339Nano, enabledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse enabled_at for project %d: %w", p.ProjectID, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offline projects: %w", err)
	}
	return projects, nil
}
