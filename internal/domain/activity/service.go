package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/sitesync/internal/repository"
)

const defaultListLimit = 20

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Log records an entry, stamping it with the current time if missing.
func (s *Service) Log(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Type == "" {
		return repository.ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record logs an event with details marshalled to JSON. Failures are only
// logged: losing a history line must never fail the operation it describes.
func (s *Service) Record(ctx context.Context, typ Type, tenantID, projectID int, summary string, details any) {
	entry := &Entry{TenantID: tenantID, ProjectID: projectID, Type: typ, Summary: summary}
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("encoding activity details failed", "type", typ, "error", err)
		} else {
			entry.Details = string(data)
		}
	}
	if err := s.Log(ctx, entry); err != nil {
		s.logger.Warn("recording activity failed", "type", typ, "error", err)
	}
}

// Recent lists entries newest first. A zero limit means the default.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
