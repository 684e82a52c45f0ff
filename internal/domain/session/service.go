package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/sitesync/internal/repository"
	"github.com/ganot/sitesync/internal/transport"
)

// Service owns the login state machine. Transitions are serialized by a
// dedicated mutex held across the network call, so a second Login or
// SelectTenant waits for the first to finish. Reads never block on a
// transition in flight.
type Service struct {
	auth   Authenticator
	creds  CredentialStore
	logger *slog.Logger
	now    func() time.Time

	transition sync.Mutex

	mu        sync.RWMutex
	state     Snapshot
	observers []func(Snapshot)
}

// NewService creates a session service. creds may be nil, in which case
// nothing is persisted.
func NewService(auth Authenticator, creds CredentialStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		auth:   auth,
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns the current session state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credentials returns the token to fetch with. ok is false unless a tenant
// is selected.
func (s *Service) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.State != StateTenantSelected {
		return Credentials{}, false
	}
	return Credentials{Token: s.state.Token, TenantID: s.state.TenantID, Epoch: s.state.Epoch}, true
}

// OnChange registers fn to run after every committed transition.
func (s *Service) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Login authenticates with email and password. A user with exactly one
// membership gets that tenant selected automatically.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	s.transition.Lock()
	defer s.transition.Unlock()

	if cur := s.Snapshot(); cur.State != StateLoggedOut {
		return nil, fmt.Errorf("login from %s: %w", cur.State, ErrInvalidTransition)
	}

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		if ctx.Err() == nil {
			s.recordError(err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := DecodeUser(resp.User)
	if err != nil {
		s.recordError(err)
		return nil, fmt.Errorf("login: %w", err)
	}

	cur := s.Snapshot()
	s.commit(Snapshot{
		State:   StateAuthenticated,
		Token:   resp.Token,
		Tenants: user.Memberships,
		User:    &user,
		Epoch:   cur.Epoch + 1,
	})
	s.logger.Info("logged in", "user_id", user.ID, "tenants", len(user.Memberships))

	if len(user.Memberships) != 1 {
		return &LoginResult{Snapshot: s.Snapshot(), NeedsTenantSelection: true}, nil
	}
	if err := s.selectTenantLocked(ctx, user.Memberships[0].Tenant.ID); err != nil {
		return nil, err
	}
	return &LoginResult{Snapshot: s.Snapshot()}, nil
}

// SelectTenant exchanges the current token for one scoped to tenantID.
func (s *Service) SelectTenant(ctx context.Context, tenantID int) error {
	s.transition.Lock()
	defer s.transition.Unlock()
	return s.selectTenantLocked(ctx, tenantID)
}

func (s *Service) selectTenantLocked(ctx context.Context, tenantID int) error {
	cur := s.Snapshot()
	if cur.State == StateLoggedOut || cur.Token == "" {
		return ErrNotAuthenticated
	}
	if cur.User == nil || !cur.User.HasTenant(tenantID) {
		return fmt.Errorf("select tenant %d: %w", tenantID, ErrForbidden)
	}

	resp, err := s.auth.SelectTenant(ctx, cur.Token, tenantID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, transport.ErrTokenExpired) {
			s.clearLocked("token expired")
			return ErrNotAuthenticated
		}
		s.recordError(err)
		return fmt.Errorf("select tenant %d: %w", tenantID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	user := cur.User
	if updated, err := DecodeUser(resp.User); err == nil && len(updated.Memberships) > 0 {
		user = &updated
	}
	next := Snapshot{
		State:    StateTenantSelected,
		Token:    resp.Token,
		TenantID: tenantID,
		Tenants:  user.Memberships,
		User:     user,
		Epoch:    cur.Epoch + 1,
	}
	if s.creds != nil {
		stored := StoredCredentials{Token: next.Token, TenantID: tenantID, User: user}
		if err := s.creds.Save(context.WithoutCancel(ctx), stored); err != nil {
			s.logger.Warn("persisting credentials failed", "error", err)
		}
	}
	s.commit(next)
	s.logger.Info("tenant selected", "tenant_id", tenantID)
	return nil
}

// HandleTokenExpiration clears the session. Calling it again, or while
// logged out, is a no-op; the return value reports whether anything changed.
func (s *Service) HandleTokenExpiration() bool {
	s.transition.Lock()
	defer s.transition.Unlock()
	if s.Snapshot().State == StateLoggedOut {
		return false
	}
	s.clearLocked("token expired")
	return true
}

// ExpireToken clears the session only if token is still the current one.
// A fetch that started before a re-login can't log out the new session.
func (s *Service) ExpireToken(token string) bool {
	s.transition.Lock()
	defer s.transition.Unlock()
	cur := s.Snapshot()
	if cur.State == StateLoggedOut || cur.Token != token {
		return false
	}
	s.clearLocked("token expired")
	return true
}

// ValidateSessionOnForeground checks the current token against the API.
// Only an expiry response ends the session; network trouble leaves it.
func (s *Service) ValidateSessionOnForeground(ctx context.Context) error {
	cur := s.Snapshot()
	if cur.State == StateLoggedOut {
		return nil
	}
	err := s.auth.ValidateToken(ctx, cur.Token)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, transport.ErrTokenExpired) {
		s.ExpireToken(cur.Token)
		return ErrNotAuthenticated
	}
	s.logger.Debug("session validation inconclusive", "error", err)
	return fmt.Errorf("validate session: %w", err)
}

// Logout clears the session and any persisted credentials.
func (s *Service) Logout(ctx context.Context) error {
	s.transition.Lock()
	defer s.transition.Unlock()
	if s.Snapshot().State != StateLoggedOut {
		s.clearLocked("")
	}
	if s.creds == nil {
		return nil
	}
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// Restore loads persisted credentials into a logged-out session. It
// reports whether a session was restored.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	s.transition.Lock()
	defer s.transition.Unlock()
	if s.creds == nil || s.Snapshot().State != StateLoggedOut {
		return false, nil
	}
	stored, err := s.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading credentials: %w", err)
	}
	if stored.Token == "" {
		return false, nil
	}
	next := Snapshot{
		State:    StateTenantSelected,
		Token:    stored.Token,
		TenantID: stored.TenantID,
		User:     stored.User,
		Epoch:    s.Snapshot().Epoch + 1,
	}
	if stored.User != nil {
		next.Tenants = stored.User.Memberships
	}
	s.commit(next)
	return true, nil
}

// clearLocked drops to LoggedOut. Caller holds s.transition.
func (s *Service) clearLocked(reason string) {
	cur := s.Snapshot()
	s.commit(Snapshot{State: StateLoggedOut, LastError: reason, Epoch: cur.Epoch + 1})
	if s.creds != nil {
		if err := s.creds.Clear(context.Background()); err != nil {
			s.logger.Warn("clearing credentials failed", "error", err)
		}
	}
	if reason != "" {
		s.logger.Info("session cleared", "reason", reason)
	}
}

func (s *Service) commit(next Snapshot) {
	next.ChangedAt = s.now()
	s.mu.Lock()
	s.state = next
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(next)
	}
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.state.LastError = err.Error()
	s.mu.Unlock()
}
