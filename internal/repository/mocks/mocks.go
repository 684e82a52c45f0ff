package mocks

import (
	"context"

	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/repository"
	"github.com/ganot/sitesync/internal/transport"
	"github.com/stretchr/testify/mock"
)

// Authenticator is a mock for session.Authenticator.
type Authenticator struct {
	mock.Mock
}

func (m *Authenticator) Login(ctx context.Context, email, password string) (*transport.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if resp, ok := args.Get(0).(*transport.AuthResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Authenticator) SelectTenant(ctx context.Context, token string, tenantID int) (*transport.AuthResponse, error) {
	args := m.Called(ctx, token, tenantID)
	if resp, ok := args.Get(0).(*transport.AuthResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Authenticator) ValidateToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// CredentialStore is a mock for session.CredentialStore.
type CredentialStore struct {
	mock.Mock
}

func (m *CredentialStore) Save(ctx context.Context, creds session.StoredCredentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *CredentialStore) Load(ctx context.Context) (*session.StoredCredentials, error) {
	args := m.Called(ctx)
	if creds, ok := args.Get(0).(*session.StoredCredentials); ok {
		return creds, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CredentialStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// PreferenceRepository is a mock for repository.PreferenceRepository.
type PreferenceRepository struct {
	mock.Mock
}

func (m *PreferenceRepository) Bool(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *PreferenceRepository) SetBool(ctx context.Context, key string, value bool) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// OfflineProjectRepository is a mock for repository.OfflineProjectRepository.
type OfflineProjectRepository struct {
	mock.Mock
}

func (m *OfflineProjectRepository) SetEnabled(ctx context.Context, projectID int, enabled bool) error {
	args := m.Called(ctx, projectID, enabled)
	return args.Error(0)
}

func (m *OfflineProjectRepository) IsEnabled(ctx context.Context, projectID int) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *OfflineProjectRepository) List(ctx context.Context) ([]repository.OfflineProject, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]repository.OfflineProject); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
