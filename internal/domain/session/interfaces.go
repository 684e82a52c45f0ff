package session

import (
	"context"

	"github.com/ganot/sitesync/internal/transport"
)

// Authenticator performs the auth calls against the API.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*transport.AuthResponse, error)
	SelectTenant(ctx context.Context, token string, tenantID int) (*transport.AuthResponse, error)
	ValidateToken(ctx context.Context, token string) error
}

// CredentialStore persists the tenant-scoped token across restarts.
type CredentialStore interface {
	Save(ctx context.Context, creds StoredCredentials) error
	Load(ctx context.Context) (*StoredCredentials, error)
	Clear(ctx context.Context) error
}
