package sqlite

import (
	"context"
	"testing"

	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCredentialRepository_SaveLoadClear(t *testing.T) {
	db := NewTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	user := &session.User{
		ID:    1,
		Email: "a@b.c",
		Memberships: []session.Membership{
			{Tenant: session.Tenant{ID: 7, Name: "Acme"}, Role: "admin"},
		},
	}
	require.NoError(t, repo.Save(ctx, session.StoredCredentials{Token: "T1", TenantID: 7, User: user}))
	require.NoError(t, repo.Save(ctx, session.StoredCredentials{Token: "T2", TenantID: 7, User: user}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "T2", got.Token)
	require.Equal(t, 7, got.TenantID)
	require.Equal(t, user, got.User)

	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialRepository_WithoutUser(t *testing.T) {
	db := NewTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, session.StoredCredentials{Token: "T1", TenantID: 3}))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got.User)
}
