package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ganot/sitesync/internal/repository/mocks"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/stretchr/testify/require"
)

func TestStore_MigrateLegacy(t *testing.T) {
	ctx := context.Background()
	legacy := t.TempDir()

	mtime := time.Date(2025, 11, 5, 8, 30, 0, 0, time.UTC)
	writeLegacy := func(name, body string) {
		path := filepath.Join(legacy, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	writeLegacy("projects.json", `[{"id":1,"number":"P-1"}]`)
	writeLegacy("drawings_2.json", `{"stored_at":"2025-12-01T10:00:00Z","payload":[{"id":9,"number":"A-1"}]}`)
	writeLegacy("rfis_3.json", `[{"id":5,"number":"R-5"}]`)
	writeLegacy("documents_4.json", `{not json`)
	writeLegacy("drawings_x.json", `[]`)
	writeLegacy("notes.txt", `hello`)

	flags := &mocks.PreferenceRepository{}
	flags.On("Bool", ctx, LegacyMigratedKey).Return(false, nil).Once()
	flags.On("SetBool", ctx, LegacyMigratedKey, true).Return(nil).Once()
	flags.On("Bool", ctx, LegacyMigratedKey).Return(true, nil)

	s := newStore(t, WithLegacyDir(legacy, flags))

	// An entry already in the durable store is not overwritten.
	existing := []sheet{{ID: 6, Number: "R-6"}}
	_, ok := s.Write(ctx, resource.NewKey(resource.RFIs, 3), existing)
	require.True(t, ok)

	copied, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, copied)

	var projects []sheet
	storedAt, ok := s.Read(resource.NewKey(resource.Projects, 0), &projects)
	require.True(t, ok)
	require.Equal(t, []sheet{{ID: 1, Number: "P-1"}}, projects)
	require.True(t, mtime.Equal(storedAt), "unwrapped legacy entries take the file mtime")

	var drawings []sheet
	storedAt, ok = s.Read(resource.NewKey(resource.Drawings, 2), &drawings)
	require.True(t, ok)
	require.Equal(t, []sheet{{ID: 9, Number: "A-1"}}, drawings)
	require.True(t, time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC).Equal(storedAt))

	var rfis []sheet
	_, ok = s.Read(resource.NewKey(resource.RFIs, 3), &rfis)
	require.True(t, ok)
	require.Equal(t, existing, rfis)

	require.False(t, s.Exists(resource.NewKey(resource.Documents, 4)))

	// Second run is a no-op.
	require.NoError(t, s.Clear(resource.NewKey(resource.Projects, 0)))
	copied, err = s.MigrateLegacy(ctx)
	require.NoError(t, err)
	require.Zero(t, copied)
	require.False(t, s.Exists(resource.NewKey(resource.Projects, 0)))
	flags.AssertExpectations(t)
}

func TestStore_MigrateLegacy_MissingDir(t *testing.T) {
	ctx := context.Background()
	flags := &mocks.PreferenceRepository{}
	flags.On("Bool", ctx, LegacyMigratedKey).Return(false, nil)
	flags.On("SetBool", ctx, LegacyMigratedKey, true).Return(nil)

	s := newStore(t, WithLegacyDir(filepath.Join(t.TempDir(), "gone"), flags))
	copied, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	require.Zero(t, copied)
	flags.AssertCalled(t, "SetBool", ctx, LegacyMigratedKey, true)
}

func TestStore_MigrateLegacy_Disabled(t *testing.T) {
	s := newStore(t)
	copied, err := s.MigrateLegacy(context.Background())
	require.NoError(t, err)
	require.Zero(t, copied)
}
