package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ganot/sitesync/internal/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	commands := [][]string{
		{"login"}, {"select-tenant"}, {"logout"}, {"sync"}, {"status"},
		{"offline", "enable"}, {"offline", "disable"}, {"register-device"},
		{"update-submission"}, {"cache", "clear"}, {"activity"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("verbose").String())
}

const oneTenantUser = `{"id":1,"email":"a@b.c","tenants":[{"tenant":{"id":7,"name":"Acme"},"role":"admin"}]}`

func setupEnv(t *testing.T) *testserver.TestServer {
	t.Helper()
	ts := testserver.New(t)

	dataDir := t.TempDir()
	t.Setenv("SITESYNC_CONFIG_PATH", "")
	t.Setenv("SITESYNC_API_BASE_URL", ts.URL())
	t.Setenv("SITESYNC_API_TIMEOUT", "")
	t.Setenv("SITESYNC_DATA_DIR", dataDir)
	t.Setenv("SITESYNC_DB_PATH", "")
	t.Setenv("SITESYNC_LEGACY_CACHE_DIR", "")
	t.Setenv("SITESYNC_PROBE_ADDRESS", strings.TrimPrefix(ts.URL(), "http://"))
	t.Setenv("SITESYNC_PROBE_INTERVAL", "")
	t.Setenv("SITESYNC_INITIAL_TIMEOUT", "2s")
	t.Setenv("SITESYNC_LOG_LEVEL", "error")
	t.Setenv("SITESYNC_LOG_PATH", "")
	t.Setenv("SITESYNC_PASSWORD", "")
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	ts := setupEnv(t)
	ts.AddAccount("a@b.c", testserver.Account{Password: "pw", User: oneTenantUser, Tenants: []int{7}})
	ts.SetFixture("/projects", 0, `[{"id":2,"name":"Harbour Tower","projectNumber":"HT-01"}]`)
	ts.SetFixture("/drawings", 2, `{"drawings":[{"id":1,"number":"A-101"}]}`)
	ts.SetFixture("/documents", 2, `[{"id":4,"name":"Spec book"}]`)

	_, err := run(t, "sync")
	require.ErrorIs(t, err, errNotLoggedIn)

	out, err := run(t, "login", "--email", "a@b.c", "--password", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in to tenant 7")

	out, err = run(t, "sync")
	require.NoError(t, err)
	require.Contains(t, out, "Harbour Tower")

	out, err = run(t, "sync", "--project", "2")
	require.NoError(t, err)
	require.Contains(t, out, "drawings")
	require.Contains(t, out, "network")

	out, err = run(t, "offline", "enable", "--project", "2")
	require.NoError(t, err)
	require.Contains(t, out, "enabled for project 2")

	out, err = run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session: tenant_selected")
	require.Contains(t, out, "Network: available")
	require.Contains(t, out, "Harbour Tower")
	require.Contains(t, out, "drawings ready: true")

	_, err = run(t, "register-device", "--token", "push-123", "--platform", "android")
	require.NoError(t, err)
	require.Contains(t, string(ts.LastBody("/notifications/register-device")), "push-123")

	responses := filepath.Join(t.TempDir(), "responses.json")
	require.NoError(t, os.WriteFile(responses, []byte(`{"crew":12,"notes":"dry"}`), 0o644))
	_, err = run(t, "update-submission", "5", responses)
	require.NoError(t, err)
	require.JSONEq(t, `{"responses":{"crew":12,"notes":"dry"}}`, string(ts.LastBody("/forms/submissions/5")))

	out, err = run(t, "cache", "clear", "--kind", "drawings", "--project", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Cleared drawings/2")

	out, err = run(t, "activity", "--project", "2")
	require.NoError(t, err)
	require.Contains(t, out, "sync_completed")
	require.Contains(t, out, "offline_enabled")
	require.Contains(t, out, "cache_cleared")
	require.NotContains(t, out, "login")

	_, err = run(t, "logout")
	require.NoError(t, err)
	out, err = run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session: logged_out")

	out, err = run(t, "activity")
	require.NoError(t, err)
	require.Contains(t, out, "logout")
	require.Contains(t, out, "tenant_selected")
	require.Contains(t, out, "login")
}

func TestCLI_LoginNeedsTenantSelection(t *testing.T) {
	ts := setupEnv(t)
	ts.AddAccount("a@b.c", testserver.Account{
		Password: "pw",
		User:     `{"id":1,"tenants":[{"id":7,"name":"Acme"},{"id":8,"name":"Bolt"}]}`,
		Tenants:  []int{7, 8},
	})

	out, err := run(t, "login", "--email", "a@b.c", "--password", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Choose a tenant")
	require.Contains(t, out, "Bolt")

	// The unscoped token isn't persisted, so switching needs the credentials.
	out, err = run(t, "select-tenant", "8", "--email", "a@b.c", "--password", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Selected tenant 8")

	_, err = run(t, "select-tenant", "9")
	require.Error(t, err)
}

func TestCLI_LoginRejected(t *testing.T) {
	ts := setupEnv(t)
	ts.AddAccount("a@b.c", testserver.Account{Password: "pw", User: oneTenantUser, Tenants: []int{7}})

	_, err := run(t, "login", "--email", "a@b.c", "--password", "wrong")
	require.Error(t, err)
}
