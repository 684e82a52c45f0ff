package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ganot/sitesync/internal/coordinator"
	"github.com/ganot/sitesync/internal/reachability"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newWatchHarness(t *testing.T) (*app, *cobra.Command) {
	t.Helper()
	mon := reachability.New(nil)
	t.Cleanup(mon.Close)
	cmd := &cobra.Command{}
	cmd.SetErr(io.Discard)
	return &app{monitor: mon}, cmd
}

func TestWatchSync_RefreshesOnReconnect(t *testing.T) {
	a, cmd := newWatchHarness(t)
	calls := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- watchSync(ctx, cmd, a, func() error {
			calls <- struct{}{}
			return nil
		})
	}()

	<-calls
	a.monitor.Observe(true)
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no sync after network came back")
	}

	// Repeating the same status is not a reconnect.
	a.monitor.Observe(true)
	select {
	case <-calls:
		t.Fatal("unexpected sync")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchSync_StopsOnReauthenticate(t *testing.T) {
	a, cmd := newWatchHarness(t)
	err := watchSync(context.Background(), cmd, a, func() error {
		return reauthHint(coordinator.ErrReauthenticate)
	})
	require.ErrorIs(t, err, coordinator.ErrReauthenticate)
}

func TestWatchSync_StopsWhenMonitorCloses(t *testing.T) {
	a, cmd := newWatchHarness(t)
	done := make(chan error, 1)
	go func() {
		done <- watchSync(context.Background(), cmd, a, func() error { return nil })
	}()
	time.Sleep(20 * time.Millisecond)
	a.monitor.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
