package reachability

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newMonitor(t *testing.T) *Monitor {
	t.Helper()
	m := New(nil)
	t.Cleanup(m.Close)
	return m
}

func TestMonitor_DefaultsUnavailable(t *testing.T) {
	m := newMonitor(t)
	require.False(t, m.IsAvailable())
}

func TestMonitor_WaitTimesOut(t *testing.T) {
	m := newMonitor(t)

	start := time.Now()
	require.False(t, m.WaitForInitialStatus(context.Background(), 20*time.Millisecond))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestMonitor_WaitResolvesFromObservation(t *testing.T) {
	m := newMonitor(t)

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.WaitForInitialStatus(context.Background(), 5*time.Second)
		}()
	}

	m.Observe(true)
	wg.Wait()
	for _, got := range results {
		require.True(t, got)
	}
	require.True(t, m.IsAvailable())

	// Once known, later waiters return immediately.
	require.True(t, m.WaitForInitialStatus(context.Background(), time.Millisecond*50))
}

func TestMonitor_WaitCancelled(t *testing.T) {
	m := newMonitor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, m.WaitForInitialStatus(ctx, 5*time.Second))
}

func TestMonitor_CloseReleasesWaiters(t *testing.T) {
	m := New(nil)

	got := make(chan bool, 1)
	go func() {
		got <- m.WaitForInitialStatus(context.Background(), 10*time.Second)
	}()

	// Give the waiter a chance to register before closing.
	time.Sleep(20 * time.Millisecond)
	m.Close()

	select {
	case ok := <-got:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not released by Close")
	}

	m.Close()
	m.Observe(true)
	require.False(t, m.WaitForInitialStatus(context.Background(), time.Second))
}

func TestMonitor_Subscribe(t *testing.T) {
	m := newMonitor(t)
	changes := m.Subscribe()

	m.Observe(true)
	require.True(t, <-changes)

	m.Observe(true)
	m.Observe(false)
	require.False(t, <-changes)
	require.Eventually(t, func() bool { return !m.IsAvailable() }, time.Second, 5*time.Millisecond)
}

func TestMonitor_StartProbes(t *testing.T) {
	m := newMonitor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	m.Start(ctx, ProberFunc(func(context.Context) bool {
		return calls.Add(1) > 1
	}), 10*time.Millisecond)

	m.WaitForInitialStatus(ctx, time.Second)
	require.GreaterOrEqual(t, calls.Load(), int32(1))
	require.Eventually(t, m.IsAvailable, time.Second, 5*time.Millisecond)
}

func TestDialProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	p := DialProber{Address: addr, Timeout: time.Second}
	require.True(t, p.Probe(context.Background()))

	require.NoError(t, ln.Close())
	require.False(t, p.Probe(context.Background()))
}
