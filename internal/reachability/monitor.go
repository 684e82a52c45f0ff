// Package reachability tracks whether the network is usable. A single
// goroutine owns the status and the list of waiters; everything else talks
// to it over channels, so a status change can never race a waiter being
// registered.
package reachability

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInitialTimeout bounds WaitForInitialStatus when no timeout is given.
const DefaultInitialTimeout = 5 * time.Second

// Monitor holds the last observed network status.
type Monitor struct {
	logger    *slog.Logger
	available atomic.Bool

	observations chan bool
	waiters      chan chan bool
	subscribers  chan chan bool

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New starts a monitor. The status is unavailable until the first
// observation arrives.
func New(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Monitor{
		logger:       logger,
		observations: make(chan bool, 16),
		waiters:      make(chan chan bool),
		subscribers:  make(chan chan bool),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Monitor) run() {
	defer close(m.stopped)

	var (
		known   bool
		current bool
		pending []chan bool
		subs    []chan bool
	)
	for {
		select {
		case <-m.done:
			for _, w := range pending {
				w <- false
			}
			for _, s := range subs {
				close(s)
			}
			return

		case ok := <-m.observations:
			changed := !known || ok != current
			known, current = true, ok
			m.available.Store(ok)
			for _, w := range pending {
				w <- ok
			}
			pending = nil
			if !changed {
				continue
			}
			m.logger.Info("network status changed", "available", ok)
			for _, s := range subs {
				publish(s, ok)
			}

		case w := <-m.waiters:
			if known {
				w <- current
				continue
			}
			pending = append(pending, w)

		case s := <-m.subscribers:
			subs = append(subs, s)
			if known {
				publish(s, current)
			}
		}
	}
}

// publish delivers the newest status, replacing an unread older one.
func publish(s chan bool, ok bool) {
	select {
	case s <- ok:
	default:
		select {
		case <-s:
		default:
		}
		s <- ok
	}
}

// IsAvailable returns the last observed status without blocking.
func (m *Monitor) IsAvailable() bool {
	return m.available.Load()
}

// Observe records a status observation.
func (m *Monitor) Observe(available bool) {
	select {
	case m.observations <- available:
	case <-m.done:
	}
}

// WaitForInitialStatus blocks until the first observation is known and
// returns it. It returns false when the timeout elapses, ctx ends, or the
// monitor is closed. Any number of callers may wait at once.
func (m *Monitor) WaitForInitialStatus(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultInitialTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	w := make(chan bool, 1)
	select {
	case m.waiters <- w:
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	case <-m.done:
		return false
	}

	select {
	case ok := <-w:
		return ok
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Subscribe returns a channel that receives each status change. Slow
// readers only see the newest status. The channel is closed by Close.
func (m *Monitor) Subscribe() <-chan bool {
	s := make(chan bool, 1)
	select {
	case m.subscribers <- s:
	case <-m.done:
		close(s)
	}
	return s
}

// Close stops the monitor and releases pending waiters with false.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() { close(m.done) })
	<-m.stopped
}
