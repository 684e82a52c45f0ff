package reachability

import (
	"context"
	"net"
	"time"
)

// Prober reports whether the network is usable right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// DialProber treats a successful TCP connect to Address as reachable.
type DialProber struct {
	Address string
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Start probes immediately and then every interval, feeding the monitor,
// until ctx ends or the monitor is closed.
func (m *Monitor) Start(ctx context.Context, prober Prober, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			m.Observe(prober.Probe(ctx))
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			case <-m.done:
				return
			}
		}
	}()
}
