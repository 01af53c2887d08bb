// Package netmon watches remote reachability by probing the gateway on an
// interval and tells interested parties (the sync engine) when connectivity
// comes back.
package netmon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vinitafleet/driveops/internal/logging"
)

// Pinger is the probe surface; remote.Gateway satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	pinger       Pinger
	interval     time.Duration
	probeTimeout time.Duration
	log          logging.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func(online bool)
}

func New(p Pinger, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		pinger:       p,
		interval:     interval,
		probeTimeout: 3 * time.Second,
		log:          log.With("component", "netmon"),
	}
}

func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// OnChange registers a listener invoked on every connectivity transition.
// Listeners must not block; a non-blocking wake-up such as Engine.Notify is
// the intended shape.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Run probes immediately and then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.pinger.Ping(probeCtx)
	cancel()

	m.setOnline(ctx, err == nil)
}

func (m *Monitor) setOnline(ctx context.Context, online bool) {
	if m.online.Swap(online) == online {
		return
	}

	if online {
		m.log.Info(ctx, "connectivity restored")
	} else {
		m.log.Warn(ctx, "connectivity lost")
	}

	m.mu.Lock()
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}
