// Package janitor reclaims expired intermediate auth state on a fixed
// schedule: refresh credentials past their expiry and registrations
// that were never verified. It runs fully decoupled from request
// handling and must never be invoked from a request path.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"booking-platform/internal/config"
	"booking-platform/internal/refresh"
	"booking-platform/internal/register"
)

type Janitor struct {
	refreshStore refresh.Store
	pendingStore register.Store

	interval   time.Duration
	pendingTTL time.Duration

	log   *slog.Logger
	clock func() time.Time
}

func New(cfg config.JanitorConfig, refreshStore refresh.Store, pendingStore register.Store, log *slog.Logger) *Janitor {
	return &Janitor{
		refreshStore: refreshStore,
		pendingStore: pendingStore,
		interval:     cfg.Interval,
		pendingTTL:   cfg.PendingTTL,
		log:          log,
		clock:        time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Start
// it as a goroutine from main.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()

	j.log.Info("janitor started", "interval", j.interval.String())
	for {
		select {
		case <-ctx.Done():
			j.log.Info("janitor stopped")
			return
		case <-t.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs both reclaims once. The sweeps are independent: a failure
// in one is logged and never blocks the other, and re-running a sweep
// over an already-clean store deletes nothing.
func (j *Janitor) Sweep(ctx context.Context) {
	now := j.clock()

	j.runIsolated("refresh_tokens", func() error {
		n, err := j.refreshStore.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		if n > 0 {
			j.log.Info("expired refresh tokens reclaimed", "count", n)
		}
		return nil
	})

	j.runIsolated("pending_registrations", func() error {
		n, err := j.pendingStore.DeleteStale(ctx, now.Add(-j.pendingTTL))
		if err != nil {
			return err
		}
		if n > 0 {
			j.log.Info("stale registrations reclaimed", "count", n)
		}
		return nil
	})
}

func (j *Janitor) runIsolated(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			j.log.Error("janitor sweep panicked", "sweep", name, "panic", p)
		}
	}()
	if err := fn(); err != nil {
		j.log.Error("janitor sweep failed", "sweep", name, "err", err)
	}
}
