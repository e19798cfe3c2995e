package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Expirer removes sessions idle for longer than ttl
type Expirer interface {
	ExpireIdle(ctx context.Context, ttl time.Duration) (int, error)
}

// Reaper periodically drops abandoned scoring sessions
type Reaper struct {
	sessions Expirer
	interval time.Duration
	idleTTL  time.Duration
	done     sync.WaitGroup
}

// NewReaper creates a new cleanup worker
func NewReaper(sessions Expirer, interval, idleTTL time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}

	return &Reaper{
		sessions: sessions,
		interval: interval,
		idleTTL:  idleTTL,
	}
}

// Start begins the cleanup worker in a goroutine
func (r *Reaper) Start(ctx context.Context) {
	r.done.Add(1)
	go func() {
		defer r.done.Done()
		r.run(ctx)
	}()
}

// Wait blocks until the worker has exited after its context is cancelled
func (r *Reaper) Wait() {
	r.done.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	slog.Info("session reaper started", "interval", r.interval, "idle_ttl", r.idleTTL)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	slog.Debug("running session sweep")

	n, err := r.sessions.ExpireIdle(ctx, r.idleTTL)
	if err != nil {
		slog.Error("failed to expire idle sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired idle sessions", "count", n)
	}
}
