package store

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically sweeps idle sessions out of the store so an
// abandoned upload does not pin its tables in memory forever.
type Janitor struct {
	store    *InMemoryStore
	interval time.Duration
	ttl      time.Duration
	quit     chan struct{}
	done     chan struct{}
}

func NewJanitor(store *InMemoryStore, interval, ttl time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Janitor{
		store:    store,
		interval: interval,
		ttl:      ttl,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run loops until Stop is called or ctx is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.quit:
			return nil
		case <-ticker.C:
			if expired := j.store.Sweep(j.ttl); len(expired) > 0 {
				slog.Info("evicted idle sessions", "count", len(expired), "session_ids", expired)
			}
		}
	}
}

// Stop signals Run to exit and waits for it, bounded by ctx.
func (j *Janitor) Stop(ctx context.Context) error {
	close(j.quit)

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
