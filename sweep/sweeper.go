// Package sweep evicts expired OTP and session documents on a timer. The
// backing store never drops them on its own, so without the sweeper
// expired records accumulate until they happen to be queried and rejected.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/guidancedesk/docstore"
	"github.com/campuskit/guidancedesk/internal/logging"
)

// Sweeper periodically deletes documents whose expiresAt field is in the
// past.
type Sweeper struct {
	store       docstore.Store
	collections []string
	interval    time.Duration
	log         logging.Logger
	now         func() time.Time
	onRemoved   func(n int)
}

// Option tweaks an optional sweeper knob.
type Option func(*Sweeper)

// WithClock overrides the sweeper clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithOnRemoved registers a callback invoked with the count of each
// non-empty sweep. Used to feed metrics.
func WithOnRemoved(fn func(n int)) Option {
	return func(s *Sweeper) { s.onRemoved = fn }
}

// New builds a sweeper over the given collections. interval <= 0 disables
// Run entirely.
func New(store docstore.Store, interval time.Duration, log logging.Logger, collections []string, opts ...Option) *Sweeper {
	if log == nil {
		log = logging.Nop()
	}
	s := &Sweeper{
		store:       store,
		collections: collections,
		interval:    interval,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is done. Errors are logged and the
// loop continues; a store outage must not kill the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				s.log.Error(ctx, "sweep failed", "err", err)
			} else if n > 0 {
				s.log.Info(ctx, "swept expired documents", "removed", n)
			}
		}
	}
}

// SweepOnce deletes every expired document across the configured
// collections and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	nowUnix := s.now().Unix()
	removed := 0

	for _, collection := range s.collections {
		docs, err := s.store.List(ctx, collection, docstore.Query{
			Filters: []docstore.Filter{docstore.Lt("expiresAt", nowUnix)},
		})
		if err != nil {
			return removed, fmt.Errorf("list %s: %w", collection, err)
		}

		for _, doc := range docs {
			if err := s.store.Delete(ctx, collection, doc.ID); err != nil {
				return removed, fmt.Errorf("delete %s/%s: %w", collection, doc.ID, err)
			}
			removed++
		}
	}

	if removed > 0 && s.onRemoved != nil {
		s.onRemoved(removed)
	}
	return removed, nil
}
