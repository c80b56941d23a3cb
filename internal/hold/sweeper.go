package hold

import (
    "context"
    "log"
    "time"
)

// DefaultSweepInterval is applied when the sweeper is constructed
// with a non-positive interval.
const DefaultSweepInterval = 10 * time.Second

// Sweeper periodically evicts holds whose deadline has passed.  It is
// the only automatic cancellation path: an eviction that loses a race
// to an explicit release or a promotion is a no-op, never an error.
// A periodic scan is used rather than one timer per hold so that very
// high hold churn cannot pile up deferred tasks.
type Sweeper struct {
    registry *Registry
    interval time.Duration
}

// NewSweeper binds a sweeper to a registry.
func NewSweeper(registry *Registry, interval time.Duration) *Sweeper {
    if registry == nil {
        panic("nil registry passed to NewSweeper")
    }
    if interval <= 0 {
        interval = DefaultSweepInterval
    }
    return &Sweeper{registry: registry, interval: interval}
}

// Run sweeps the registry until ctx is cancelled.  It never returns
// an error to callers: eviction is fail open and only emits release
// events for the holds it removed.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if evicted := s.registry.evictExpired(); len(evicted) > 0 {
                log.Printf("hold-sweeper: evicted %d expired hold(s)", len(evicted))
            }
        }
    }
}

// SweepOnce evicts expired holds immediately and reports how many
// were removed.  Exposed for the admin surface and tests.
func (s *Sweeper) SweepOnce() int {
    return len(s.registry.evictExpired())
}
