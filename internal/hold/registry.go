// Package hold implements the in-process hold registry: the fast,
// ephemeral source of truth for which user is currently trying to
// take which seat.  All mutations go through a single mutex so that
// check-and-insert and compare-and-remove are atomic per key; the
// durable ticket store is only consulted to fail fast on seats that
// are already booked.
package hold

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "sync"
    "time"

    "github.com/cinelive/reservation-engine/internal/model"
)

// AcquireResult is the verdict of a TryAcquire call.  Denied verdicts
// are expected, user-facing outcomes rather than errors.
type AcquireResult int

const (
    Granted AcquireResult = iota
    DeniedBooked
    DeniedHeldByOther
)

// ReleaseResult is the verdict of a Release call.
type ReleaseResult int

const (
    Released ReleaseResult = iota
    NotOwner
    NotFound
)

// DefaultTTL is applied when the registry is constructed with a
// non-positive TTL.
const DefaultTTL = 5 * time.Minute

// BookedChecker reports whether a durable BOOKED ticket already exists
// for a seat.  The ticket repository satisfies this.
type BookedChecker interface {
    IsBooked(ctx context.Context, showtimeID, seatID uint64) (bool, error)
}

// Publisher fans an event out to every viewer of a showtime.  The
// room broadcaster satisfies this.  Publish must be non-blocking.
type Publisher interface {
    Publish(showtimeID uint64, ev model.Event)
}

type key struct {
    showtimeID uint64
    seatID     uint64
}

// Registry maps (showtime, seat) to the hold currently claiming it.
// Contention is always scoped to one seat, never global, so a single
// mutex around the map is sufficient.
type Registry struct {
    mu     sync.Mutex
    holds  map[key]model.Hold
    ttl    time.Duration
    booked BookedChecker
    events Publisher
    now    func() time.Time
}

// NewRegistry constructs a Registry.  booked and events must be
// non-nil; ttl falls back to DefaultTTL when non-positive.
func NewRegistry(booked BookedChecker, events Publisher, ttl time.Duration) *Registry {
    if booked == nil || events == nil {
        panic("nil dependency passed to NewRegistry")
    }
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    return &Registry{
        holds:  make(map[key]model.Hold),
        ttl:    ttl,
        booked: booked,
        events: events,
        now:    time.Now,
    }
}

// TTL returns the configured hold time-to-live.
func (r *Registry) TTL() time.Duration { return r.ttl }

// TryAcquire grants a hold on one seat to ownerID, or reports why it
// cannot.  The durable store is checked first so a seat with a BOOKED
// ticket is denied without touching the map.  The check-and-insert on
// the map itself is a single atomic step: two simultaneous callers can
// never both observe "absent".  Re-acquiring a seat the owner already
// holds refreshes the deadline and is idempotent: no second hold is
// created and no duplicate event is emitted.
func (r *Registry) TryAcquire(ctx context.Context, showtimeID, seatID, ownerID uint64) (AcquireResult, error) {
    booked, err := r.booked.IsBooked(ctx, showtimeID, seatID)
    if err != nil {
        return 0, err
    }
    if booked {
        return DeniedBooked, nil
    }

    r.mu.Lock()
    defer r.mu.Unlock()

    now := r.now()
    k := key{showtimeID, seatID}
    if h, ok := r.holds[k]; ok && h.Deadline.After(now) {
        if h.OwnerID != ownerID {
            return DeniedHeldByOther, nil
        }
        h.Deadline = now.Add(r.ttl)
        r.holds[k] = h
        return Granted, nil
    }

    token, err := newToken()
    if err != nil {
        return 0, err
    }
    r.holds[k] = model.Hold{
        ShowtimeID: showtimeID,
        SeatID:     seatID,
        OwnerID:    ownerID,
        Token:      token,
        AcquiredAt: now,
        Deadline:   now.Add(r.ttl),
    }
    r.events.Publish(showtimeID, model.Event{
        Type:       model.EventSeatSelected,
        ShowtimeID: showtimeID,
        SeatID:     seatID,
        UserID:     ownerID,
    })
    return Granted, nil
}

// Release removes ownerID's hold on a seat.  Only the owner may
// release; releasing a seat with no active hold reports NotFound.
func (r *Registry) Release(showtimeID, seatID, ownerID uint64) ReleaseResult {
    r.mu.Lock()
    defer r.mu.Unlock()

    k := key{showtimeID, seatID}
    h, ok := r.holds[k]
    if !ok || !h.Deadline.After(r.now()) {
        return NotFound
    }
    if h.OwnerID != ownerID {
        return NotOwner
    }
    delete(r.holds, k)
    r.events.Publish(showtimeID, model.Event{
        Type:       model.EventSeatDeselected,
        ShowtimeID: showtimeID,
        SeatID:     seatID,
        UserID:     ownerID,
    })
    return Released
}

// Peek returns the active hold on a seat, if any.  Expired entries
// read as absent even before the sweeper evicts them.
func (r *Registry) Peek(showtimeID, seatID uint64) (model.Hold, bool) {
    r.mu.Lock()
    defer r.mu.Unlock()

    h, ok := r.holds[key{showtimeID, seatID}]
    if !ok || !h.Deadline.After(r.now()) {
        return model.Hold{}, false
    }
    return h, true
}

// HoldsForShowtime returns the active holds for one showtime keyed by
// seat id.  Used by the status snapshot and the admin surface.
func (r *Registry) HoldsForShowtime(showtimeID uint64) map[uint64]model.Hold {
    r.mu.Lock()
    defer r.mu.Unlock()

    now := r.now()
    out := make(map[uint64]model.Hold)
    for k, h := range r.holds {
        if k.showtimeID == showtimeID && h.Deadline.After(now) {
            out[k.seatID] = h
        }
    }
    return out
}

// ClearPromoted drops ownerID's holds on the given seats without
// emitting release events.  Called after a successful promotion: the
// durable tickets are the source of truth from that point and the
// seats-booked broadcast covers the transition.
func (r *Registry) ClearPromoted(showtimeID uint64, seatIDs []uint64, ownerID uint64) {
    r.mu.Lock()
    defer r.mu.Unlock()

    for _, sid := range seatIDs {
        k := key{showtimeID, sid}
        if h, ok := r.holds[k]; ok && h.OwnerID == ownerID {
            delete(r.holds, k)
        }
    }
}

// ForceRelease removes whatever hold exists on a seat regardless of
// owner and broadcasts the release.  Admin-only path.
func (r *Registry) ForceRelease(showtimeID, seatID uint64) bool {
    r.mu.Lock()
    defer r.mu.Unlock()

    k := key{showtimeID, seatID}
    h, ok := r.holds[k]
    if !ok {
        return false
    }
    delete(r.holds, k)
    r.events.Publish(showtimeID, model.Event{
        Type:       model.EventSeatReleased,
        ShowtimeID: showtimeID,
        SeatID:     seatID,
        UserID:     h.OwnerID,
    })
    return true
}

// ReleaseAllByOwner removes every hold ownerID has on a showtime and
// broadcasts one release per seat.  Returns the seat ids released.
// Used when a user abandons a selection or an admin evicts a user.
func (r *Registry) ReleaseAllByOwner(showtimeID, ownerID uint64) []uint64 {
    r.mu.Lock()
    defer r.mu.Unlock()

    var released []uint64
    for k, h := range r.holds {
        if k.showtimeID != showtimeID || h.OwnerID != ownerID {
            continue
        }
        delete(r.holds, k)
        released = append(released, k.seatID)
        r.events.Publish(showtimeID, model.Event{
            Type:       model.EventSeatDeselected,
            ShowtimeID: showtimeID,
            SeatID:     k.seatID,
            UserID:     ownerID,
        })
    }
    return released
}

// evictExpired removes every hold past its deadline and returns the
// evicted holds.  The token comparison is implicit: entries are read
// and deleted under the same lock acquisition, so a hold replaced by
// a fresh acquisition is never evicted by mistake.  Release events
// are published while the lock is held to preserve per-seat ordering
// against a racing re-acquire.
func (r *Registry) evictExpired() []model.Hold {
    r.mu.Lock()
    defer r.mu.Unlock()

    now := r.now()
    var evicted []model.Hold
    for k, h := range r.holds {
        if h.Deadline.After(now) {
            continue
        }
        delete(r.holds, k)
        evicted = append(evicted, h)
        r.events.Publish(h.ShowtimeID, model.Event{
            Type:       model.EventSeatReleased,
            ShowtimeID: h.ShowtimeID,
            SeatID:     h.SeatID,
            UserID:     h.OwnerID,
        })
    }
    return evicted
}

// newToken generates a random hexadecimal hold token.  The underlying
// call to crypto/rand ensures the token cannot be guessed or collide
// in practice.
func newToken() (string, error) {
    b := make([]byte, 16)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
