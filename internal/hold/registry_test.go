package hold

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinelive/reservation-engine/internal/model"
)

type fakeBooked struct {
    booked map[uint64]bool
    err    error
}

func (f *fakeBooked) IsBooked(_ context.Context, _, seatID uint64) (bool, error) {
    if f.err != nil {
        return false, f.err
    }
    return f.booked[seatID], nil
}

type capturePublisher struct {
    mu     sync.Mutex
    events []model.Event
}

func (p *capturePublisher) Publish(_ uint64, ev model.Event) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
}

func (p *capturePublisher) all() []model.Event {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]model.Event, len(p.events))
    copy(out, p.events)
    return out
}

func (p *capturePublisher) byType(typ string) []model.Event {
    var out []model.Event
    for _, ev := range p.all() {
        if ev.Type == typ {
            out = append(out, ev)
        }
    }
    return out
}

func newTestRegistry(t *testing.T) (*Registry, *capturePublisher, *time.Time) {
    t.Helper()
    pub := &capturePublisher{}
    r := NewRegistry(&fakeBooked{booked: map[uint64]bool{}}, pub, time.Minute)
    clock := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
    r.now = func() time.Time { return clock }
    return r, pub, &clock
}

func TestTryAcquireGrantsAndBroadcasts(t *testing.T) {
    r, pub, _ := newTestRegistry(t)

    res, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)
    assert.Equal(t, Granted, res)

    h, ok := r.Peek(1, 10)
    require.True(t, ok)
    assert.Equal(t, uint64(42), h.OwnerID)
    assert.NotEmpty(t, h.Token)
    assert.Equal(t, time.Minute, h.Deadline.Sub(h.AcquiredAt))

    events := pub.byType(model.EventSeatSelected)
    require.Len(t, events, 1)
    assert.Equal(t, uint64(10), events[0].SeatID)
    assert.Equal(t, uint64(42), events[0].UserID)
}

func TestTryAcquireMutualExclusion(t *testing.T) {
    r, _, _ := newTestRegistry(t)

    const contenders = 32
    var wg sync.WaitGroup
    results := make([]AcquireResult, contenders)
    for i := 0; i < contenders; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            res, err := r.TryAcquire(context.Background(), 1, 10, uint64(i+1))
            assert.NoError(t, err)
            results[i] = res
        }(i)
    }
    wg.Wait()

    granted := 0
    for _, res := range results {
        if res == Granted {
            granted++
        } else {
            assert.Equal(t, DeniedHeldByOther, res)
        }
    }
    assert.Equal(t, 1, granted, "exactly one contender may win the seat")
}

func TestTryAcquireIdempotentRefresh(t *testing.T) {
    r, pub, clock := newTestRegistry(t)

    res, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)
    require.Equal(t, Granted, res)
    first, _ := r.Peek(1, 10)

    *clock = clock.Add(30 * time.Second)
    res, err = r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)
    assert.Equal(t, Granted, res)

    second, ok := r.Peek(1, 10)
    require.True(t, ok)
    assert.True(t, second.Deadline.After(first.Deadline), "re-acquire must refresh the deadline")
    assert.Len(t, pub.byType(model.EventSeatSelected), 1, "refresh must not emit a second selection event")
}

func TestTryAcquireDeniedBooked(t *testing.T) {
    pub := &capturePublisher{}
    r := NewRegistry(&fakeBooked{booked: map[uint64]bool{10: true}}, pub, time.Minute)

    res, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)
    assert.Equal(t, DeniedBooked, res)
    assert.Empty(t, pub.all())

    _, ok := r.Peek(1, 10)
    assert.False(t, ok)
}

func TestTryAcquireStoreError(t *testing.T) {
    pub := &capturePublisher{}
    r := NewRegistry(&fakeBooked{err: errors.New("connection refused")}, pub, time.Minute)

    _, err := r.TryAcquire(context.Background(), 1, 10, 42)
    assert.Error(t, err)
}

func TestReleaseVerdicts(t *testing.T) {
    r, pub, _ := newTestRegistry(t)

    _, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)

    assert.Equal(t, NotOwner, r.Release(1, 10, 7), "stranger must not release another user's hold")
    assert.Equal(t, Released, r.Release(1, 10, 42))
    assert.Equal(t, NotFound, r.Release(1, 10, 42), "second release finds nothing")

    events := pub.byType(model.EventSeatDeselected)
    require.Len(t, events, 1)
    assert.Equal(t, uint64(42), events[0].UserID)
}

func TestExpiredHoldReadsAsAbsent(t *testing.T) {
    r, _, clock := newTestRegistry(t)

    _, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)

    *clock = clock.Add(time.Minute + time.Second)

    _, ok := r.Peek(1, 10)
    assert.False(t, ok, "expired hold must read as absent before eviction")
    assert.Empty(t, r.HoldsForShowtime(1))
    assert.Equal(t, NotFound, r.Release(1, 10, 42))
}

func TestExpiredSeatReacquirable(t *testing.T) {
    r, pub, clock := newTestRegistry(t)

    _, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)

    *clock = clock.Add(2 * time.Minute)

    res, err := r.TryAcquire(context.Background(), 1, 10, 7)
    require.NoError(t, err)
    assert.Equal(t, Granted, res)

    h, ok := r.Peek(1, 10)
    require.True(t, ok)
    assert.Equal(t, uint64(7), h.OwnerID)
    assert.Len(t, pub.byType(model.EventSeatSelected), 2)
}

func TestReleaseAllByOwner(t *testing.T) {
    r, pub, _ := newTestRegistry(t)
    ctx := context.Background()

    for _, sid := range []uint64{10, 11, 12} {
        _, err := r.TryAcquire(ctx, 1, sid, 42)
        require.NoError(t, err)
    }
    _, err := r.TryAcquire(ctx, 1, 13, 7)
    require.NoError(t, err)
    _, err = r.TryAcquire(ctx, 2, 10, 42)
    require.NoError(t, err)

    released := r.ReleaseAllByOwner(1, 42)
    assert.ElementsMatch(t, []uint64{10, 11, 12}, released)

    _, ok := r.Peek(1, 13)
    assert.True(t, ok, "other owner's hold survives")
    _, ok = r.Peek(2, 10)
    assert.True(t, ok, "same owner on another showtime survives")
    assert.Len(t, pub.byType(model.EventSeatDeselected), 3)
}

func TestForceRelease(t *testing.T) {
    r, pub, _ := newTestRegistry(t)

    _, err := r.TryAcquire(context.Background(), 1, 10, 42)
    require.NoError(t, err)

    assert.True(t, r.ForceRelease(1, 10))
    assert.False(t, r.ForceRelease(1, 10))

    events := pub.byType(model.EventSeatReleased)
    require.Len(t, events, 1)
    assert.Equal(t, uint64(42), events[0].UserID)
}

func TestClearPromotedEmitsNoEvents(t *testing.T) {
    r, pub, _ := newTestRegistry(t)
    ctx := context.Background()

    _, err := r.TryAcquire(ctx, 1, 10, 42)
    require.NoError(t, err)
    _, err = r.TryAcquire(ctx, 1, 11, 7)
    require.NoError(t, err)
    before := len(pub.all())

    r.ClearPromoted(1, []uint64{10, 11}, 42)

    _, ok := r.Peek(1, 10)
    assert.False(t, ok)
    _, ok = r.Peek(1, 11)
    assert.True(t, ok, "another owner's hold must not be cleared")
    assert.Len(t, pub.all(), before, "promotion cleanup is silent")
}
