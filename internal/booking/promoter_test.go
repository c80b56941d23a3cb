package booking_test

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinelive/reservation-engine/internal/booking"
    "github.com/cinelive/reservation-engine/internal/model"
    "github.com/cinelive/reservation-engine/internal/queue"
    "github.com/cinelive/reservation-engine/internal/repository"
)

type holdKey struct{ showtimeID, seatID uint64 }

type fakeHolds struct {
    mu      sync.Mutex
    holds   map[holdKey]model.Hold
    cleared []uint64
}

func newFakeHolds() *fakeHolds {
    return &fakeHolds{holds: make(map[holdKey]model.Hold)}
}

func (f *fakeHolds) grant(showtimeID, seatID, ownerID uint64) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.holds[holdKey{showtimeID, seatID}] = model.Hold{
        ShowtimeID: showtimeID,
        SeatID:     seatID,
        OwnerID:    ownerID,
        Deadline:   time.Now().Add(time.Minute),
    }
}

func (f *fakeHolds) Peek(showtimeID, seatID uint64) (model.Hold, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    h, ok := f.holds[holdKey{showtimeID, seatID}]
    return h, ok
}

func (f *fakeHolds) HoldsForShowtime(showtimeID uint64) map[uint64]model.Hold {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make(map[uint64]model.Hold)
    for k, h := range f.holds {
        if k.showtimeID == showtimeID {
            out[k.seatID] = h
        }
    }
    return out
}

func (f *fakeHolds) ClearPromoted(showtimeID uint64, seatIDs []uint64, ownerID uint64) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, sid := range seatIDs {
        k := holdKey{showtimeID, sid}
        if h, ok := f.holds[k]; ok && h.OwnerID == ownerID {
            delete(f.holds, k)
            f.cleared = append(f.cleared, sid)
        }
    }
}

type fakeStore struct {
    createErr    error
    createCalls  int
    gotCharges   []repository.SeatCharge
    gotMethod    string
    completeErr  error
    completed    []string
    cancelErr    error
    cancelSeats  []uint64
    cancelShowID uint64
    gotOwner     *uint64
}

func (f *fakeStore) CreateTicketsAndPayment(_ context.Context, _, _ uint64, charges []repository.SeatCharge, method string) (*repository.BookingRecord, error) {
    f.createCalls++
    f.gotCharges = charges
    f.gotMethod = method
    if f.createErr != nil {
        return nil, f.createErr
    }
    var total uint32
    ticketIDs := make([]uint64, 0, len(charges))
    for i, ch := range charges {
        total += ch.PriceCents
        ticketIDs = append(ticketIDs, uint64(100+i))
    }
    return &repository.BookingRecord{
        PaymentID:  77,
        Reference:  "ref-abc",
        TicketIDs:  ticketIDs,
        TotalCents: total,
    }, nil
}

func (f *fakeStore) CompletePayment(_ context.Context, _ uint64, providerTxn string) error {
    if f.completeErr != nil {
        return f.completeErr
    }
    f.completed = append(f.completed, providerTxn)
    return nil
}

func (f *fakeStore) CancelPaymentAndTickets(_ context.Context, _ uint64, ownerID *uint64) (uint64, []uint64, error) {
    f.gotOwner = ownerID
    if f.cancelErr != nil {
        return 0, nil, f.cancelErr
    }
    return f.cancelShowID, f.cancelSeats, nil
}

type fakeShowtimes struct{ st *model.Showtime }

func (f *fakeShowtimes) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
    if f.st == nil || f.st.ID != id {
        return nil, repository.ErrShowtimeNotFound
    }
    return f.st, nil
}

type fakeSeats struct{ seats map[uint64]model.Seat }

func (f *fakeSeats) GetByIDs(_ context.Context, seatIDs []uint64) ([]model.Seat, error) {
    out := make([]model.Seat, 0, len(seatIDs))
    for _, id := range seatIDs {
        if s, ok := f.seats[id]; ok {
            out = append(out, s)
        }
    }
    return out, nil
}

type capturePub struct {
    mu     sync.Mutex
    events []model.Event
}

func (p *capturePub) Publish(_ uint64, ev model.Event) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
}

func (p *capturePub) byType(typ string) []model.Event {
    p.mu.Lock()
    defer p.mu.Unlock()
    var out []model.Event
    for _, ev := range p.events {
        if ev.Type == typ {
            out = append(out, ev)
        }
    }
    return out
}

type promoterFixture struct {
    holds     *fakeHolds
    store     *fakeStore
    showtimes *fakeShowtimes
    seats     *fakeSeats
    pub       *capturePub
    confirmed []queue.BookingConfirmedEvent
    promoter  *booking.Promoter
}

func newPromoterFixture(confirmErr error) *promoterFixture {
    f := &promoterFixture{
        holds: newFakeHolds(),
        store: &fakeStore{},
        showtimes: &fakeShowtimes{st: &model.Showtime{
            ID:             1,
            HallID:         5,
            BasePriceCents: 1000,
            PriceOverrides: map[string]uint32{"VIP": 2500},
        }},
        seats: &fakeSeats{seats: map[uint64]model.Seat{
            10: {ID: 10, HallID: 5, SeatType: "STANDARD"},
            11: {ID: 11, HallID: 5, SeatType: "VIP"},
            12: {ID: 12, HallID: 5, SeatType: "STANDARD"},
        }},
        pub: &capturePub{},
    }
    confirm := func(_ context.Context, ev queue.BookingConfirmedEvent) error {
        if confirmErr != nil {
            return confirmErr
        }
        f.confirmed = append(f.confirmed, ev)
        return nil
    }
    f.promoter = booking.NewPromoter(f.holds, f.store, f.showtimes, f.seats, f.pub, confirm)
    return f
}

func TestPromoteSuccess(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 42)
    f.holds.grant(1, 11, 42)

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10, 11}, 42, "card")
    require.NoError(t, err)
    require.True(t, res.Booked)

    assert.Equal(t, uint64(77), res.PaymentID)
    assert.Equal(t, "ref-abc", res.Reference)
    assert.Equal(t, uint32(3500), res.TotalCents, "VIP override plus standard base price")
    assert.Equal(t, "card", f.store.gotMethod)
    assert.ElementsMatch(t, []uint64{10, 11}, f.holds.cleared)

    booked := f.pub.byType(model.EventSeatsBooked)
    require.Len(t, booked, 1)
    assert.ElementsMatch(t, []uint64{10, 11}, booked[0].SeatIDs)
    assert.Equal(t, uint64(42), booked[0].UserID)

    require.Len(t, f.confirmed, 1)
    assert.Equal(t, uint64(77), f.confirmed[0].PaymentID)
    assert.Equal(t, uint32(3500), f.confirmed[0].TotalAmountCents)
}

func TestPromoteDedupesSeatIDs(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 42)

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10, 10, 0}, 42, "card")
    require.NoError(t, err)
    require.True(t, res.Booked)
    assert.Len(t, f.store.gotCharges, 1)
}

func TestPromoteRejectsOnMissingHold(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 42)
    // seat 11 carries no hold at all

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10, 11}, 42, "card")
    require.NoError(t, err)
    assert.False(t, res.Booked)
    assert.Equal(t, booking.ReasonHoldLost, res.Reason)
    assert.Equal(t, []uint64{11}, res.Conflicting)

    assert.Zero(t, f.store.createCalls, "a rejected promotion must not touch the store")
    assert.Empty(t, f.holds.cleared, "the surviving hold must stay intact")
    assert.Empty(t, f.pub.byType(model.EventSeatsBooked))
}

func TestPromoteRejectsOnForeignHold(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 7) // held, but by someone else

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10}, 42, "card")
    require.NoError(t, err)
    assert.False(t, res.Booked)
    assert.Equal(t, booking.ReasonHoldLost, res.Reason)
    assert.Zero(t, f.store.createCalls)
}

func TestPromoteRejectsOnSeatConflict(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 42)
    f.store.createErr = &repository.SeatConflictError{SeatIDs: []uint64{10}}

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10}, 42, "card")
    require.NoError(t, err)
    assert.False(t, res.Booked)
    assert.Equal(t, booking.ReasonAlreadyBooked, res.Reason)
    assert.Equal(t, []uint64{10}, res.Conflicting)
    assert.Empty(t, f.holds.cleared, "holds survive a store-side conflict")
}

func TestPromoteStoreErrorPropagates(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(1, 10, 42)
    f.store.createErr = errors.New("deadlock")

    _, err := f.promoter.Promote(context.Background(), 1, []uint64{10}, 42, "card")
    assert.Error(t, err)
    assert.Empty(t, f.pub.byType(model.EventSeatsBooked))
}

func TestPromoteUnknownShowtime(t *testing.T) {
    f := newPromoterFixture(nil)
    f.holds.grant(9, 10, 42)

    _, err := f.promoter.Promote(context.Background(), 9, []uint64{10}, 42, "card")
    assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
}

func TestPromoteSurvivesConfirmFailure(t *testing.T) {
    f := newPromoterFixture(errors.New("broker down"))
    f.holds.grant(1, 10, 42)

    res, err := f.promoter.Promote(context.Background(), 1, []uint64{10}, 42, "card")
    require.NoError(t, err)
    assert.True(t, res.Booked, "a broker outage must not fail the booking")
}

func TestCancelPublishesReleases(t *testing.T) {
    f := newPromoterFixture(nil)
    f.store.cancelShowID = 1
    f.store.cancelSeats = []uint64{10, 11}

    err := f.promoter.Cancel(context.Background(), 77, 42)
    require.NoError(t, err)

    require.NotNil(t, f.store.gotOwner)
    assert.Equal(t, uint64(42), *f.store.gotOwner)

    released := f.pub.byType(model.EventSeatReleased)
    require.Len(t, released, 2)
    assert.Equal(t, uint64(42), released[0].UserID)
}

func TestFailPaymentSkipsOwnerCheck(t *testing.T) {
    f := newPromoterFixture(nil)
    f.store.cancelShowID = 1
    f.store.cancelSeats = []uint64{10}

    err := f.promoter.FailPayment(context.Background(), 77)
    require.NoError(t, err)
    assert.Nil(t, f.store.gotOwner, "provider-driven cancel carries no owner")
    assert.Len(t, f.pub.byType(model.EventSeatReleased), 1)
}

func TestCancelErrorsPropagate(t *testing.T) {
    f := newPromoterFixture(nil)
    f.store.cancelErr = repository.ErrForbidden

    err := f.promoter.Cancel(context.Background(), 77, 42)
    assert.ErrorIs(t, err, repository.ErrForbidden)
    assert.Empty(t, f.pub.byType(model.EventSeatReleased))
}

func TestCompleteDelegates(t *testing.T) {
    f := newPromoterFixture(nil)

    require.NoError(t, f.promoter.Complete(context.Background(), 77, "txn_123"))
    assert.Equal(t, []string{"txn_123"}, f.store.completed)

    f.store.completeErr = repository.ErrConflict
    assert.ErrorIs(t, f.promoter.Complete(context.Background(), 77, "txn_other"), repository.ErrConflict)
}
