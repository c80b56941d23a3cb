// Package booking contains the reservation promoter, the single
// transactional boundary where ephemeral holds become durable booked
// tickets, and the seat status query that joins the two consistency
// domains for viewers.
package booking

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/cinelive/reservation-engine/internal/model"
    "github.com/cinelive/reservation-engine/internal/queue"
    "github.com/cinelive/reservation-engine/internal/repository"
)

// Rejection reasons returned to clients when a promotion fails one of
// its precondition checks.
const (
    ReasonHoldLost      = "hold-lost"
    ReasonAlreadyBooked = "already-booked"
)

// HoldView is the slice of the hold registry the promoter needs: read
// a single hold, read a showtime's holds, and drop holds that were
// just promoted.
type HoldView interface {
    Peek(showtimeID, seatID uint64) (model.Hold, bool)
    HoldsForShowtime(showtimeID uint64) map[uint64]model.Hold
    ClearPromoted(showtimeID uint64, seatIDs []uint64, ownerID uint64)
}

// Store is the durable side of a promotion.  Implementations must
// make each method atomic; the MySQL ticket repository is the
// production one.
type Store interface {
    CreateTicketsAndPayment(ctx context.Context, showtimeID, userID uint64, charges []repository.SeatCharge, method string) (*repository.BookingRecord, error)
    CompletePayment(ctx context.Context, paymentID uint64, providerTxn string) error
    CancelPaymentAndTickets(ctx context.Context, paymentID uint64, ownerID *uint64) (uint64, []uint64, error)
}

// ShowtimeSource loads showtime pricing.  The showtime repository
// satisfies this.
type ShowtimeSource interface {
    GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}

// SeatSource loads seats by id.  The seat repository satisfies this.
type SeatSource interface {
    GetByIDs(ctx context.Context, seatIDs []uint64) ([]model.Seat, error)
}

// Publisher fans events out to the viewers of a showtime.
type Publisher interface {
    Publish(showtimeID uint64, ev model.Event)
}

// ConfirmFunc publishes a booking confirmation to the message broker.
// A nil func disables broker notifications.
type ConfirmFunc func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// Result is the outcome of a promotion attempt.  A rejected result
// carries the reason and the seats that failed the check; no durable
// row was written for any seat in that case.
type Result struct {
    Booked      bool
    Reason      string
    Conflicting []uint64
    TicketIDs   []uint64
    PaymentID   uint64
    Reference   string
    TotalCents  uint32
}

// Promoter turns a set of currently-held seats into booked tickets
// plus a pending payment, or rejects the attempt if any precondition
// changed.  It is optimistic-lock style: the in-memory checks make
// rejection cheap, while the final truth is the unique-booked-ticket
// invariant enforced inside the store.
type Promoter struct {
    holds     HoldView
    store     Store
    showtimes ShowtimeSource
    seats     SeatSource
    events    Publisher
    confirm   ConfirmFunc
    now       func() time.Time
}

// NewPromoter wires a promoter.  confirm may be nil.
func NewPromoter(holds HoldView, store Store, showtimes ShowtimeSource, seats SeatSource, events Publisher, confirm ConfirmFunc) *Promoter {
    if holds == nil || store == nil || showtimes == nil || seats == nil || events == nil {
        panic("nil dependency passed to NewPromoter")
    }
    return &Promoter{
        holds:     holds,
        store:     store,
        showtimes: showtimes,
        seats:     seats,
        events:    events,
        confirm:   confirm,
        now:       time.Now,
    }
}

// Promote books the given seats for ownerID.  Every seat must carry
// an active hold owned by ownerID; a single lost hold rejects the
// whole request; partial booking is never performed.
func (p *Promoter) Promote(ctx context.Context, showtimeID uint64, seatIDs []uint64, ownerID uint64, method string) (*Result, error) {
    seatIDs = dedupe(seatIDs)
    if len(seatIDs) == 0 {
        return nil, errors.New("no seats requested")
    }

    st, err := p.showtimes.GetByID(ctx, showtimeID)
    if err != nil {
        return nil, err
    }

    // Precondition 1: the registry must still show every hold active
    // and owned by the requester.
    now := p.now()
    var lost []uint64
    for _, sid := range seatIDs {
        h, ok := p.holds.Peek(showtimeID, sid)
        if !ok || h.OwnerID != ownerID || !h.Deadline.After(now) {
            lost = append(lost, sid)
        }
    }
    if len(lost) > 0 {
        return &Result{Reason: ReasonHoldLost, Conflicting: lost}, nil
    }

    seats, err := p.seats.GetByIDs(ctx, seatIDs)
    if err != nil {
        return nil, err
    }
    if len(seats) != len(seatIDs) {
        return nil, errors.New("unknown seat in request")
    }

    charges := make([]repository.SeatCharge, 0, len(seats))
    for _, s := range seats {
        charges = append(charges, repository.SeatCharge{
            SeatID:     s.ID,
            PriceCents: st.PriceFor(s.SeatType),
        })
    }

    // Precondition 2 runs inside the store transaction: no BOOKED
    // ticket may exist for any requested seat.
    rec, err := p.store.CreateTicketsAndPayment(ctx, showtimeID, ownerID, charges, method)
    if err != nil {
        var conflict *repository.SeatConflictError
        if errors.As(err, &conflict) {
            return &Result{Reason: ReasonAlreadyBooked, Conflicting: conflict.SeatIDs}, nil
        }
        return nil, err
    }

    // The durable tickets are now the source of truth; the holds are
    // no longer needed and the booking is announced as one event.
    p.holds.ClearPromoted(showtimeID, seatIDs, ownerID)
    p.events.Publish(showtimeID, model.Event{
        Type:       model.EventSeatsBooked,
        ShowtimeID: showtimeID,
        SeatIDs:    seatIDs,
        UserID:     ownerID,
    })
    if p.confirm != nil {
        ev := queue.BookingConfirmedEvent{
            PaymentID:        rec.PaymentID,
            PaymentReference: rec.Reference,
            UserID:           ownerID,
            ShowtimeID:       showtimeID,
            SeatIDs:          seatIDs,
            TotalAmountCents: rec.TotalCents,
            ConfirmedAt:      now.UTC().Format(time.RFC3339),
        }
        if err := p.confirm(ctx, ev); err != nil {
            log.Printf("promoter: booking.confirmed publish failed: %v", err)
        }
    }

    return &Result{
        Booked:     true,
        TicketIDs:  rec.TicketIDs,
        PaymentID:  rec.PaymentID,
        Reference:  rec.Reference,
        TotalCents: rec.TotalCents,
    }, nil
}

// Complete records the payment provider's success for a booking.
// Idempotent: replaying the same provider transaction id succeeds
// without a second state change.
func (p *Promoter) Complete(ctx context.Context, paymentID uint64, providerTxn string) error {
    return p.store.CompletePayment(ctx, paymentID, providerTxn)
}

// Cancel un-books a PENDING payment at its owner's request.  This is
// the only path that un-books seats: the payment and its tickets are
// deleted atomically and a release is republished per seat.
// Cancelling a COMPLETED payment is rejected with ErrConflict, a
// non-owner with ErrForbidden.
func (p *Promoter) Cancel(ctx context.Context, paymentID, ownerID uint64) error {
    return p.cancel(ctx, paymentID, &ownerID)
}

// FailPayment is the provider-failure variant of Cancel: it trusts
// the payment gateway callback and therefore skips the owner check.
func (p *Promoter) FailPayment(ctx context.Context, paymentID uint64) error {
    return p.cancel(ctx, paymentID, nil)
}

func (p *Promoter) cancel(ctx context.Context, paymentID uint64, ownerID *uint64) error {
    showtimeID, seatIDs, err := p.store.CancelPaymentAndTickets(ctx, paymentID, ownerID)
    if err != nil {
        return err
    }
    for _, sid := range seatIDs {
        ev := model.Event{
            Type:       model.EventSeatReleased,
            ShowtimeID: showtimeID,
            SeatID:     sid,
        }
        if ownerID != nil {
            ev.UserID = *ownerID
        }
        p.events.Publish(showtimeID, ev)
    }
    return nil
}

// dedupe drops zero and duplicate seat ids preserving request order.
func dedupe(seatIDs []uint64) []uint64 {
    seen := make(map[uint64]struct{}, len(seatIDs))
    out := make([]uint64, 0, len(seatIDs))
    for _, id := range seatIDs {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
