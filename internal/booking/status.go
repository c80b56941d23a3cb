package booking

import (
    "context"

    "github.com/cinelive/reservation-engine/internal/model"
)

// SeatLister loads the seat map of a hall.  The seat repository
// satisfies this.
type SeatLister interface {
    ListByHall(ctx context.Context, hallID uint64) ([]model.Seat, error)
}

// BookedSource lists the seats with a durable BOOKED ticket.  The
// ticket repository satisfies this.
type BookedSource interface {
    BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error)
}

// StatusService computes the full seat snapshot of a showtime: the
// hall's seat list joined against booked tickets and active holds.
// There is no caching beyond the read itself: the result always
// reflects current state at call time.  It serves both the snapshot
// pushed on room join and manual refresh requests.
type StatusService struct {
    showtimes ShowtimeSource
    seats     SeatLister
    tickets   BookedSource
    holds     HoldView
}

// NewStatusService wires a StatusService.
func NewStatusService(showtimes ShowtimeSource, seats SeatLister, tickets BookedSource, holds HoldView) *StatusService {
    if showtimes == nil || seats == nil || tickets == nil || holds == nil {
        panic("nil dependency passed to NewStatusService")
    }
    return &StatusService{showtimes: showtimes, seats: seats, tickets: tickets, holds: holds}
}

// Snapshot returns one SeatStatus per seat of the showtime's hall.
// Booked wins over held when both apply: the durable ticket is the
// stronger claim.
func (s *StatusService) Snapshot(ctx context.Context, showtimeID uint64) ([]model.SeatStatus, error) {
    st, err := s.showtimes.GetByID(ctx, showtimeID)
    if err != nil {
        return nil, err
    }
    seats, err := s.seats.ListByHall(ctx, st.HallID)
    if err != nil {
        return nil, err
    }
    bookedIDs, err := s.tickets.BookedSeatIDs(ctx, showtimeID)
    if err != nil {
        return nil, err
    }
    booked := make(map[uint64]struct{}, len(bookedIDs))
    for _, id := range bookedIDs {
        booked[id] = struct{}{}
    }
    held := s.holds.HoldsForShowtime(showtimeID)

    out := make([]model.SeatStatus, 0, len(seats))
    for _, seat := range seats {
        ss := model.SeatStatus{
            SeatID:     seat.ID,
            RowLabel:   seat.RowLabel,
            SeatNumber: seat.SeatNumber,
            SeatType:   seat.SeatType,
            Status:     model.SeatAvailable,
        }
        if _, ok := booked[seat.ID]; ok {
            ss.Status = model.SeatBooked
        } else if h, ok := held[seat.ID]; ok {
            ss.Status = model.SeatHeld
            holder := h.OwnerID
            ss.HolderID = &holder
        }
        out = append(out, ss)
    }
    return out, nil
}
