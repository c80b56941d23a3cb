package model

import "time"

// Ticket statuses.  BOOKED is the durable claim on a seat; at most one
// BOOKED ticket may ever exist for a given (showtime, seat) pair.
// SELECTED is a soft, time-bounded claim kept for wire compatibility
// with older clients; the engine itself only writes BOOKED tickets and
// tracks in-flight selections in the in-memory hold registry.
const (
    TicketSelected = "SELECTED"
    TicketBooked   = "BOOKED"
)

// Ticket is the durable record of a seat's claim for a showtime.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – showtime the seat is claimed for.
//  SeatID     – seat being claimed.
//  UserID     – owner of the claim.
//  PriceCents – price paid for this seat in cents.
//  PaymentID  – payment the ticket belongs to.
//  Status     – SELECTED or BOOKED.
//  CreatedAt  – creation timestamp.
type Ticket struct {
    ID         uint64    // tickets.id
    ShowtimeID uint64    // tickets.showtime_id
    SeatID     uint64    // tickets.seat_id
    UserID     uint64    // tickets.user_id
    PriceCents uint32    // tickets.price_cents
    PaymentID  uint64    // tickets.payment_id
    Status     string    // tickets.status
    CreatedAt  time.Time // tickets.created_at
}
