// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a set of held seats is
// successfully promoted into booked tickets.  It contains enough
// information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type BookingConfirmedEvent struct {
    PaymentID        uint64   `json:"payment_id"`
    PaymentReference string   `json:"payment_reference"`
    UserID           uint64   `json:"user_id"`
    ShowtimeID       uint64   `json:"showtime_id"`
    SeatIDs          []uint64 `json:"seat_ids"`
    TotalAmountCents uint32   `json:"total_amount_cents"`
    ConfirmedAt      string   `json:"confirmed_at"`
}
