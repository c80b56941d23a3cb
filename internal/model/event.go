package model

// Event types broadcast to viewers of a showtime room and returned
// directly to a requesting connection.  The first group mirrors state
// transitions applied to the hold registry or the durable store; the
// second group carries per-request failures and never leaves the
// requesting connection.
const (
    EventSeatSelected    = "seat-selected"
    EventSeatDeselected  = "seat-deselected"
    EventSeatReleased    = "seat-released"
    EventSeatsBooked     = "seats-booked"
    EventStatusUpdate    = "seat-status-update"

    EventSelectionFailed = "seat-selection-failed"
    EventBookingFailed   = "booking-failed"
    EventError           = "error"
)

// Seat availability values used in status snapshots.
const (
    SeatAvailable = "AVAILABLE"
    SeatHeld      = "HELD"
    SeatBooked    = "BOOKED"
)

// Event is the single wire payload exchanged with showtime viewers.
// Only the fields relevant for a given Type are populated; the rest
// are omitted from the JSON encoding.
type Event struct {
    Type       string       `json:"type"`
    ShowtimeID uint64       `json:"showtime_id"`
    SeatID     uint64       `json:"seat_id,omitempty"`
    SeatIDs    []uint64     `json:"seat_ids,omitempty"`
    UserID     uint64       `json:"user_id,omitempty"`
    Reason     string       `json:"reason,omitempty"`
    Seats      []SeatStatus `json:"seats,omitempty"`
    Booking    *BookingInfo `json:"booking,omitempty"`
}

// SeatStatus is one row of a full showtime snapshot: the seat joined
// against booked tickets and active holds at the moment of the call.
type SeatStatus struct {
    SeatID     uint64  `json:"seat_id"`
    RowLabel   string  `json:"row"`
    SeatNumber uint32  `json:"number"`
    SeatType   string  `json:"seat_type"`
    Status     string  `json:"status"`
    HolderID   *uint64 `json:"holder_id,omitempty"`
}

// BookingInfo is attached to a seats-booked reply so the requesting
// client can drive the payment provider.
type BookingInfo struct {
    TicketIDs    []uint64 `json:"ticket_ids"`
    PaymentID    uint64   `json:"payment_id"`
    AmountCents  uint32   `json:"amount_cents"`
    ClientSecret string   `json:"client_secret,omitempty"`
    CheckoutURL  string   `json:"checkout_url,omitempty"`
}
