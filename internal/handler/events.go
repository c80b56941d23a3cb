package handler

// Inbound socket events.  The wire format is a single JSON object
// with a type discriminator; decoding maps the string onto a typed
// kind exactly once so the dispatch switch in the socket handler is
// exhaustive over a closed set rather than a string-keyed lookup.

// inboundKind enumerates every request a viewer can send over the
// live connection.
type inboundKind int

const (
    kindUnknown inboundKind = iota
    kindJoinShowtime
    kindSelectSeat
    kindDeselectSeat
    kindBookSeats
    kindLeaveShowtime
    kindGetSeatStatus
)

// inboundEvent is the raw decoded client message.  Only the fields
// relevant to the event's kind are consulted.
type inboundEvent struct {
    Type          string   `json:"type"`
    SeatID        uint64   `json:"seat_id"`
    SeatIDs       []uint64 `json:"seat_ids"`
    PaymentMethod string   `json:"payment_method"`
}

// kind maps the wire discriminator onto the typed event kind.
func (e inboundEvent) kind() inboundKind {
    switch e.Type {
    case "join-showtime":
        return kindJoinShowtime
    case "select-seat":
        return kindSelectSeat
    case "deselect-seat":
        return kindDeselectSeat
    case "book-seats":
        return kindBookSeats
    case "leave-showtime":
        return kindLeaveShowtime
    case "get-seat-status":
        return kindGetSeatStatus
    }
    return kindUnknown
}
