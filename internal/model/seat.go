package model

import (
    "strconv"
    "time"
)

// Seat describes a physical seat in a hall.  Seats are uniquely
// identified by their hall, row label and seat number.  The seat_type
// drives per-type price overrides on a showtime.  Seats are immutable
// once created; deleting one is blocked while any ticket references it.
//
// Fields:
//  ID         – primary key identifier.
//  HallID     – hall to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – type of seat (STANDARD, VIP, ACCESSIBLE).
//  IsActive   – whether the seat is active.
//  CreatedAt  – creation timestamp.
type Seat struct {
    ID         uint64    // seats.id
    HallID     uint64    // seats.hall_id
    RowLabel   string    // seats.row_label
    SeatNumber uint32    // seats.seat_number
    SeatType   string    // seats.seat_type
    IsActive   bool      // seats.is_active
    CreatedAt  time.Time // seats.created_at
}

// Label renders the human-readable seat name, e.g. "A12".
func (s Seat) Label() string {
    return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
