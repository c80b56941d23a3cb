package model

import "time"

// Hold is the ephemeral, single-owner claim on one seat for one
// showtime.  Holds live only in process memory: they are created by a
// successful acquire, and destroyed by explicit release, promotion
// into a booked ticket, or expiry.  Token identifies the hold
// instance so that an eviction racing a fresh re-acquire under the
// same key never removes the wrong hold.
type Hold struct {
    ShowtimeID uint64    `json:"showtime_id"`
    SeatID     uint64    `json:"seat_id"`
    OwnerID    uint64    `json:"owner_id"`
    Token      string    `json:"token"`
    AcquiredAt time.Time `json:"acquired_at"`
    Deadline   time.Time `json:"deadline"`
}

// Remaining reports how much of the hold's TTL is left at now.
// A non-positive value means the hold is due for eviction.
func (h Hold) Remaining(now time.Time) time.Duration {
    return h.Deadline.Sub(now)
}
