// Package repository provides hand-written SQL data access to the
// durable seat catalog store: seats, showtimes, tickets and payments.
// Sentinel error values let handlers distinguish failure scenarios
// with errors.Is without inspecting driver-specific errors.
package repository

import (
    "errors"
    "fmt"
)

// ErrShowtimeNotFound is returned when a showtime id does not exist.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrPaymentNotFound is returned when a payment id does not exist.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, e.g. cancelling another user's payment.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as cancelling a COMPLETED payment.
var ErrConflict = errors.New("conflict")

// SeatConflictError reports that durable BOOKED tickets already exist
// for some of the requested seats.  It aborts the whole booking: no
// ticket or payment row is written for any seat in the request.
type SeatConflictError struct {
    SeatIDs []uint64
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("seats already booked: %v", e.SeatIDs)
}
