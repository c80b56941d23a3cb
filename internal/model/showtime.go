package model

import "time"

// Showtime schedules a movie in a hall.  For the reservation engine a
// showtime is immutable: only its pricing information is read when a
// set of held seats is promoted into a booking.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being shown.
//  HallID         – hall in which the showtime runs.
//  StartsAt       – scheduled start time (UTC).
//  BasePriceCents – default price for any seat without an override.
//  PriceOverrides – per seat_type price overrides in cents.
type Showtime struct {
    ID             uint64            // showtimes.id
    MovieID        uint64            // showtimes.movie_id
    HallID         uint64            // showtimes.hall_id
    StartsAt       time.Time         // showtimes.starts_at
    BasePriceCents uint32            // showtimes.base_price_cents
    PriceOverrides map[string]uint32 // showtime_prices rows keyed by seat_type
}

// PriceFor returns the price in cents for a seat of the given type,
// falling back to the base price when no override exists.
func (s Showtime) PriceFor(seatType string) uint32 {
    if p, ok := s.PriceOverrides[seatType]; ok {
        return p
    }
    return s.BasePriceCents
}
