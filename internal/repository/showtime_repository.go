package repository

import (
    "context"
    "database/sql"

    "github.com/cinelive/reservation-engine/internal/model"
)

// ShowtimeRepo provides read access to showtimes and their per-type
// price overrides.  Showtimes are immutable for the purposes of the
// reservation engine.
type ShowtimeRepo struct {
    db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo given a DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

// GetByID loads a showtime together with its price overrides.  It
// returns ErrShowtimeNotFound when the id does not exist.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
    const q = `SELECT id, movie_id, hall_id, starts_at, base_price_cents
               FROM showtimes WHERE id = ?`
    var st model.Showtime
    err := r.db.QueryRowContext(ctx, q, id).Scan(&st.ID, &st.MovieID, &st.HallID, &st.StartsAt, &st.BasePriceCents)
    if err == sql.ErrNoRows {
        return nil, ErrShowtimeNotFound
    }
    if err != nil {
        return nil, err
    }

    const qp = `SELECT seat_type, price_cents FROM showtime_prices WHERE showtime_id = ?`
    rows, err := r.db.QueryContext(ctx, qp, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    st.PriceOverrides = make(map[string]uint32)
    for rows.Next() {
        var seatType string
        var price uint32
        if err := rows.Scan(&seatType, &price); err != nil {
            return nil, err
        }
        st.PriceOverrides[seatType] = price
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &st, nil
}
