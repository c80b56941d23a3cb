package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/cinelive/reservation-engine/internal/model"
)

// SeatRepo encapsulates database operations for seats.  The engine
// only ever reads seats: the catalog that creates them is an external
// collaborator.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ListByHall returns every active seat of a hall ordered by row and
// number, the way a seating map is rendered.
func (r *SeatRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
    const q = `SELECT id, hall_id, row_label, seat_number, seat_type, is_active, created_at
               FROM seats
               WHERE hall_id = ? AND is_active = 1
               ORDER BY row_label, seat_number`
    rows, err := r.db.QueryContext(ctx, q, hallID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.IsActive, &s.CreatedAt); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// GetByIDs loads the given seats.  Missing ids are simply absent from
// the result; callers compare lengths when that matters.
func (r *SeatRepo) GetByIDs(ctx context.Context, seatIDs []uint64) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return []model.Seat{}, nil
    }
    query := `SELECT id, hall_id, row_label, seat_number, seat_type, is_active, created_at
              FROM seats WHERE id IN (` + placeholders(len(seatIDs)) + `)`
    args := make([]interface{}, 0, len(seatIDs))
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.IsActive, &s.CreatedAt); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// placeholders renders "?, ?, ?" for an IN clause with n values.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.Repeat("?, ", n-1) + "?"
}
