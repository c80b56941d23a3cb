package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/cinelive/reservation-engine/internal/model"
)

// SeatCharge pairs a seat with the price computed for it by the
// promoter.  One ticket row is written per charge.
type SeatCharge struct {
    SeatID     uint64
    PriceCents uint32
}

// BookingRecord describes the durable rows written by a successful
// promotion.
type BookingRecord struct {
    PaymentID  uint64
    Reference  string
    TicketIDs  []uint64
    TotalCents uint32
}

// TicketRepo owns the tickets and payments tables.  The unique key on
// tickets (showtime_id, seat_id) is the invariant the whole engine
// protects: at most one BOOKED ticket per seat per showtime.  All
// multi-row writes happen inside a single transaction using the
// begin/defer-rollback discipline.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// IsBooked reports whether a BOOKED ticket exists for the seat.  The
// hold registry consults this to fail fast before touching its map.
func (r *TicketRepo) IsBooked(ctx context.Context, showtimeID, seatID uint64) (bool, error) {
    const q = `SELECT 1 FROM tickets WHERE showtime_id = ? AND seat_id = ? AND status = 'BOOKED' LIMIT 1`
    var one int
    err := r.db.QueryRowContext(ctx, q, showtimeID, seatID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// BookedSeatIDs returns every seat with a BOOKED ticket for the
// showtime.  Used by the status snapshot.
func (r *TicketRepo) BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
    const q = `SELECT seat_id FROM tickets WHERE showtime_id = ? AND status = 'BOOKED'`
    rows, err := r.db.QueryContext(ctx, q, showtimeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seatIDs []uint64
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        seatIDs = append(seatIDs, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seatIDs, nil
}

// CreateTicketsAndPayment atomically writes one PENDING payment and
// one BOOKED ticket per charge.  Inside the same transaction it
// re-checks, with row locks, that no BOOKED ticket exists for any of
// the requested seats; this defends against a hold that is valid in
// memory but whose seat was booked through a path bypassing the
// registry.  On any conflict nothing is written and a
// *SeatConflictError lists the offending seats.
func (r *TicketRepo) CreateTicketsAndPayment(ctx context.Context, showtimeID, userID uint64, charges []SeatCharge, method string) (*BookingRecord, error) {
    if len(charges) == 0 {
        return nil, errors.New("no seats to book")
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    seatIDs := make([]uint64, 0, len(charges))
    total := uint32(0)
    for _, ch := range charges {
        seatIDs = append(seatIDs, ch.SeatID)
        total += ch.PriceCents
    }

    booked, err := bookedAmongTx(ctx, tx, showtimeID, seatIDs, true)
    if err != nil {
        return nil, err
    }
    if len(booked) > 0 {
        return nil, &SeatConflictError{SeatIDs: booked}
    }

    reference := uuid.NewString()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO payments (user_id, amount_cents, status, method, reference) VALUES (?, ?, 'PENDING', ?, ?)`,
        userID, total, method, reference,
    )
    if err != nil {
        return nil, err
    }
    paymentID, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }

    ticketIDs := make([]uint64, 0, len(charges))
    for _, ch := range charges {
        res, err := tx.ExecContext(ctx,
            `INSERT INTO tickets (showtime_id, seat_id, user_id, price_cents, payment_id, status) VALUES (?, ?, ?, ?, ?, 'BOOKED')`,
            showtimeID, ch.SeatID, userID, ch.PriceCents, paymentID,
        )
        if err != nil {
            // The unique key backs the invariant even if the locked
            // pre-check raced an insert committed in between.
            if isDuplicateKey(err) {
                return nil, &SeatConflictError{SeatIDs: []uint64{ch.SeatID}}
            }
            return nil, err
        }
        tid, err := res.LastInsertId()
        if err != nil {
            return nil, err
        }
        ticketIDs = append(ticketIDs, uint64(tid))
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &BookingRecord{
        PaymentID:  uint64(paymentID),
        Reference:  reference,
        TicketIDs:  ticketIDs,
        TotalCents: total,
    }, nil
}

// CompletePayment transitions a payment PENDING -> COMPLETED keyed by
// the provider transaction id.  Replaying the same transaction id is
// a no-op; a different id on an already COMPLETED payment is a
// conflict.
func (r *TicketRepo) CompletePayment(ctx context.Context, paymentID uint64, providerTxn string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var status string
    var txn sql.NullString
    err = tx.QueryRowContext(ctx, `SELECT status, provider_txn FROM payments WHERE id = ? FOR UPDATE`, paymentID).
        Scan(&status, &txn)
    if err == sql.ErrNoRows {
        return ErrPaymentNotFound
    }
    if err != nil {
        return err
    }
    switch status {
    case model.PaymentCompleted:
        if txn.Valid && txn.String == providerTxn {
            return nil // idempotent replay
        }
        return ErrConflict
    case model.PaymentPending:
        // fall through to the update
    default:
        return ErrConflict
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE payments SET status = 'COMPLETED', provider_txn = ? WHERE id = ?`,
        providerTxn, paymentID,
    ); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// CancelPaymentAndTickets atomically deletes a PENDING payment and
// every ticket it owns, returning the showtime and seats that were
// un-booked so the caller can republish their release.  When ownerID
// is non-nil the payment must belong to that user; the nil form is
// reserved for the provider-failure path.  COMPLETED payments are
// never cancelled.
func (r *TicketRepo) CancelPaymentAndTickets(ctx context.Context, paymentID uint64, ownerID *uint64) (uint64, []uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var status string
    var payer uint64
    err = tx.QueryRowContext(ctx, `SELECT status, user_id FROM payments WHERE id = ? FOR UPDATE`, paymentID).
        Scan(&status, &payer)
    if err == sql.ErrNoRows {
        return 0, nil, ErrPaymentNotFound
    }
    if err != nil {
        return 0, nil, err
    }
    if ownerID != nil && payer != *ownerID {
        return 0, nil, ErrForbidden
    }
    if status != model.PaymentPending {
        return 0, nil, ErrConflict
    }

    rows, err := tx.QueryContext(ctx, `SELECT showtime_id, seat_id FROM tickets WHERE payment_id = ?`, paymentID)
    if err != nil {
        return 0, nil, err
    }
    var showtimeID uint64
    var seatIDs []uint64
    for rows.Next() {
        var sid uint64
        if scanErr := rows.Scan(&showtimeID, &sid); scanErr != nil {
            rows.Close()
            return 0, nil, scanErr
        }
        seatIDs = append(seatIDs, sid)
    }
    if err = rows.Err(); err != nil {
        rows.Close()
        return 0, nil, err
    }
    if err = rows.Close(); err != nil {
        return 0, nil, err
    }

    if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE payment_id = ?`, paymentID); err != nil {
        return 0, nil, err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, paymentID); err != nil {
        return 0, nil, err
    }
    if err := tx.Commit(); err != nil {
        return 0, nil, err
    }
    committed = true
    return showtimeID, seatIDs, nil
}

// bookedAmongTx returns the subset of seatIDs that already carry a
// BOOKED ticket for the showtime.  With forUpdate the matching rows
// are locked for the remainder of the transaction.
func bookedAmongTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64, forUpdate bool) ([]uint64, error) {
    query := `SELECT seat_id FROM tickets WHERE showtime_id = ? AND status = 'BOOKED' AND seat_id IN (` +
        placeholders(len(seatIDs)) + `)`
    if forUpdate {
        query += ` FOR UPDATE`
    }
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, showtimeID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var booked []uint64
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        booked = append(booked, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return booked, nil
}

// isDuplicateKey recognises MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}
