package model

import "time"

// Payment statuses.
const (
    PaymentPending   = "PENDING"
    PaymentCompleted = "COMPLETED"
    PaymentFailed    = "FAILED"
)

// Payment aggregates the tickets of one booking attempt.  It is
// created PENDING when held seats are promoted, moves to COMPLETED
// when the provider reports success (idempotent on the provider's
// transaction id), and is deleted together with its tickets when a
// PENDING booking is cancelled.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who initiated the booking.
//  AmountCents – total amount in cents across all tickets.
//  Status      – PENDING, COMPLETED or FAILED.
//  Method      – payment method chosen by the client.
//  Reference   – opaque reference handed to the payment provider.
//  ProviderTxn – provider transaction id, set on completion.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Payment struct {
    ID          uint64    // payments.id
    UserID      uint64    // payments.user_id
    AmountCents uint32    // payments.amount_cents
    Status      string    // payments.status
    Method      string    // payments.method
    Reference   string    // payments.reference
    ProviderTxn *string   // payments.provider_txn (nullable)
    CreatedAt   time.Time // payments.created_at
    UpdatedAt   time.Time // payments.updated_at
}
