// Package payment abstracts the external payment provider.  The
// engine only needs two things from it: turn a pending payment into a
// client-facing checkout payload, and later map the provider's
// callback outcome onto the payment.  Everything else about the
// provider's protocol is opaque.
package payment

import (
    "context"
    "errors"
)

// ErrCallbackIgnored marks a verified callback whose event type the
// engine does not act on.  Callers acknowledge it without settling
// anything.
var ErrCallbackIgnored = errors.New("callback event ignored")

// IntentRequest asks the provider to prepare a charge for a pending
// payment.  Reference is the engine's opaque payment reference and is
// attached to the provider object as metadata for correlation.
type IntentRequest struct {
    PaymentID   uint64
    Reference   string
    AmountCents uint32
    Currency    string
    Description string
}

// Intent is the payload the client needs to drive the provider's
// checkout flow.  Depending on the provider this is a client secret,
// a redirect URL, or both.
type Intent struct {
    ProviderID   string
    ClientSecret string
    CheckoutURL  string
    Status       string
}

// CallbackEvent is a provider callback that passed signature
// verification, reduced to what the engine settles on.
type CallbackEvent struct {
    PaymentID     uint64
    TransactionID string
    Succeeded     bool
}

// Gateway is implemented per provider.  CreateIntent must not mutate
// engine state: the payment stays PENDING until the webhook reports
// an outcome.  VerifyCallback authenticates a raw callback body
// against the provider's signature before anything is settled; a
// forged or unsigned callback must never yield an event.
type Gateway interface {
    CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
    VerifyCallback(payload []byte, signature string) (*CallbackEvent, error)
    Name() string
}
