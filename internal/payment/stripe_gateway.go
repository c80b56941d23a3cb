package payment

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strconv"

    "github.com/stripe/stripe-go/v82"
    "github.com/stripe/stripe-go/v82/paymentintent"
    "github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Gateway on top of Stripe PaymentIntents.
type StripeGateway struct {
    webhookSecret string
}

// NewStripeGateway configures the global Stripe client.  Both secrets
// are required: without the webhook secret no callback could ever be
// verified, which would strand every payment in PENDING.
func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
    if secretKey == "" {
        return nil, errors.New("stripe secret key is required")
    }
    if webhookSecret == "" {
        return nil, errors.New("stripe webhook secret is required")
    }
    stripe.Key = secretKey
    return &StripeGateway{webhookSecret: webhookSecret}, nil
}

// CreateIntent creates a PaymentIntent for the pending payment and
// returns its client secret for the browser-side confirmation flow.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
    params := &stripe.PaymentIntentParams{
        Amount:   stripe.Int64(int64(req.AmountCents)),
        Currency: stripe.String(req.Currency),
        AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
            Enabled: stripe.Bool(true),
        },
        Metadata: map[string]string{
            "payment_id":        strconv.FormatUint(req.PaymentID, 10),
            "payment_reference": req.Reference,
        },
    }
    if req.Description != "" {
        params.Description = stripe.String(req.Description)
    }
    params.Context = ctx

    pi, err := paymentintent.New(params)
    if err != nil {
        return nil, fmt.Errorf("create payment intent: %w", err)
    }
    return &Intent{
        ProviderID:   pi.ID,
        ClientSecret: pi.ClientSecret,
        Status:       string(pi.Status),
    }, nil
}

// VerifyCallback authenticates a Stripe webhook body against the
// Stripe-Signature header and maps the event onto a settling outcome.
// The payment is correlated through the payment_id metadata attached
// at intent creation; event types the engine does not settle on are
// reported as ErrCallbackIgnored so callers can acknowledge them.
func (g *StripeGateway) VerifyCallback(payload []byte, signature string) (*CallbackEvent, error) {
    ev, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
    if err != nil {
        return nil, fmt.Errorf("verify webhook signature: %w", err)
    }

    switch ev.Type {
    case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
    default:
        return nil, ErrCallbackIgnored
    }

    var pi stripe.PaymentIntent
    if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
        return nil, fmt.Errorf("decode payment intent: %w", err)
    }
    paymentID, err := strconv.ParseUint(pi.Metadata["payment_id"], 10, 64)
    if err != nil || paymentID == 0 {
        return nil, errors.New("callback carries no payment_id metadata")
    }
    return &CallbackEvent{
        PaymentID:     paymentID,
        TransactionID: pi.ID,
        Succeeded:     ev.Type == "payment_intent.succeeded",
    }, nil
}

// Name returns the gateway name.
func (g *StripeGateway) Name() string { return "stripe" }
