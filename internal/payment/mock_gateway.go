package payment

import (
    "context"
    "crypto/hmac"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
)

// MockGateway implements Gateway for local development and load
// testing.  It fabricates provider ids without calling out anywhere
// and can simulate provider latency.  Callbacks authenticate with a
// shared secret instead of a real provider signature.
type MockGateway struct {
    secret string
    delay  time.Duration
}

// NewMockGateway returns a mock gateway.  secret is the shared value
// callbacks must present in their signature header; delay simulates
// provider latency (zero disables it).
func NewMockGateway(secret string, delay time.Duration) *MockGateway {
    return &MockGateway{secret: secret, delay: delay}
}

// CreateIntent fabricates a checkout payload.  The checkout URL
// points nowhere real; clients drive the webhook manually in tests.
func (g *MockGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
    if g.delay > 0 {
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(g.delay):
        }
    }
    id := fmt.Sprintf("pi_mock_%s", uuid.NewString()[:8])
    return &Intent{
        ProviderID:   id,
        ClientSecret: id + "_secret_" + uuid.NewString()[:8],
        CheckoutURL:  "https://checkout.example.invalid/" + req.Reference,
        Status:       "requires_payment_method",
    }, nil
}

// mockCallback is the body shape mock callbacks carry.
type mockCallback struct {
    PaymentID     uint64 `json:"payment_id"`
    TransactionID string `json:"transaction_id"`
    Outcome       string `json:"outcome"`
}

// VerifyCallback checks the shared secret in constant time and decodes
// the body.  Without a configured secret every callback is rejected;
// the mock must never be a weaker surface than the real provider.
// Outcomes other than succeeded/failed are acknowledged but ignored.
func (g *MockGateway) VerifyCallback(payload []byte, signature string) (*CallbackEvent, error) {
    if g.secret == "" {
        return nil, errors.New("webhook secret not configured")
    }
    if !hmac.Equal([]byte(signature), []byte(g.secret)) {
        return nil, errors.New("invalid webhook signature")
    }

    var cb mockCallback
    if err := json.Unmarshal(payload, &cb); err != nil {
        return nil, fmt.Errorf("decode callback: %w", err)
    }
    if cb.PaymentID == 0 {
        return nil, errors.New("payment_id is required")
    }
    switch cb.Outcome {
    case "succeeded":
        if cb.TransactionID == "" {
            return nil, errors.New("transaction_id is required")
        }
        return &CallbackEvent{PaymentID: cb.PaymentID, TransactionID: cb.TransactionID, Succeeded: true}, nil
    case "failed":
        return &CallbackEvent{PaymentID: cb.PaymentID, Succeeded: false}, nil
    }
    return nil, ErrCallbackIgnored
}

// Name returns the gateway name.
func (g *MockGateway) Name() string { return "mock" }
