package handler

import (
    "context"
    "errors"
    "io"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cinelive/reservation-engine/internal/payment"
    "github.com/cinelive/reservation-engine/internal/repository"
)

// Provider callbacks are small JSON bodies; cap them hard.
const maxCallbackBody = 64 << 10

// PaymentSettler settles a pending payment either way.  The booking
// promoter satisfies this.
type PaymentSettler interface {
    Complete(ctx context.Context, paymentID uint64, providerTxn string) error
    FailPayment(ctx context.Context, paymentID uint64) error
}

// WebhookHandler receives the payment provider's asynchronous outcome
// callbacks.  Every callback is authenticated by the gateway before
// anything is settled: success marks the payment COMPLETED, failure
// un-books the seats so they go back on sale.  FailPayment skips the
// owner check, so signature verification is the only thing standing
// between an anonymous caller and another user's booking.
type WebhookHandler struct {
    Settler PaymentSettler
    Gateway payment.Gateway
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(settler PaymentSettler, gw payment.Gateway) *WebhookHandler {
    if settler == nil || gw == nil {
        panic("nil dependency passed to NewWebhookHandler")
    }
    return &WebhookHandler{Settler: settler, Gateway: gw}
}

// PaymentOutcome handles POST /v1/payments/webhook.  The raw body and
// signature header go to the gateway for verification; an unsigned or
// tampered callback never reaches the settling path.  Replays are
// safe: completing with the same transaction id twice is a no-op, and
// failing an already-settled payment returns conflict.
func (h *WebhookHandler) PaymentOutcome(c echo.Context) error {
    payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxCallbackBody))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
    }
    signature := c.Request().Header.Get("Stripe-Signature")
    if signature == "" {
        signature = c.Request().Header.Get("X-Webhook-Signature")
    }
    if signature == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing signature header"})
    }

    ev, err := h.Gateway.VerifyCallback(payload, signature)
    if err != nil {
        if errors.Is(err, payment.ErrCallbackIgnored) {
            return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
        }
        log.Printf("webhook: rejected callback: %v", err)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
    }

    ctx := c.Request().Context()
    if ev.Succeeded {
        if err := h.Settler.Complete(ctx, ev.PaymentID, ev.TransactionID); err != nil {
            return h.settleError(c, ev.PaymentID, err)
        }
    } else {
        if err := h.Settler.FailPayment(ctx, ev.PaymentID); err != nil {
            return h.settleError(c, ev.PaymentID, err)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "processed"})
}

func (h *WebhookHandler) settleError(c echo.Context, paymentID uint64, err error) error {
    switch {
    case errors.Is(err, repository.ErrPaymentNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "payment already settled"})
    }
    log.Printf("webhook: settling payment %d failed: %v", paymentID, err)
    return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
}
