package handler

import (
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cinelive/reservation-engine/internal/booking"
    "github.com/cinelive/reservation-engine/internal/hold"
    "github.com/cinelive/reservation-engine/internal/payment"
    "github.com/cinelive/reservation-engine/internal/repository"
)

// BookingHandler exposes the engine's operations over plain HTTP for
// clients that cannot hold a websocket open.  The semantics are
// identical to the live connection: the same registry grants holds,
// the same promoter books, and every state change is still broadcast
// to the showtime's viewers.
type BookingHandler struct {
    Registry *hold.Registry
    Promoter *booking.Promoter
    Status   *booking.StatusService
    Gateway  payment.Gateway
    Currency string
}

// NewBookingHandler constructs a BookingHandler with non-nil deps.
func NewBookingHandler(registry *hold.Registry, promoter *booking.Promoter, status *booking.StatusService, gw payment.Gateway, currency string) *BookingHandler {
    if registry == nil || promoter == nil || status == nil || gw == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Registry: registry, Promoter: promoter, Status: status, Gateway: gw, Currency: currency}
}

// HoldSeats handles POST /v1/showtimes/:id/hold.  The body carries a
// "seat_ids" array; each seat is acquired independently and the
// response reports which were granted and which were denied with the
// denial reason.  Granted seats expire after the configured TTL
// unless released, re-acquired or booked.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    var body struct {
        SeatIDs []uint64 `json:"seat_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.SeatIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
    }

    ctx := c.Request().Context()
    granted := make([]uint64, 0, len(body.SeatIDs))
    denied := make(map[string][]uint64)
    for _, sid := range body.SeatIDs {
        if sid == 0 {
            continue
        }
        res, err := h.Registry.TryAcquire(ctx, showtimeID, sid, userID)
        if err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
        }
        switch res {
        case hold.Granted:
            granted = append(granted, sid)
        case hold.DeniedBooked:
            denied["already-booked"] = append(denied["already-booked"], sid)
        case hold.DeniedHeldByOther:
            denied["held-by-other"] = append(denied["held-by-other"], sid)
        }
    }
    status := http.StatusCreated
    if len(granted) == 0 {
        status = http.StatusConflict
    }
    return c.JSON(status, echo.Map{
        "granted":     granted,
        "denied":      denied,
        "ttl_seconds": int(h.Registry.TTL().Seconds()),
    })
}

// ReleaseHolds handles DELETE /v1/showtimes/:id/hold.  It releases
// every hold the current user has on the showtime and reports how
// many seats were released.
func (h *BookingHandler) ReleaseHolds(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    released := h.Registry.ReleaseAllByOwner(showtimeID, userID)
    return c.JSON(http.StatusOK, echo.Map{"released": len(released)})
}

// BookSeats handles POST /v1/showtimes/:id/book.  It promotes the
// user's held seats into booked tickets and returns the payment
// payload for the provider checkout.  A rejected promotion returns
// 409 with the reason and the conflicting seats; nothing was written
// in that case.
func (h *BookingHandler) BookSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    var body struct {
        SeatIDs       []uint64 `json:"seat_ids"`
        PaymentMethod string   `json:"payment_method"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.SeatIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
    }

    ctx := c.Request().Context()
    res, err := h.Promoter.Promote(ctx, showtimeID, body.SeatIDs, userID, body.PaymentMethod)
    if err != nil {
        if errors.Is(err, repository.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    }
    if !res.Booked {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":             res.Reason,
            "conflicting_seats": res.Conflicting,
        })
    }

    resp := echo.Map{
        "ticket_ids":         res.TicketIDs,
        "payment_id":         res.PaymentID,
        "payment_reference":  res.Reference,
        "total_amount_cents": res.TotalCents,
    }
    intent, err := h.Gateway.CreateIntent(ctx, payment.IntentRequest{
        PaymentID:   res.PaymentID,
        Reference:   res.Reference,
        AmountCents: res.TotalCents,
        Currency:    h.Currency,
    })
    if err != nil {
        log.Printf("booking: payment intent failed for payment %d: %v", res.PaymentID, err)
    } else {
        resp["client_secret"] = intent.ClientSecret
        if intent.CheckoutURL != "" {
            resp["checkout_url"] = intent.CheckoutURL
        }
    }
    return c.JSON(http.StatusCreated, resp)
}

// CancelPayment handles POST /v1/payments/:id/cancel.  Only the
// payment's owner may cancel, and only while it is PENDING; the
// payment and its tickets are removed atomically and the seats'
// release is broadcast.
func (h *BookingHandler) CancelPayment(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    paymentID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
    }
    if err := h.Promoter.Cancel(c.Request().Context(), paymentID, userID); err != nil {
        switch {
        case errors.Is(err, repository.ErrPaymentNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "payment not cancellable"})
        }
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetSeatStatus handles GET /v1/showtimes/:id/seats.  It returns the
// full seat snapshot for the showtime: the hall's seats joined
// against booked tickets and active holds at call time.
func (h *BookingHandler) GetSeatStatus(c echo.Context) error {
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    seats, err := h.Status.Snapshot(c.Request().Context(), showtimeID)
    if err != nil {
        if errors.Is(err, repository.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}
