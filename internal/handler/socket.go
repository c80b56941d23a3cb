package handler

import (
    "context"
    "log"
    "net/http"
    "sync"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/cinelive/reservation-engine/internal/booking"
    "github.com/cinelive/reservation-engine/internal/hold"
    "github.com/cinelive/reservation-engine/internal/model"
    "github.com/cinelive/reservation-engine/internal/payment"
    "github.com/cinelive/reservation-engine/internal/room"
)

const (
    // Time allowed to write one message to the peer.
    writeWait = 10 * time.Second
    // Time allowed between pongs before the connection is dropped.
    pongWait = 60 * time.Second
    // Ping period; must be shorter than pongWait.
    pingPeriod = (pongWait * 9) / 10
    // Inbound messages are tiny control frames; cap them hard.
    maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    // Origin checking is the reverse proxy's job in this deployment.
    CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler upgrades viewer connections and relays their requests
// into the engine: holds into the registry, bookings into the
// promoter, snapshots out of the status service.  One goroutine per
// connection reads, one writes; the write side is fed by the buffered
// send channel the room broadcaster publishes into.
type LiveHandler struct {
    Registry    *hold.Registry
    Broadcaster *room.Broadcaster
    Status      *booking.StatusService
    Promoter    *booking.Promoter
    Gateway     payment.Gateway
    Currency    string
    SendBuffer  int
}

// NewLiveHandler constructs a LiveHandler.  All dependencies must be
// non-nil.
func NewLiveHandler(registry *hold.Registry, broadcaster *room.Broadcaster, status *booking.StatusService, promoter *booking.Promoter, gw payment.Gateway, currency string, sendBuffer int) *LiveHandler {
    if registry == nil || broadcaster == nil || status == nil || promoter == nil || gw == nil {
        panic("nil dependency passed to NewLiveHandler")
    }
    if sendBuffer <= 0 {
        sendBuffer = 32
    }
    return &LiveHandler{
        Registry:    registry,
        Broadcaster: broadcaster,
        Status:      status,
        Promoter:    promoter,
        Gateway:     gw,
        Currency:    currency,
        SendBuffer:  sendBuffer,
    }
}

// wsClient is one live viewer connection.  It implements room.Viewer:
// Deliver pushes into the buffered send channel without blocking and
// reports false when the viewer cannot keep up, at which point the
// broadcaster detaches it.
type wsClient struct {
    conn       *websocket.Conn
    send       chan model.Event
    done       chan struct{}
    closeOnce  sync.Once
    userID     uint64
    showtimeID uint64
}

// Deliver implements room.Viewer.
func (c *wsClient) Deliver(ev model.Event) bool {
    select {
    case <-c.done:
        return false
    case c.send <- ev:
        return true
    default:
        return false
    }
}

// Close implements room.Viewer.  The send channel is never closed so
// a racing Deliver can never panic; writePump exits via done.
func (c *wsClient) Close() {
    c.closeOnce.Do(func() { close(c.done) })
}

// Live handles GET /v1/showtimes/:id/live.  It authenticates via the
// JWT middleware, upgrades to a websocket and serves the viewer until
// either side disconnects.  Holds owned by the user are NOT released
// on disconnect; the TTL covers a browser refresh.
func (h *LiveHandler) Live(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }

    conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        return err // Upgrade already wrote the HTTP error
    }
    client := &wsClient{
        conn:       conn,
        send:       make(chan model.Event, h.SendBuffer),
        done:       make(chan struct{}),
        userID:     userID,
        showtimeID: showtimeID,
    }

    go client.writePump()
    h.readPump(c.Request().Context(), client)
    return nil
}

// readPump decodes inbound events and dispatches them until the
// connection dies.  It runs on the handler goroutine so the request
// context stays alive for the duration of the session.
func (h *LiveHandler) readPump(ctx context.Context, c *wsClient) {
    defer func() {
        h.Broadcaster.Leave(c.showtimeID, c)
        c.Close()
        _ = c.conn.Close()
    }()

    c.conn.SetReadLimit(maxMessageSize)
    _ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
    c.conn.SetPongHandler(func(string) error {
        return c.conn.SetReadDeadline(time.Now().Add(pongWait))
    })

    for {
        var ev inboundEvent
        if err := c.conn.ReadJSON(&ev); err != nil {
            return
        }
        h.dispatch(ctx, c, ev)
    }
}

// dispatch routes one inbound event.  Every kind is handled
// explicitly; per-request failures go back to the requester only and
// never through the room.
func (h *LiveHandler) dispatch(ctx context.Context, c *wsClient, ev inboundEvent) {
    switch ev.kind() {
    case kindJoinShowtime:
        h.Broadcaster.Join(c.showtimeID, c)
        h.pushSnapshot(ctx, c)

    case kindLeaveShowtime:
        h.Broadcaster.Leave(c.showtimeID, c)

    case kindGetSeatStatus:
        h.pushSnapshot(ctx, c)

    case kindSelectSeat:
        res, err := h.Registry.TryAcquire(ctx, c.showtimeID, ev.SeatID, c.userID)
        if err != nil {
            c.Deliver(errEvent(c.showtimeID, "store-unavailable"))
            return
        }
        switch res {
        case hold.Granted:
            // the room broadcast is the acknowledgement
        case hold.DeniedBooked:
            c.Deliver(failEvent(model.EventSelectionFailed, c.showtimeID, ev.SeatID, "already-booked"))
        case hold.DeniedHeldByOther:
            c.Deliver(failEvent(model.EventSelectionFailed, c.showtimeID, ev.SeatID, "held-by-other"))
        }

    case kindDeselectSeat:
        switch h.Registry.Release(c.showtimeID, ev.SeatID, c.userID) {
        case hold.Released:
            // broadcast covers it
        case hold.NotOwner:
            c.Deliver(errEvent(c.showtimeID, "not-owner"))
        case hold.NotFound:
            c.Deliver(errEvent(c.showtimeID, "no-hold"))
        }

    case kindBookSeats:
        h.book(ctx, c, ev)

    case kindUnknown:
        c.Deliver(errEvent(c.showtimeID, "unknown-event"))
    }
}

// book promotes the viewer's held seats and, on success, prepares the
// payment provider intent the client drives next.
func (h *LiveHandler) book(ctx context.Context, c *wsClient, ev inboundEvent) {
    res, err := h.Promoter.Promote(ctx, c.showtimeID, ev.SeatIDs, c.userID, ev.PaymentMethod)
    if err != nil {
        c.Deliver(failEvent(model.EventBookingFailed, c.showtimeID, 0, "store-unavailable"))
        return
    }
    if !res.Booked {
        out := failEvent(model.EventBookingFailed, c.showtimeID, 0, res.Reason)
        out.SeatIDs = res.Conflicting
        c.Deliver(out)
        return
    }

    info := &model.BookingInfo{
        TicketIDs:   res.TicketIDs,
        PaymentID:   res.PaymentID,
        AmountCents: res.TotalCents,
    }
    intent, err := h.Gateway.CreateIntent(ctx, payment.IntentRequest{
        PaymentID:   res.PaymentID,
        Reference:   res.Reference,
        AmountCents: res.TotalCents,
        Currency:    h.Currency,
    })
    if err != nil {
        // The booking stands; the client can retry the checkout.
        log.Printf("live: payment intent failed for payment %d: %v", res.PaymentID, err)
    } else {
        info.ClientSecret = intent.ClientSecret
        info.CheckoutURL = intent.CheckoutURL
    }
    c.Deliver(model.Event{
        Type:       model.EventSeatsBooked,
        ShowtimeID: c.showtimeID,
        SeatIDs:    res.TicketIDs,
        UserID:     c.userID,
        Booking:    info,
    })
}

func (h *LiveHandler) pushSnapshot(ctx context.Context, c *wsClient) {
    seats, err := h.Status.Snapshot(ctx, c.showtimeID)
    if err != nil {
        c.Deliver(errEvent(c.showtimeID, "store-unavailable"))
        return
    }
    c.Deliver(model.Event{
        Type:       model.EventStatusUpdate,
        ShowtimeID: c.showtimeID,
        Seats:      seats,
    })
}

// writePump drains the send channel into the socket and keeps the
// connection alive with pings.
func (c *wsClient) writePump() {
    ticker := time.NewTicker(pingPeriod)
    defer func() {
        ticker.Stop()
        _ = c.conn.Close()
    }()

    for {
        select {
        case <-c.done:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            _ = c.conn.WriteMessage(websocket.CloseMessage,
                websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
            return
        case ev := <-c.send:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteJSON(ev); err != nil {
                return
            }
        case <-ticker.C:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}

func failEvent(typ string, showtimeID, seatID uint64, reason string) model.Event {
    return model.Event{Type: typ, ShowtimeID: showtimeID, SeatID: seatID, Reason: reason}
}

func errEvent(showtimeID uint64, reason string) model.Event {
    return model.Event{Type: model.EventError, ShowtimeID: showtimeID, Reason: reason}
}
