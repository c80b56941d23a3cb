package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinelive/reservation-engine/internal/hold"
    "github.com/cinelive/reservation-engine/internal/room"
)

// AdminHandler exposes the operational surface: inspect a showtime's
// live viewers and active holds, and force-release holds that are
// blocking legitimate customers (abandoned sessions, support cases).
type AdminHandler struct {
    Registry    *hold.Registry
    Broadcaster *room.Broadcaster
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(registry *hold.Registry, broadcaster *room.Broadcaster) *AdminHandler {
    if registry == nil || broadcaster == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Registry: registry, Broadcaster: broadcaster}
}

// holdInfo is the admin view of one active hold.
type holdInfo struct {
    SeatID           uint64 `json:"seat_id"`
    UserID           uint64 `json:"user_id"`
    AcquiredAt       string `json:"acquired_at"`
    ExpiresAt        string `json:"expires_at"`
    RemainingSeconds int64  `json:"remaining_seconds"`
}

// Viewers handles GET /v1/admin/showtimes/:id/viewers.
func (h *AdminHandler) Viewers(c echo.Context) error {
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "showtime_id": showtimeID,
        "viewers":     h.Broadcaster.ViewerCount(showtimeID),
    })
}

// Holds handles GET /v1/admin/showtimes/:id/holds.  It lists every
// active hold on the showtime with its owner and remaining TTL.
func (h *AdminHandler) Holds(c echo.Context) error {
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    now := time.Now()
    holds := h.Registry.HoldsForShowtime(showtimeID)
    out := make([]holdInfo, 0, len(holds))
    for seatID, hd := range holds {
        out = append(out, holdInfo{
            SeatID:           seatID,
            UserID:           hd.OwnerID,
            AcquiredAt:       hd.AcquiredAt.UTC().Format(time.RFC3339),
            ExpiresAt:        hd.Deadline.UTC().Format(time.RFC3339),
            RemainingSeconds: int64(hd.Remaining(now).Seconds()),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "showtime_id": showtimeID,
        "holds":       out,
    })
}

// ForceRelease handles DELETE /v1/admin/showtimes/:id/holds/:seatID.
// The release is broadcast to the room like any other, so viewers see
// the seat turn available immediately.
func (h *AdminHandler) ForceRelease(c echo.Context) error {
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    seatID, err := pathID(c, "seatID")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    if !h.Registry.ForceRelease(showtimeID, seatID) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active hold on seat"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ReleaseUserHolds handles DELETE /v1/admin/showtimes/:id/holds?user=N.
// It drops every hold the given user has on the showtime.
func (h *AdminHandler) ReleaseUserHolds(c echo.Context) error {
    showtimeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    userID, err := strconv.ParseUint(c.QueryParam("user"), 10, 64)
    if err != nil || userID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user query parameter is required"})
    }
    released := h.Registry.ReleaseAllByOwner(showtimeID, userID)
    return c.JSON(http.StatusOK, echo.Map{
        "released_seats": released,
    })
}
