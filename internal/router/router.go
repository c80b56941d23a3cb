package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/cinelive/reservation-engine/internal/config"
    "github.com/cinelive/reservation-engine/internal/handler"
    "github.com/cinelive/reservation-engine/internal/middleware"
)

// Handlers bundles every handler the engine serves so the caller
// wires them once and registration stays in a single place.
type Handlers struct {
    Live    *handler.LiveHandler
    Booking *handler.BookingHandler
    Admin   *handler.AdminHandler
    Webhook *handler.WebhookHandler
}

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  The health check is used by load
// balancers, the seat snapshot is public so guests can browse a
// showtime before signing in, and the webhook is called by the
// payment provider, which authenticates with its callback signature
// inside the handler rather than a JWT.
func RegisterRoutes(e *echo.Echo, h Handlers) {
    e.GET("/healthz", handler.Health)
    e.GET("/v1/showtimes/:id/seats", h.Booking.GetSeatStatus)
    e.POST("/v1/payments/webhook", h.Webhook.PaymentOutcome)
}

// RegisterLive registers the authenticated customer surface: the
// websocket session plus its plain-HTTP fallback.  The rate limiter
// guards the write endpoints; the websocket itself is exempt because
// one long-lived connection is the cheap path.
func RegisterLive(e *echo.Echo, h Handlers, jwtSecret string, rateCfg config.RateLimitConfig, rdb *redis.Client) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))

    auth.GET("/showtimes/:id/live", h.Live.Live)

    limited := auth.Group("")
    limited.Use(middleware.NewTokenBucket(rateCfg, rdb))
    limited.POST("/showtimes/:id/hold", h.Booking.HoldSeats)
    limited.DELETE("/showtimes/:id/hold", h.Booking.ReleaseHolds)
    limited.POST("/showtimes/:id/book", h.Booking.BookSeats)
    limited.POST("/payments/:id/cancel", h.Booking.CancelPayment)
}

// RegisterAdmin registers the operational surface under /v1/admin.
// Every route requires a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
    admin := e.Group("/v1/admin")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole("ADMIN"))

    admin.GET("/showtimes/:id/viewers", h.Admin.Viewers)
    admin.GET("/showtimes/:id/holds", h.Admin.Holds)
    admin.DELETE("/showtimes/:id/holds/:seatID", h.Admin.ForceRelease)
    admin.DELETE("/showtimes/:id/holds", h.Admin.ReleaseUserHolds)
}
