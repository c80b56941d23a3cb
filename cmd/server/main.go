package main // Entry point package

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/cinelive/reservation-engine/internal/booking"
    "github.com/cinelive/reservation-engine/internal/config"
    "github.com/cinelive/reservation-engine/internal/database"
    "github.com/cinelive/reservation-engine/internal/handler"
    "github.com/cinelive/reservation-engine/internal/hold"
    "github.com/cinelive/reservation-engine/internal/payment"
    "github.com/cinelive/reservation-engine/internal/queue"
    "github.com/cinelive/reservation-engine/internal/repository"
    "github.com/cinelive/reservation-engine/internal/room"
    "github.com/cinelive/reservation-engine/internal/router"
    queue_publisher "github.com/cinelive/reservation-engine/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting disabled")
    }

    seatRepo := repository.NewSeatRepo(db)
    showtimeRepo := repository.NewShowtimeRepo(db)
    ticketRepo := repository.NewTicketRepo(db)

    broadcaster := room.NewBroadcaster()
    registry := hold.NewRegistry(ticketRepo, broadcaster, cfg.HoldTTL)
    sweeper := hold.NewSweeper(registry, cfg.SweepInterval)

    status := booking.NewStatusService(showtimeRepo, seatRepo, ticketRepo, registry)
    promoter := booking.NewPromoter(registry, ticketRepo, showtimeRepo, seatRepo, broadcaster,
        queue_publisher.PublishBookingConfirmed)

    var gateway payment.Gateway
    switch cfg.PaymentDriver {
    case "stripe":
        gateway, err = payment.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhook)
        if err != nil {
            log.Fatalf("stripe gateway: %v", err)
        }
    default:
        if cfg.WebhookSecret == "" {
            log.Println("WEBHOOK_SECRET unset; mock gateway will reject all callbacks")
        }
        gateway = payment.NewMockGateway(cfg.WebhookSecret, 0)
    }
    log.Printf("payment gateway: %s", gateway.Name())

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    go sweeper.Run(ctx)
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true

    h := router.Handlers{
        Live:    handler.NewLiveHandler(registry, broadcaster, status, promoter, gateway, cfg.Currency, cfg.RoomBuffer),
        Booking: handler.NewBookingHandler(registry, promoter, status, gateway, cfg.Currency),
        Admin:   handler.NewAdminHandler(registry, broadcaster),
        Webhook: handler.NewWebhookHandler(promoter, gateway),
    }
    router.RegisterRoutes(e, h)
    router.RegisterLive(e, h, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
    router.RegisterAdmin(e, h, cfg.JWTSecret)

    go func() {
        addr := ":" + cfg.Port
        log.Printf("listening on %s (env=%s, hold_ttl=%s)", addr, cfg.Env, cfg.HoldTTL)
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    log.Println("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
