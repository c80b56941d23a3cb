package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time parses the duration tunables
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  The hold TTL, sweep
// interval and the promoter's price fallback (base price when no
// per-seat-type override exists) are the only tunables the engine
// itself needs; the rest wire up its collaborators.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    DBUser        string        // database username
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    JWTSecret     string        // secret used to verify upstream-issued JWTs
    HoldTTL       time.Duration // how long a seat hold lives without renewal
    SweepInterval time.Duration // how often the expiry sweeper scans the registry
    RoomBuffer    int           // per-viewer outbound event buffer size
    Currency      string        // ISO currency code handed to the payment provider
    PaymentDriver string        // "stripe" or "mock"
    StripeKey     string        // stripe secret key (required for the stripe driver)
    StripeWebhook string        // stripe webhook signing secret (required for the stripe driver)
    WebhookSecret string        // shared secret mock-driver callbacks must present
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"), // empty allowed
        DBHost:        must("DB_HOST"),
        DBPort:        must("DB_PORT"),
        DBName:        must("DB_NAME"),
        JWTSecret:     must("JWT_SECRET"),
        HoldTTL:       envDur("HOLD_TTL", 5*time.Minute),
        SweepInterval: envDur("HOLD_SWEEP_INTERVAL", 10*time.Second),
        RoomBuffer:    envInt("ROOM_BUFFER", 32),
        Currency:      envStr("PAYMENT_CURRENCY", "usd"),
        PaymentDriver: envStr("PAYMENT_DRIVER", "mock"),
        StripeKey:     os.Getenv("STRIPE_SECRET_KEY"),
        StripeWebhook: os.Getenv("STRIPE_WEBHOOK_SECRET"),
        WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
    }
    if cfg.PaymentDriver == "stripe" && (cfg.StripeKey == "" || cfg.StripeWebhook == "") {
        log.Fatal("PAYMENT_DRIVER=stripe requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET")
    }
    if cfg.HoldTTL <= 0 {
        log.Fatalf("HOLD_TTL must be positive, got %s", cfg.HoldTTL)
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
