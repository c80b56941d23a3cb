package config_test

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/cinelive/reservation-engine/internal/config"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
    for _, key := range []string{
        "RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
        "RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
        "RATE_LIMIT_PREFIX", "RATE_LIMIT_BURST", "RATE_LIMIT_REFILL_EVERY",
    } {
        t.Setenv(key, "")
    }

    cfg := config.LoadRateLimitConfig()

    assert.True(t, cfg.Enabled)
    assert.Equal(t, 60, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, time.Second, cfg.RefillInterval)
    assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
    assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadRateLimitConfigBurstShorthand(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "100")
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")

    cfg := config.LoadRateLimitConfig()

    assert.Equal(t, 5, cfg.Capacity, "burst shorthand overrides capacity")
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RefillInterval)
}

func TestLoadRateLimitConfigClampsInvalidValues(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")

    cfg := config.LoadRateLimitConfig()

    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 50*time.Second, cfg.TTL, "TTL is floored so an idle bucket cannot reset mid-refill")
}
