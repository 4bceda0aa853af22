package config

import (
	"testing"
	"time"
)

func TestLoadMemoryStoreSkipsDatabase(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE", "memory")
	t.Setenv("TZ", "UTC")
	t.Setenv("BOOKING_PENDING_TTL", "2h")

	cfg := Load()
	if cfg.Store != "memory" || cfg.DBHost != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Booking.PendingTTL != 2*time.Hour || cfg.Booking.Location != time.UTC {
		t.Fatalf("booking = %+v", cfg.Booking)
	}
	if cfg.Booking.LegacyWindowDays != 7 {
		t.Fatalf("legacy window = %d", cfg.Booking.LegacyWindowDays)
	}
}

func TestRateLimitFloors(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	if c.Capacity != 1 {
		t.Errorf("capacity = %d, want 1", c.Capacity)
	}
	if c.TTL != 10*time.Second {
		t.Errorf("ttl = %v, want 10s", c.TTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	if envBool("X_BOOL", true) {
		t.Error("envBool(off) = true")
	}
	if envInt("X_INT", 3) != 3 {
		t.Error("envInt fallback ignored")
	}
	if envDur("X_DUR", 0) != 90*time.Second {
		t.Error("envDur did not parse")
	}
	if m := parseMethods("get, head,"); !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Errorf("parseMethods = %v", m)
	}
}
