// Package config loads application configuration from environment
// variables, optionally seeded from a .env file by the caller.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string // application environment (dev, test, prod)
	Port        string // HTTP port to listen on
	Store       string // "mysql" or "memory"
	DBUser      string
	DBPass      string // empty allowed
	DBHost      string
	DBPort      string
	DBName      string
	DBMaxConns  int
	JWTSecret   string // HS256 secret shared with the identity provider
	RabbitMQURL string // empty disables event publishing

	Booking   BookingConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
}

// BookingConfig groups the reservation rules that are not per area.
type BookingConfig struct {
	Location         *time.Location // community time zone; "today" is computed here
	PendingTTL       time.Duration  // how long an unpaid booking holds its slot
	SweepInterval    time.Duration  // how often lapsed holds are expired
	LegacyWindowDays int            // informational community-wide window
}

// LoggingConfig selects the slog level and encoding.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The MySQL settings
// are only required when STORE is mysql.
func Load() Config {
	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        must("APP_PORT"),
		Store:       strings.ToLower(envStr("STORE", "mysql")),
		JWTSecret:   must("JWT_SECRET"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		Booking:     LoadBookingConfig(),
		Logging: LoggingConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Format: envStr("LOG_FORMAT", "text"),
		},
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
		Redis:     LoadRedisConfig(),
	}
	if cfg.Store == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		cfg.DBMaxConns = envInt("DB_MAX_CONNS", 25)
	}
	return cfg
}

// LoadBookingConfig reads TZ, BOOKING_PENDING_TTL, BOOKING_SWEEP_INTERVAL
// and LEGACY_WINDOW_DAYS.
func LoadBookingConfig() BookingConfig {
	loc := time.UTC
	if name := envStr("TZ", "America/Mexico_City"); name != "" {
		l, err := time.LoadLocation(name)
		if err != nil {
			log.Fatalf("invalid TZ %q: %v", name, err)
		}
		loc = l
	}
	return BookingConfig{
		Location:         loc,
		PendingTTL:       envDur("BOOKING_PENDING_TTL", 24*time.Hour),
		SweepInterval:    envDur("BOOKING_SWEEP_INTERVAL", 5*time.Minute),
		LegacyWindowDays: envInt("LEGACY_WINDOW_DAYS", 7),
	}
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

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
