package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/config"
	"github.com/iliyamo/community-reservations/internal/database"
	"github.com/iliyamo/community-reservations/internal/handler"
	"github.com/iliyamo/community-reservations/internal/logging"
	"github.com/iliyamo/community-reservations/internal/middleware"
	"github.com/iliyamo/community-reservations/internal/queue"
	"github.com/iliyamo/community-reservations/internal/repository"
	"github.com/iliyamo/community-reservations/internal/router"
	"github.com/iliyamo/community-reservations/internal/service"
	"github.com/iliyamo/community-reservations/internal/validation"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load()

	log := logging.New(os.Stdout, logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		areas  service.AreaStore
		ledger service.BookingLedger
		ping   func(context.Context) error
	)
	switch cfg.Store {
	case "memory":
		mem := repository.NewMemoryStore(nil)
		if err := mem.Seed(ctx, repository.DefaultAreas()); err != nil {
			log.Error("seed", "err", err)
			os.Exit(1)
		}
		areas, ledger = mem, mem
		log.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := openMySQL(ctx, cfg)
		if err != nil {
			log.Error("database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		areas, ledger, ping = repository.NewAreaRepo(db), repository.NewBookingRepo(db), db.PingContext
	}

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.RabbitMQURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitMQURL, log)
		consumer := &queue.Consumer{URL: cfg.RabbitMQURL, LogDir: "logs", Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", "err", err)
			}
		}()
	}

	catalog := service.NewCatalog(areas, log)
	flow := service.NewReservations(service.Deps{
		Areas:    areas,
		Ledger:   ledger,
		Payments: service.OfflineGateway{},
		Notifier: notifier,
		Policy:   availability.Policy{PendingTTL: cfg.Booking.PendingTTL},
		Clock:    service.Clock{Location: cfg.Booking.Location},
		Logger:   log,
	})
	flow.LegacyWindowDays = cfg.Booking.LegacyWindowDays
	go flow.RunSweeper(ctx, cfg.Booking.SweepInterval)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(cfg.Cache, rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.Echo{}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			log.Info("request", attrs...)
			return nil
		},
	}))
	router.RegisterRoutes(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Areas:        handler.NewAreaHandler(catalog, flow, cache, log),
		Reservations: handler.NewReservationHandler(flow, log),
		Health:       handler.Health(ping),
		RateLimit:    middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		Cache:        cache.Middleware(),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.Store, "tz", cfg.Booking.Location.String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func openMySQL(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
