package main // Entry point package

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/backend/rest"
	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/catalog"
	"github.com/iliyamo/cinema-box-office/internal/clock"
	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/database"
	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
	"github.com/iliyamo/cinema-box-office/internal/presence"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/iliyamo/cinema-box-office/internal/router"
	"github.com/iliyamo/cinema-box-office/internal/store"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	clk := clock.NewRealClock()
	checks := map[string]handler.Check{}

	// Backend adapter: the cinema REST API or the cinema schema directly.
	var be backend.Backend
	switch cfg.Backend.Mode {
	case config.BackendMySQL:
		db, err := database.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		checks["mysql"] = db.PingContext
		be = repository.NewStore(db, clk, log)
	default:
		be = rest.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, cfg.Backend.Retries, log)
	}
	log.Info("cinema backend selected", zap.String("mode", cfg.Backend.Mode))

	// Redis is optional; every consumer degrades when it is missing.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("redis unavailable: rate limiting, catalog cache and shared draft guard disabled")
	}

	var cache *catalog.Cache
	if cfg.Catalog.Enabled && rdb != nil {
		cache = catalog.NewCache(rdb, cfg.Catalog.TTL, cfg.Catalog.Prefix)
	}
	loader := catalog.NewLoader(be, cache, cfg.Catalog.PageSize, log)

	events := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.HoldQueue, log)
	defer func() { _ = events.Close() }()
	if !events.Enabled() {
		log.Warn("AMQP_URL not set, hold events are dropped")
	}

	var drafts *booking.DraftCoordinator
	if rdb != nil {
		drafts = booking.NewDraftCoordinator(be, store.NewRedisDraftStore(rdb, "cbo:draft", cfg.Booking.DraftGuardTTL), log)
	} else {
		drafts = booking.NewDraftCoordinator(be, booking.NewMemoryDraftStore(), log)
	}
	drafts.OnCreated = booking.DraftEvents(events, clk, log)

	var hub *presence.Hub
	if cfg.Presence.Enabled {
		opts := presence.Options{
			Heartbeat:     cfg.Presence.HeartbeatInterval,
			LeaderTimeout: cfg.Presence.LeaderTimeout,
			Clock:         clk,
			Log:           log,
		}
		if rdb != nil {
			hub = presence.NewHub(
				presence.NewRedisBroadcaster(rdb, cfg.Presence.Channel, log),
				presence.NewRedisPinger(rdb, cfg.Presence.Channel, cfg.Presence.PingTTL),
				opts,
			)
		} else {
			hub = presence.NewHub(presence.NewLocal(), nil, opts)
		}
	}

	deps := booking.Deps{
		Backend:        be,
		Catalog:        loader,
		Drafts:         drafts,
		Events:         events,
		Clock:          clk,
		Log:            log,
		HoldTTLSeconds: cfg.Booking.HoldTTLSeconds,
		IdleTimeout:    cfg.Booking.IdleTimeout,
		SweepInterval:  cfg.Booking.SweepInterval,
	}
	if hub != nil {
		deps.Presence = hub
	}
	sessions := booking.NewRegistry(deps)
	sessions.Start()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	var limiter echo.MiddlewareFunc
	if rdb != nil {
		limiter = middleware.NewTokenBucket(cfg.RateLimit, redis.Scripter(rdb), log)
	}
	router.RegisterRoutes(e, checks)
	router.RegisterBooking(e, handler.NewSessionHandler(sessions, log), handler.NewCatalogHandler(loader), cfg.App.JWTSecret, limiter)

	addr := ":" + cfg.App.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// open sessions release their holds on the way out
	sessions.Stop(ctx)
	return nil
}
