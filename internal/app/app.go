package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/config"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/postgres"
	"github.com/kirinyoku/tix-storefront/internal/redis"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/tix-storefront/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-storefront/internal/repository/redis"
	"github.com/kirinyoku/tix-storefront/internal/service"
	"github.com/kirinyoku/tix-storefront/internal/service/checkout"
	"github.com/kirinyoku/tix-storefront/internal/session"
	httpgin "github.com/kirinyoku/tix-storefront/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

// backend is what every storage driver provides.
type backend interface {
	repository.Store
	repository.ChangeFeed
	repository.Locker
}

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	services   *service.Services
	feed       repository.ChangeFeed
	closers    []func()
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	a := &App{cfg: cfg, logger: logger}

	// Initialize storage
	var (
		store   backend
		limiter httpgin.LoginLimiter
	)

	switch cfg.Storage {
	case config.DriverMemory:
		store = memory.New()

	case config.DriverRedis:
		rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		store = redisrepo.New(rdb)
		if cfg.Login.RateLimit > 0 {
			limiter = redisrepo.NewLoginLimiter(rdb, "rl:login", cfg.Login.RateLimit, cfg.Login.RateWindow)
		}

	case config.DriverPostgres:
		dsn := postgres.DSN(
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pool, err := postgres.New(ctx, postgres.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		pg := postgresrepo.NewStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to prepare postgres schema: %w", err)
		}
		store = pg

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, session.NewTokenSource(store))

	var admins session.AdminVerifier
	if v := session.NewStaticAdminVerifier(cfg.Admin.Email, cfg.Admin.Password); v != nil {
		admins = v
	} else {
		logger.Warn("admin sign-in disabled: ADMIN_EMAIL or ADMIN_PASSWORD not set")
	}

	// Initialize services
	a.services = service.NewServices(service.Deps{
		Store:   store,
		Locker:  store,
		Gateway: gw,
		Admins:  admins,
		Logger:  logger,
	}, service.Config{
		Checkout: checkout.Config{LockTTL: cfg.Checkout.LockTTL},
	})
	a.feed = store

	// Initialize Gin router
	router := httpgin.NewRouter(a.services, limiter, cfg.Server.CORSOrigins, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening",
			"host", a.cfg.Server.Host,
			"port", a.cfg.Server.Port,
			"storage", a.cfg.Storage,
			"api", a.cfg.API.BaseURL,
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Mirror sign-ins and sign-outs made by other instances
	g.Go(func() error {
		if err := a.services.Session.Watch(gCtx, a.feed); err != nil {
			return fmt.Errorf("session watch stopped: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
