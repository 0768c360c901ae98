package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/courtbook/internal/config"
	"github.com/kirinyoku/courtbook/internal/postgres"
	"github.com/kirinyoku/courtbook/internal/redis"
	"github.com/kirinyoku/courtbook/internal/remote"
	postgresrepo "github.com/kirinyoku/courtbook/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/courtbook/internal/repository/redis"
	"github.com/kirinyoku/courtbook/internal/service"
	"github.com/kirinyoku/courtbook/internal/service/catalog"
	"github.com/kirinyoku/courtbook/internal/service/session"
	httpgin "github.com/kirinyoku/courtbook/internal/transport/http/gin"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

const (
	sweepInterval    = time.Minute
	shutdownTimeout  = 5 * time.Second
	submitLockTTL    = 30 * time.Second
	idempotencyTTL   = 2 * time.Hour
	confirmRateScope = "confirm"
)

type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	services   *service.Services
	pubsub     *redisrepo.ScopePubSub
	httpServer *http.Server
	stop       context.CancelFunc
}

// New connects to Postgres and Redis, applies migrations and wires the
// services and the HTTP router.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	calendar, err := workflow.NewCalendar(cfg.Booking.BookableDays, cfg.Booking.DaysShown)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}

	pgxPool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := postgres.Migrate(ctx, pgxPool); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewScopePubSub(rdb)
	locks := redisrepo.NewSubmitLocks(rdb, submitLockTTL)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, confirmRateScope, cfg.Booking.SubmitRateLimit, cfg.Booking.SubmitRateWindow)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, idempotencyTTL)

	client := NewRemoteClient(cfg, logger)

	// Sessions outlive the request that created them, so they get their own
	// context, cancelled on shutdown.
	sessionCtx, stop := context.WithCancel(context.WithoutCancel(ctx))

	services := service.NewServices(
		sessionCtx,
		client,
		calendar,
		store,
		cache,
		pubsub,
		locks,
		service.Config{
			Catalog: catalog.Config{TTL: cfg.Booking.CatalogTTL},
			Session: session.Config{
				TTL:           cfg.Booking.SessionTTL,
				FetchTimeout:  cfg.Booking.FetchTimeout,
				SubmitTimeout: cfg.Booking.SubmitTimeout,
			},
		},
		logger,
	)

	router := httpgin.NewRouter(services, idempotencyStore, limiter, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pgxPool,
		rdb:      rdb,
		services: services,
		pubsub:   pubsub,
		stop:     stop,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewRemoteClient builds the client for the campus reservation service.
func NewRemoteClient(cfg *config.Config, logger *zap.Logger) *remote.Client {
	timeout := cfg.Booking.SubmitTimeout
	if cfg.Booking.FetchTimeout > timeout {
		timeout = cfg.Booking.FetchTimeout
	}

	return remote.New(remote.Config{
		BaseURL:    cfg.Remote.BaseURL,
		Timeout:    timeout,
		RatePerSec: cfg.Remote.RatePerSec,
		Burst:      cfg.Remote.Burst,
	}, nil, logger)
}

// Run serves HTTP, sweeps idle sessions and follows scope changes published
// by other instances until ctx ends or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.services.Sessions.RunSweeper(gCtx, sweepInterval)
	})

	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, a.services.Sessions.HandleScopeChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scope subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	a.services.Sessions.CloseAll()
	a.stop()

	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("closing redis", zap.Error(err))
	}
	a.pool.Close()
}
