package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/simplimarked/signup-api/internal/adapters/httpapi"
	memrosterstore "github.com/simplimarked/signup-api/internal/adapters/memory/rosterstore"
	postgres "github.com/simplimarked/signup-api/internal/adapters/postgres"
	pgrosterstore "github.com/simplimarked/signup-api/internal/adapters/postgres/rosterstore"
	sqliterosterstore "github.com/simplimarked/signup-api/internal/adapters/sqlite/rosterstore"
	"github.com/simplimarked/signup-api/internal/app/session"
	platformclock "github.com/simplimarked/signup-api/internal/platform/clock"
	"github.com/simplimarked/signup-api/internal/platform/config"
	"github.com/simplimarked/signup-api/internal/platform/metrics"
	rosterstoreport "github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
	"github.com/simplimarked/signup-api/pkg/logging"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	svc := session.NewService(store, platformclock.NewSystemClock(), session.Options{
		Path:    cfg.SessionPath,
		Metrics: m,
	})

	handler := httpapi.NewRouterWithOptions(
		httpapi.NewServer(svc, m),
		httpapi.RouterOptions{
			ActorMiddleware: httpapi.NewActorMiddleware(cfg.DefaultActor),
			Metrics:         m,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("api listening", "addr", cfg.Addr(), "storage", string(cfg.Storage), "path", string(cfg.SessionPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (rosterstoreport.Store, func(), error) {
	switch cfg.Storage {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		s := pgrosterstore.NewStore(pool)
		return s, func() {
			s.Close()
			pool.Close()
		}, nil
	case config.BackendSQLite:
		s, err := sqliterosterstore.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s := memrosterstore.NewStore()
		return s, s.Close, nil
	}
}
