package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/sortition/pkg/logger"
	"github.com/screwyprof/sortition/pkg/pgxdb"
	"github.com/screwyprof/sortition/web/config"
	"github.com/screwyprof/sortition/web/handler"
	"github.com/screwyprof/sortition/web/store/pgxstore"
)

var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Sortition Archive API starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	store, storeCloser := pgxstore.New(db)
	defer storeCloser()

	mux := http.NewServeMux()
	handler.NewSortitionGetNominations(store).AddRoutes(mux)
	handler.NewSortitionGetScan(store).AddRoutes(mux)

	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := serve(ctx, server, cfg.ShutdownTimeout, log); err != nil {
		log.ErrorContext(ctx, "Server failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Server exited gracefully")
}

// serve runs server until ctx is cancelled, then drains it within timeout
func serve(ctx context.Context, server *http.Server, timeout time.Duration, log *slog.Logger) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.InfoContext(ctx, "Server started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.InfoContext(ctx, "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
