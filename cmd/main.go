// Package main provides the entry point for the MealBuddy service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Damianjacob/mealbuddy-mobile/internal/config"
	"github.com/Damianjacob/mealbuddy-mobile/internal/form"
	"github.com/Damianjacob/mealbuddy-mobile/internal/handler"
	"github.com/Damianjacob/mealbuddy-mobile/internal/kv"
	"github.com/Damianjacob/mealbuddy-mobile/internal/logger"
	"github.com/Damianjacob/mealbuddy-mobile/internal/store"
	"github.com/Damianjacob/mealbuddy-mobile/internal/validation"
)

// openBackend connects the configured durable backend. The returned func
// releases it.
func openBackend(ctx context.Context, cfg *config.Config) (kv.Backend, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return kv.NewMemory(), func() {}, nil
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		pg := kv.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, func() { _ = db.Close() }, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return kv.NewRedis(client), func() { _ = client.Close() }, nil
	default:
		f, err := kv.NewFile(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	log.Info("Starting MealBuddy", zap.String("backend", cfg.StorageBackend))

	backend, release, err := openBackend(ctx, cfg)
	if err != nil {
		log.Error("storage backend unavailable", zap.Error(err))
		return err
	}
	defer release()

	meals := store.New(backend,
		store.WithKey(cfg.StorageKey),
		store.WithLogger(log.Named("store")),
		store.WithRetry(cfg.WriteRetries, cfg.WriteBackoff),
		store.WithWriteErrorHandler(func(err error) {
			log.Warn("meals may not survive a restart", zap.Error(err))
		}),
	)
	// the list renders empty until hydration finishes
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
		defer cancel()
		_ = meals.Load(loadCtx)
	}()

	submitter := form.NewSubmitter(log.Named("form"), meals, validation.New())
	h := handler.New(log, meals, submitter)

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = meals.Close(context.Background())
		return fmt.Errorf("listening on %s: %w", cfg.HTTPAddr, err)
	}
	srv := &http.Server{
		Handler:      h.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	log.Info("Listening", zap.String("addr", ln.Addr().String()))

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("server error", zap.Error(err))
		runErr = err
	}

	log.Info("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	if err := meals.Close(ctxShutdown); err != nil {
		log.Error("final meal snapshot was not persisted", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		os.Exit(1)
	}
}
