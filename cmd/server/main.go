package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excelkeeper/internal/app/server/api"
	"excelkeeper/internal/app/server/config"
	"excelkeeper/internal/infrastructure/migration"
	"excelkeeper/internal/infrastructure/storage/postgres"
	"excelkeeper/internal/ratelimit"
	"excelkeeper/internal/utils/logger"
	"excelkeeper/migrations"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
)

func main() {
	conf := config.MustLoad()
	log := logger.NewWithLevel(conf.Env, conf.Logger.LogLevel)

	if err := run(conf, log); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(conf *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, conf, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	if _, err := storage.HealthCheck(ctx); err != nil {
		return fmt.Errorf("initial database connection: %w", err)
	}

	if err := migration.NewMigration(conf, migrations.FS, migration.DefaultEngine, log).Up(); err != nil {
		return err
	}

	services := api.NewServices(conf, storage, log)
	if err := services.Credential.Seed(ctx); err != nil {
		return fmt.Errorf("seed credentials: %w", err)
	}

	limiters, closeLimiters, err := newLimiters(ctx, conf.Redis, log)
	if err != nil {
		return err
	}
	defer closeLimiters()

	router, err := api.New(conf.Server, services, limiters, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              conf.Server.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       conf.Server.Timeout,
		WriteTimeout:      conf.Server.Timeout,
		IdleTimeout:       2 * conf.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", slog.String("addr", srv.Addr), slog.String("env", conf.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		storage.Monitor(gctx, conf.DB.MonitorInterval)
		return nil
	})

	g.Go(func() error {
		limiters.Run(gctx, cleanupInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", logger.Err(err))
		}
		return storage.Close()
	})

	return g.Wait()
}

// newLimiters выбирает Redis, если задан REDIS_ADDR, иначе лимитеры в памяти.
func newLimiters(ctx context.Context, conf config.Redis, log *slog.Logger) (ratelimit.Set, func(), error) {
	if conf.Addr == "" {
		s, err := ratelimit.NewMemorySet()
		return s, func() {}, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return ratelimit.Set{}, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("rate limits stored in redis", slog.String("addr", conf.Addr))

	s, err := ratelimit.NewRedisSet(client, "excelkeeper:ratelimit")
	if err != nil {
		_ = client.Close()
		return ratelimit.Set{}, nil, err
	}
	return s, func() { _ = client.Close() }, nil
}
