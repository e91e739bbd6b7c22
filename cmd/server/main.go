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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iho/giftledger/internal/adapter/events"
	"github.com/iho/giftledger/internal/adapter/events/kafka"
	httpAdapter "github.com/iho/giftledger/internal/adapter/http"
	"github.com/iho/giftledger/internal/adapter/http/handler"
	"github.com/iho/giftledger/internal/adapter/http/middleware"
	redisRepo "github.com/iho/giftledger/internal/adapter/repository/redis"
	"github.com/iho/giftledger/internal/infrastructure/config"
	"github.com/iho/giftledger/internal/infrastructure/idgen"
	"github.com/iho/giftledger/internal/infrastructure/logger"
	"github.com/iho/giftledger/internal/infrastructure/metrics"
	"github.com/iho/giftledger/internal/infrastructure/redis"
	"github.com/iho/giftledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	codec, err := newCodec(cfg)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg, codec, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer st.Close()

	m := metrics.New()

	var publisher usecase.ChangePublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing change events to kafka")
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		st.checks["redis"] = redis.Ping(client)
		logger.Info().Msg("connected to redis")
	}

	ledger := usecase.NewLedgerUseCase(st.repo, publisher, usecase.SystemClock{}, m, logger)
	reconciler := usecase.NewReconciliationUseCase(ledger)
	exporter := usecase.NewExportUseCase(ledger, codec, m)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled() {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(ledger, reconciler),
		ExportHandler:    handler.NewExportHandler(exporter, cfg.ExportFilename),
		TokenHandler:     handler.NewTokenHandler(idgen.NewULIDGenerator()),
		HealthHandler:    handler.NewHealthHandler(st.checks),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      limiter,
		Metrics:          m,
		Gatherer:         prometheus.DefaultGatherer,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	if st.watch != nil {
		if err := st.watch(gctx); err != nil {
			return err
		}
	}

	if limiter != nil {
		g.Go(func() error {
			sweepLimiters(gctx, limiter, logger)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter, logger zerolog.Logger) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupLimiters(limiterIdleTimeout); n > 0 {
				logger.Debug().Int("removed", n).Msg("dropped idle rate limiters")
			}
		}
	}
}
