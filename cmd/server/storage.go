package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/giftledger/internal/adapter/http/handler"
	"github.com/iho/giftledger/internal/adapter/repository/csvfile"
	"github.com/iho/giftledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/giftledger/internal/adapter/repository/postgres"
	"github.com/iho/giftledger/internal/adapter/repository/sqlite"
	"github.com/iho/giftledger/internal/adapter/tabular"
	"github.com/iho/giftledger/internal/infrastructure/config"
	"github.com/iho/giftledger/internal/infrastructure/postgres"
	"github.com/iho/giftledger/internal/usecase"
)

// storage is the selected entry repository plus what the server needs to
// probe and release it.
type storage struct {
	repo    usecase.EntryRepository
	checks  map[string]handler.Check
	closers []func()
	// watch, when set, runs until ctx is done.
	watch func(ctx context.Context) error
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage builds the repository named by cfg.StoreBackend.
func openStorage(ctx context.Context, cfg *config.Config, codec *tabular.Codec, logger zerolog.Logger) (*storage, error) {
	st := &storage{checks: make(map[string]handler.Check)}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		st.repo = memory.NewEntryRepository()
		logger.Warn().Msg("using in-memory store, entries are lost on restart")

	case config.BackendCSV:
		store, err := csvfile.Open(cfg.CSVPath, codec, logger)
		if err != nil {
			return nil, err
		}
		st.repo = store
		if cfg.CSVWatch {
			st.watch = store.Watch
		}
		logger.Info().Str("path", cfg.CSVPath).Bool("watch", cfg.CSVWatch).Msg("using csv store")

	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.repo = repo
		st.checks["sqlite"] = repo.Ping
		st.closers = append(st.closers, func() { repo.Close() })
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.DatabaseMaxConns,
			MinConns:    cfg.DatabaseMinConns,
		})
		if err != nil {
			return nil, err
		}
		st.repo = postgresRepo.NewEntryRepository(pool, postgresRepo.NewRetrier(logger))
		st.checks["postgres"] = pool.Ping
		st.closers = append(st.closers, pool.Close)
		logger.Info().Msg("connected to postgres")

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return st, nil
}

// newCodec builds the CSV codec used for export and the csv store.
func newCodec(cfg *config.Config) (*tabular.Codec, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	headers := tabular.EnglishHeaders
	if cfg.ExportHeaders == config.HeadersKorean {
		headers = tabular.KoreanHeaders(cfg.AmountUnit)
	}

	return tabular.NewCodec(headers, loc), nil
}
