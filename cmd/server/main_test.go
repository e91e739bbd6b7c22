package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/giftledger/internal/adapter/tabular"
	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/infrastructure/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoreBackend:  backend,
		CSVPath:       filepath.Join(dir, "wedding_list.csv"),
		SQLitePath:    filepath.Join(dir, "giftledger.db"),
		ExportHeaders: config.HeadersEnglish,
		AmountUnit:    "만원",
		Timezone:      "UTC",
	}
}

func TestOpenStorageBackends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendCSV, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			codec, err := newCodec(cfg)
			require.NoError(t, err)

			st, err := openStorage(context.Background(), cfg, codec, zerolog.Nop())
			require.NoError(t, err)
			defer st.Close()

			ctx := context.Background()
			entry := &domain.Entry{
				Name:        "김철수",
				Affiliation: "-",
				Amount:      decimal.NewFromInt(5),
				Note:        "-",
			}
			require.NoError(t, st.repo.Create(ctx, entry))
			assert.Equal(t, int64(1), entry.Seq)

			entries, err := st.repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "김철수", entries[0].Name)

			for name, check := range st.checks {
				assert.NoError(t, check(ctx), name)
			}
		})
	}
}

func TestOpenStorageSQLiteRegistersCheck(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	codec, err := newCodec(cfg)
	require.NoError(t, err)

	st, err := openStorage(context.Background(), cfg, codec, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	assert.Contains(t, st.checks, "sqlite")
	assert.Nil(t, st.watch)
}

func TestOpenStorageCSVWatch(t *testing.T) {
	cfg := testConfig(t, config.BackendCSV)
	cfg.CSVWatch = true
	codec, err := newCodec(cfg)
	require.NoError(t, err)

	st, err := openStorage(context.Background(), cfg, codec, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	assert.NotNil(t, st.watch)
}

func TestOpenStorageUnknownBackend(t *testing.T) {
	cfg := testConfig(t, "mongo")
	codec, err := newCodec(cfg)
	require.NoError(t, err)

	_, err = openStorage(context.Background(), cfg, codec, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestNewCodecHeaders(t *testing.T) {
	t.Run("english", func(t *testing.T) {
		cfg := testConfig(t, config.BackendMemory)
		codec, err := newCodec(cfg)
		require.NoError(t, err)
		assert.Equal(t, tabular.NewCodec(tabular.EnglishHeaders, time.UTC), codec)
	})

	t.Run("korean", func(t *testing.T) {
		cfg := testConfig(t, config.BackendMemory)
		cfg.ExportHeaders = config.HeadersKorean
		codec, err := newCodec(cfg)
		require.NoError(t, err)
		assert.Equal(t, tabular.NewCodec(tabular.KoreanHeaders("만원"), time.UTC), codec)
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := testConfig(t, config.BackendMemory)
		cfg.Timezone = "Mars/Olympus"
		_, err := newCodec(cfg)
		assert.Error(t, err)
	})
}
