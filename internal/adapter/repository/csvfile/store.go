// Package csvfile persists the ledger as a single CSV file that can be opened
// directly in a spreadsheet. The whole file is rewritten after every change.
// The last sequence number handed out is kept next to it in <path>.seq so
// that numbers freed by deletion stay retired across restarts.
package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/iho/giftledger/internal/adapter/repository/memory"
	"github.com/iho/giftledger/internal/adapter/tabular"
	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

const debounceDelay = 100 * time.Millisecond

// Store is a CSV-backed EntryRepository. Entries are served from memory and
// written through to the file.
type Store struct {
	mu          sync.Mutex
	path        string
	seqPath     string
	codec       *tabular.Codec
	mem         *memory.EntryRepository
	logger      zerolog.Logger
	lastWritten []byte
}

// Open loads path into memory, creating parent directories as needed.
//
// A missing file starts an empty ledger. A file that cannot be parsed is
// moved aside to <path>.bad and an empty ledger is started, so the next
// write does not destroy it.
func Open(path string, codec *tabular.Codec, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{
		path:   filepath.Clean(path),
		codec:  codec,
		mem:    memory.NewEntryRepository(),
		logger: logger.With().Str("component", "csvfile").Str("path", path).Logger(),
	}
	s.seqPath = s.path + ".seq"

	highWater, err := readHighWater(s.seqPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sequence file is unreadable, using the ledger file alone")
	}
	s.mem.Reserve(highWater)

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info().Msg("no ledger file yet, starting empty")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	entries, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn().Err(err).Msg("ledger file is unreadable, starting empty")
		if rerr := os.Rename(s.path, s.path+".bad"); rerr != nil {
			return nil, fmt.Errorf("move unreadable ledger file aside: %w", rerr)
		}
		return s, nil
	}

	s.mem.Replace(entries)
	s.lastWritten = data
	s.logger.Info().Int("entries", len(entries)).Msg("ledger file loaded")

	return s, nil
}

func (s *Store) Create(ctx context.Context, entry *domain.Entry) error {
	return s.mutate(func() error {
		return s.mem.Create(ctx, entry)
	})
}

func (s *Store) List(ctx context.Context) ([]*domain.Entry, error) {
	return s.mem.List(ctx)
}

func (s *Store) GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error) {
	return s.mem.GetBySeq(ctx, seq)
}

func (s *Store) Update(ctx context.Context, entry *domain.Entry) error {
	return s.mutate(func() error {
		return s.mem.Update(ctx, entry)
	})
}

func (s *Store) Delete(ctx context.Context, seqs []int64) ([]int64, error) {
	var removed []int64
	err := s.mutate(func() error {
		var err error
		removed, err = s.mem.Delete(ctx, seqs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Reload re-reads the file. On a parse error the in-memory ledger is kept.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read ledger file: %w", err)
	}

	if bytes.Equal(data, s.lastWritten) {
		return nil
	}

	entries, err := s.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	s.mem.Replace(entries)
	s.lastWritten = data
	s.logger.Info().Int("entries", len(entries)).Msg("ledger file reloaded")

	return nil
}

// Watch reloads the ledger when the file is changed by another program.
// It returns once the watcher is running; watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory: atomic saves replace the file's inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

func (s *Store) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if err := s.Reload(); err != nil {
					s.logger.Warn().Err(err).Msg("failed to reload ledger file")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// mutate applies fn to the working set and persists it, rolling the working
// set back if the file cannot be written.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.Restore(func() error {
		if err := fn(); err != nil {
			return err
		}
		return s.persist()
	})
}

// persist writes the full ledger to a temp file and renames it into place.
func (s *Store) persist() error {
	entries, err := s.mem.List(context.Background())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, domain.RunningTotals(entries)); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".giftledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	s.lastWritten = buf.Bytes()

	return s.writeHighWater()
}

func (s *Store) writeHighWater() error {
	data := []byte(strconv.FormatInt(s.mem.HighWater(), 10) + "\n")

	tmp := s.seqPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sequence file: %w", err)
	}
	if err := os.Rename(tmp, s.seqPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace sequence file: %w", err)
	}

	return nil
}

// readHighWater returns 0 when the file does not exist.
func readHighWater(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence file: %w", err)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad sequence file content %q", strings.TrimSpace(string(data)))
	}

	return n, nil
}

var _ usecase.EntryRepository = (*Store)(nil)
