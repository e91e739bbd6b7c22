// Package sqlite stores the ledger in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

const (
	insertEntry = `INSERT INTO entries (name, affiliation, amount, note, created_at) VALUES (?, ?, ?, ?, ?)`
	selectAll   = `SELECT seq, name, affiliation, amount, note, created_at FROM entries ORDER BY seq`
	selectOne   = `SELECT seq, name, affiliation, amount, note, created_at FROM entries WHERE seq = ?`
	updateEntry = `UPDATE entries SET name = ?, affiliation = ?, amount = ?, note = ? WHERE seq = ?`
	deleteEntry = `DELETE FROM entries WHERE seq = ?`
)

// EntryRepository is a SQLite-backed EntryRepository. AUTOINCREMENT keeps
// deleted sequence numbers from being reissued.
type EntryRepository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*EntryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &EntryRepository{db: db}, nil
}

// Ping checks the database handle for readiness probes.
func (r *EntryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *EntryRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	res, err := r.db.ExecContext(ctx, insertEntry,
		entry.Name,
		entry.Affiliation,
		entry.Amount.String(),
		entry.Note,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read assigned seq: %w", err)
	}

	entry.Seq = seq
	return nil
}

func (r *EntryRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func (r *EntryRepository) GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, selectOne, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return e, err
}

func (r *EntryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	res, err := r.db.ExecContext(ctx, updateEntry,
		entry.Name,
		entry.Affiliation,
		entry.Amount.String(),
		entry.Note,
		entry.Seq,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, seqs []int64) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed := make([]int64, 0, len(seqs))
	for _, seq := range seqs {
		res, err := tx.ExecContext(ctx, deleteEntry, seq)
		if err != nil {
			return nil, fmt.Errorf("delete entry %d: %w", seq, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed = append(removed, seq)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}

	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e         domain.Entry
		amount    string
		createdAt string
	)

	if err := row.Scan(&e.Seq, &e.Name, &e.Affiliation, &amount, &e.Note, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("entry %d: bad amount %q: %w", e.Seq, amount, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("entry %d: bad created_at %q: %w", e.Seq, createdAt, err)
	}

	return &e, nil
}

var _ usecase.EntryRepository = (*EntryRepository)(nil)
