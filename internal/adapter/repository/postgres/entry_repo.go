package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/infrastructure/postgres/generated"
	"github.com/iho/giftledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository on PostgreSQL.
// Sequence numbers come from an identity column and are never reissued.
type EntryRepository struct {
	queries *generated.Queries
	retrier *Retrier
}

// NewEntryRepository creates a new EntryRepository. db is usually a *pgxpool.Pool.
func NewEntryRepository(db generated.DBTX, retrier *Retrier) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
		retrier: retrier,
	}
}

// Create inserts entry and stores the assigned sequence number on it.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	return r.retry(ctx, func() error {
		seq, err := r.queries.CreateEntry(ctx, generated.CreateEntryParams{
			Name:        entry.Name,
			Affiliation: entry.Affiliation,
			Amount:      entry.Amount.String(),
			Note:        entry.Note,
			CreatedAt:   entry.CreatedAt,
		})
		if err != nil {
			return err
		}

		entry.Seq = seq
		return nil
	})
}

// List retrieves every entry in ascending sequence order.
func (r *EntryRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	var rows []generated.EntryRow
	err := r.retry(ctx, func() error {
		var err error
		rows, err = r.queries.ListEntries(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// GetBySeq retrieves one entry.
func (r *EntryRepository) GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error) {
	var row generated.EntryRow
	err := r.retry(ctx, func() error {
		var err error
		row, err = r.queries.GetEntryBySeq(ctx, seq)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return rowToEntry(row)
}

// Update rewrites the editable fields of entry.Seq.
func (r *EntryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	var affected int64
	err := r.retry(ctx, func() error {
		var err error
		affected, err = r.queries.UpdateEntry(ctx, generated.UpdateEntryParams{
			Seq:         entry.Seq,
			Name:        entry.Name,
			Affiliation: entry.Affiliation,
			Amount:      entry.Amount.String(),
			Note:        entry.Note,
		})
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Delete removes seqs in one statement and returns those that existed.
func (r *EntryRepository) Delete(ctx context.Context, seqs []int64) ([]int64, error) {
	var removed []int64
	err := r.retry(ctx, func() error {
		var err error
		removed, err = r.queries.DeleteEntries(ctx, seqs)
		return err
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func (r *EntryRepository) retry(ctx context.Context, op func() error) error {
	if r.retrier == nil {
		return op()
	}
	return r.retrier.Retry(ctx, op)
}

func rowToEntry(row generated.EntryRow) (*domain.Entry, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("entry %d: bad amount %q: %w", row.Seq, row.Amount, err)
	}

	return &domain.Entry{
		Seq:         row.Seq,
		Name:        row.Name,
		Affiliation: row.Affiliation,
		Amount:      amount,
		Note:        row.Note,
		CreatedAt:   row.CreatedAt,
	}, nil
}

var _ usecase.EntryRepository = (*EntryRepository)(nil)
