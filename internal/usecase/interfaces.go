package usecase

import (
	"context"
	"io"
	"time"

	"github.com/iho/giftledger/internal/domain"
)

// EntryRepository defines data access for gift entries.
type EntryRepository interface {
	// Create stores entry and assigns entry.Seq. Sequence numbers are never reused.
	Create(ctx context.Context, entry *domain.Entry) error
	List(ctx context.Context) ([]*domain.Entry, error)
	GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error)
	// Update replaces the stored fields of entry.Seq, or returns domain.ErrEntryNotFound.
	Update(ctx context.Context, entry *domain.Entry) error
	// Delete removes the given sequence numbers and returns the ones that existed.
	Delete(ctx context.Context, seqs []int64) ([]int64, error)
}

// ChangePublisher forwards ledger change events to an external feed.
type ChangePublisher interface {
	Publish(ctx context.Context, event *domain.ChangeEvent) error
}

// EntryEncoder writes totaled entries in a tabular export format.
type EntryEncoder interface {
	Encode(w io.Writer, rows []domain.TotaledEntry) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so a failed request can be retried with it.
	Release(ctx context.Context, key string) error
}
