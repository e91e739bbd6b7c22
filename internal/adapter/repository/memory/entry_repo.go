package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

// EntryRepository keeps entries in process memory. It is the default store
// and the working set behind the CSV store.
type EntryRepository struct {
	mu        sync.RWMutex
	entries   map[int64]*domain.Entry
	highWater int64
}

// NewEntryRepository creates a store pre-populated with seed.
func NewEntryRepository(seed ...*domain.Entry) *EntryRepository {
	r := &EntryRepository{entries: make(map[int64]*domain.Entry, len(seed))}
	r.load(seed)
	return r
}

// Create assigns the next sequence number. Numbers freed by deletion are
// never handed out again during the lifetime of the store.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.highWater++
	entry.Seq = r.highWater
	r.entries[entry.Seq] = entry.Clone()

	return nil
}

// List returns copies of all entries in ascending sequence order.
func (r *EntryRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(), nil
}

func (r *EntryRepository) GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[seq]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	return e.Clone(), nil
}

func (r *EntryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.Seq]; !ok {
		return domain.ErrEntryNotFound
	}

	r.entries[entry.Seq] = entry.Clone()
	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, seqs []int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]int64, 0, len(seqs))
	for _, seq := range seqs {
		if _, ok := r.entries[seq]; ok {
			delete(r.entries, seq)
			removed = append(removed, seq)
		}
	}

	return removed, nil
}

// Replace swaps the whole content for entries. The sequence high-water mark
// only ever moves forward.
func (r *EntryRepository) Replace(entries []*domain.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[int64]*domain.Entry, len(entries))
	r.load(entries)
}

// HighWater returns the largest sequence number ever handed out or loaded.
func (r *EntryRepository) HighWater() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.highWater
}

// Reserve raises the high-water mark to seq so that Create never returns a
// number at or below it. Lower values are ignored.
func (r *EntryRepository) Reserve(seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq > r.highWater {
		r.highWater = seq
	}
}

// Restore runs fn and rolls the content back if fn fails. Stores that persist
// after mutating the working set use it. Sequence numbers consumed by fn stay
// consumed.
func (r *EntryRepository) Restore(fn func() error) error {
	r.mu.RLock()
	saved := r.snapshot()
	r.mu.RUnlock()

	if err := fn(); err != nil {
		r.mu.Lock()
		r.entries = make(map[int64]*domain.Entry, len(saved))
		r.load(saved)
		r.mu.Unlock()
		return err
	}

	return nil
}

func (r *EntryRepository) load(entries []*domain.Entry) {
	for _, e := range entries {
		r.entries[e.Seq] = e.Clone()
		if e.Seq > r.highWater {
			r.highWater = e.Seq
		}
	}
}

func (r *EntryRepository) snapshot() []*domain.Entry {
	out := make([]*domain.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

var _ usecase.EntryRepository = (*EntryRepository)(nil)
