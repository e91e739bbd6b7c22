package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iho/giftledger/internal/domain"
)

type fakeEntryRepository struct {
	mu        sync.Mutex
	entries   map[int64]*domain.Entry
	highWater int64

	createErr error
	listErr   error
	updateErr error
	deleteErr error

	creates int
	updates int
	deletes int
}

func newFakeEntryRepository(seed ...*domain.Entry) *fakeEntryRepository {
	f := &fakeEntryRepository{entries: make(map[int64]*domain.Entry)}
	for _, e := range seed {
		f.entries[e.Seq] = e.Clone()
		if e.Seq > f.highWater {
			f.highWater = e.Seq
		}
	}
	return f
}

func (f *fakeEntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	if f.createErr != nil {
		return f.createErr
	}

	f.highWater++
	entry.Seq = f.highWater
	f.entries[entry.Seq] = entry.Clone()
	return nil
}

func (f *fakeEntryRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]*domain.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeEntryRepository) GetBySeq(ctx context.Context, seq int64) (*domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[seq]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (f *fakeEntryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.entries[entry.Seq]; !ok {
		return domain.ErrEntryNotFound
	}
	f.entries[entry.Seq] = entry.Clone()
	return nil
}

func (f *fakeEntryRepository) Delete(ctx context.Context, seqs []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}

	var removed []int64
	for _, seq := range seqs {
		if _, ok := f.entries[seq]; ok {
			delete(f.entries, seq)
			removed = append(removed, seq)
		}
	}
	return removed, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.ChangeEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event *domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var (
	testNow   = time.Date(2024, 5, 18, 11, 30, 15, 987654321, time.UTC)
	errStore  = errors.New("store unavailable")
	testClock = fixedClock{now: testNow}
)
