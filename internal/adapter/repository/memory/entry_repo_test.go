package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/giftledger/internal/domain"
)

func TestEntryRepositoryCreateAssignsIncreasingSeqs(t *testing.T) {
	ctx := context.Background()
	repo := NewEntryRepository()

	for want := int64(1); want <= 3; want++ {
		e := &domain.Entry{Name: "guest", Amount: decimal.NewFromInt(want)}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if e.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, e.Seq)
		}
	}

	if _, err := repo.Delete(ctx, []int64{3}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	e := &domain.Entry{Name: "late"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if e.Seq != 4 {
		t.Fatalf("expected deleted seq to stay retired, got %d", e.Seq)
	}
}

func TestEntryRepositorySeedSetsHighWater(t *testing.T) {
	repo := NewEntryRepository(&domain.Entry{Seq: 5}, &domain.Entry{Seq: 2})

	e := &domain.Entry{Name: "next"}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if e.Seq != 6 {
		t.Fatalf("expected seq 6, got %d", e.Seq)
	}
}

func TestEntryRepositoryReserveRaisesHighWater(t *testing.T) {
	repo := NewEntryRepository(&domain.Entry{Seq: 2})

	repo.Reserve(7)
	repo.Reserve(3)
	if got := repo.HighWater(); got != 7 {
		t.Fatalf("expected high water 7, got %d", got)
	}

	e := &domain.Entry{Name: "next"}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if e.Seq != 8 {
		t.Fatalf("expected seq 8, got %d", e.Seq)
	}
}

func TestEntryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewEntryRepository(&domain.Entry{Seq: 1, Name: "Kim"})

	got, err := repo.GetBySeq(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got.Name = "mutated"

	list, _ := repo.List(ctx)
	if list[0].Name != "Kim" {
		t.Fatalf("expected stored entry to be isolated from callers, got %q", list[0].Name)
	}
}

func TestEntryRepositoryUpdateAndNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewEntryRepository(&domain.Entry{Seq: 1, Name: "Kim"})

	if err := repo.Update(ctx, &domain.Entry{Seq: 1, Name: "Lee"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, _ := repo.GetBySeq(ctx, 1)
	if got.Name != "Lee" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}

	if err := repo.Update(ctx, &domain.Entry{Seq: 9}); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	if _, err := repo.GetBySeq(ctx, 9); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestEntryRepositoryDeleteReportsExisting(t *testing.T) {
	repo := NewEntryRepository(&domain.Entry{Seq: 1}, &domain.Entry{Seq: 2}, &domain.Entry{Seq: 3})

	removed, err := repo.Delete(context.Background(), []int64{3, 7, 1})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(removed) != 2 || removed[0] != 3 || removed[1] != 1 {
		t.Fatalf("expected [3 1], got %v", removed)
	}

	list, _ := repo.List(context.Background())
	if len(list) != 1 || list[0].Seq != 2 {
		t.Fatalf("expected only seq 2 left, got %+v", list)
	}
}

func TestEntryRepositoryReplaceKeepsHighWater(t *testing.T) {
	ctx := context.Background()
	repo := NewEntryRepository(&domain.Entry{Seq: 10})

	repo.Replace([]*domain.Entry{{Seq: 1}, {Seq: 2}})

	e := &domain.Entry{}
	_ = repo.Create(ctx, e)
	if e.Seq != 11 {
		t.Fatalf("expected replace to keep the high-water mark, got %d", e.Seq)
	}
}

func TestEntryRepositoryRestoreRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewEntryRepository(&domain.Entry{Seq: 1, Name: "Kim"})
	boom := errors.New("persist failed")

	err := repo.Restore(func() error {
		_ = repo.Create(ctx, &domain.Entry{Name: "temp"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected rollback to original content, got %d entries", len(list))
	}

	e := &domain.Entry{}
	_ = repo.Create(ctx, e)
	if e.Seq != 3 {
		t.Fatalf("expected consumed seq to stay consumed, got %d", e.Seq)
	}
}
