package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/infrastructure/metrics"
)

// LedgerUseCase owns every read and write of the gift ledger.
//
// Interactions are serialized so concurrent callers observe the same
// sequence of states a single operator would.
type LedgerUseCase struct {
	mu        sync.Mutex
	repo      EntryRepository
	publisher ChangePublisher
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewLedgerUseCase wires the ledger. publisher and metrics may be nil.
func NewLedgerUseCase(
	repo EntryRepository,
	publisher ChangePublisher,
	clock Clock,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	if clock == nil {
		clock = SystemClock{}
	}

	return &LedgerUseCase{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// AddEntryInput is the raw form input for a new gift.
type AddEntryInput struct {
	Name        string
	Affiliation string
	Amount      string
	Note        string
}

// UpdateEntryInput carries a partial edit. Nil fields are left unchanged.
type UpdateEntryInput struct {
	Name        *string
	Affiliation *string
	Amount      *string
	Note        *string
}

// AddEntry validates the input and appends a new entry with the next
// sequence number and the current time.
func (uc *LedgerUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*domain.Entry, error) {
	if err := uc.validate(domain.ValidateName(input.Name)); err != nil {
		return nil, err
	}

	amount, err := domain.ParseAmount(input.Amount)
	if err := uc.validate(err); err != nil {
		return nil, err
	}

	if err := uc.validateTexts(input.Affiliation, input.Note); err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		Name:        input.Name,
		Affiliation: input.Affiliation,
		Amount:      amount,
		Note:        input.Note,
	}
	entry.Normalize()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry.CreatedAt = uc.clock.Now().Truncate(time.Second)

	start := time.Now()
	err = uc.repo.Create(ctx, entry)
	uc.metrics.ObserveStore("create", start, err)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	uc.metrics.AddEntries(1)
	uc.publish(ctx, domain.EventTypeEntryAdded, entry.Seq, entry)
	uc.refreshState(ctx)

	return entry.Clone(), nil
}

// ListEntries returns every entry ordered by sequence number.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, order domain.SortOrder) ([]*domain.Entry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entries, err := uc.list(ctx)
	if err != nil {
		return nil, err
	}

	return domain.SortEntries(entries, order), nil
}

// ListWithTotals returns every entry with its running total. Totals always
// accumulate in ascending sequence order; order only affects presentation.
func (uc *LedgerUseCase) ListWithTotals(ctx context.Context, order domain.SortOrder) ([]domain.TotaledEntry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entries, err := uc.list(ctx)
	if err != nil {
		return nil, err
	}

	rows := domain.RunningTotals(entries)
	if order == domain.Descending {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	return rows, nil
}

// GetEntry returns a single entry.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, seq int64) (*domain.Entry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	start := time.Now()
	entry, err := uc.repo.GetBySeq(ctx, seq)
	uc.metrics.ObserveStore("get", start, ignoreNotFound(err))
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// UpdateEntry applies a partial edit. Sequence number and creation time
// never change. An edit that changes nothing is not written.
func (uc *LedgerUseCase) UpdateEntry(ctx context.Context, seq int64, input UpdateEntryInput) (*domain.Entry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	start := time.Now()
	existing, err := uc.repo.GetBySeq(ctx, seq)
	uc.metrics.ObserveStore("get", start, ignoreNotFound(err))
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()

	if input.Name != nil {
		if err := uc.validate(domain.ValidateText(domain.FieldName, *input.Name)); err != nil {
			return nil, err
		}
		updated.Name = *input.Name
	}

	if input.Affiliation != nil {
		if err := uc.validate(domain.ValidateText(domain.FieldAffiliation, *input.Affiliation)); err != nil {
			return nil, err
		}
		updated.Affiliation = *input.Affiliation
	}

	if input.Note != nil {
		if err := uc.validate(domain.ValidateText(domain.FieldNote, *input.Note)); err != nil {
			return nil, err
		}
		updated.Note = *input.Note
	}

	if input.Amount != nil {
		amount, err := domain.ParseAmount(*input.Amount)
		if err := uc.validate(err); err != nil {
			return nil, err
		}
		updated.Amount = amount
	}

	updated.Normalize()

	if updated.SameContent(existing) {
		return existing, nil
	}

	if err := uc.update(ctx, updated); err != nil {
		return nil, err
	}

	uc.refreshState(ctx)

	return updated.Clone(), nil
}

// DeleteEntries removes the given sequence numbers and reports how many
// existed. Unknown numbers are ignored and survivors keep their numbers.
func (uc *LedgerUseCase) DeleteEntries(ctx context.Context, seqs []int64) (int, error) {
	if len(seqs) == 0 {
		return 0, nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	removed, err := uc.delete(ctx, seqs)
	if err != nil {
		return 0, err
	}

	uc.refreshState(ctx)

	return len(removed), nil
}

// Summary returns the entry count, amount total and most recent entry.
func (uc *LedgerUseCase) Summary(ctx context.Context) (domain.Summary, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entries, err := uc.list(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	return domain.Summarize(entries), nil
}

// The helpers below expect uc.mu to be held.

func (uc *LedgerUseCase) list(ctx context.Context) ([]*domain.Entry, error) {
	start := time.Now()
	entries, err := uc.repo.List(ctx)
	uc.metrics.ObserveStore("list", start, err)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (uc *LedgerUseCase) update(ctx context.Context, entry *domain.Entry) error {
	start := time.Now()
	err := uc.repo.Update(ctx, entry)
	uc.metrics.ObserveStore("update", start, ignoreNotFound(err))
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return err
		}
		return fmt.Errorf("update entry %d: %w", entry.Seq, err)
	}

	uc.metrics.UpdateEntries(1)
	uc.publish(ctx, domain.EventTypeEntryUpdated, entry.Seq, entry)

	return nil
}

func (uc *LedgerUseCase) delete(ctx context.Context, seqs []int64) ([]int64, error) {
	start := time.Now()
	removed, err := uc.repo.Delete(ctx, dedupeSeqs(seqs))
	uc.metrics.ObserveStore("delete", start, err)
	if err != nil {
		return nil, fmt.Errorf("delete entries: %w", err)
	}

	uc.metrics.DeleteEntries(len(removed))
	for _, seq := range removed {
		uc.publish(ctx, domain.EventTypeEntryDeleted, seq, nil)
	}

	return removed, nil
}

func (uc *LedgerUseCase) publish(ctx context.Context, eventType string, seq int64, entry *domain.Entry) {
	if uc.publisher == nil {
		return
	}

	event := domain.NewChangeEvent(eventType, seq, entry, uc.clock.Now())
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.metrics.RecordPublishError()
		uc.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Int64("seq", seq).
			Msg("failed to publish change event")
	}
}

func (uc *LedgerUseCase) refreshState(ctx context.Context) {
	if uc.metrics == nil {
		return
	}

	entries, err := uc.repo.List(ctx)
	if err != nil {
		uc.logger.Debug().Err(err).Msg("skipping ledger gauges refresh")
		return
	}

	summary := domain.Summarize(entries)
	uc.metrics.SetLedgerState(summary.Count, summary.Total)
}

func (uc *LedgerUseCase) validate(err error) error {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		uc.metrics.RecordValidationError(verr.Field)
	}

	return err
}

func (uc *LedgerUseCase) validateTexts(affiliation, note string) error {
	if err := uc.validate(domain.ValidateText(domain.FieldAffiliation, affiliation)); err != nil {
		return err
	}
	return uc.validate(domain.ValidateText(domain.FieldNote, note))
}

func dedupeSeqs(seqs []int64) []int64 {
	seen := make(map[int64]struct{}, len(seqs))
	out := make([]int64, 0, len(seqs))

	for _, seq := range seqs {
		if _, ok := seen[seq]; ok {
			continue
		}
		seen[seq] = struct{}{}
		out = append(out, seq)
	}

	return out
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrEntryNotFound) {
		return nil
	}
	return err
}
