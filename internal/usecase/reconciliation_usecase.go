package usecase

import (
	"context"
	"fmt"

	"github.com/iho/giftledger/internal/domain"
)

// Outcome is the effect a snapshot had on the ledger.
type Outcome string

const (
	OutcomeNoop          Outcome = "noop"
	OutcomeDeletePending Outcome = "delete_pending"
	OutcomeDeleted       Outcome = "deleted"
	OutcomeEdited        Outcome = "edited"
)

// SnapshotRow is one row of an edited table view. Amount is the cell text as
// typed; it is parsed only when the row is applied as an edit.
type SnapshotRow struct {
	Name        string
	Affiliation string
	Note        string
	Amount      string
	Seq         int64
	Delete      bool
}

// ReconcileInput is a full table snapshot. ConfirmDelete must be set for
// flagged rows to actually be removed.
type ReconcileInput struct {
	Rows          []SnapshotRow
	ConfirmDelete bool
}

// ReconcileResult describes what Reconcile did.
type ReconcileResult struct {
	Outcome Outcome
	// Pending lists flagged sequence numbers awaiting confirmation.
	Pending []int64
	// Edited lists sequence numbers whose fields were rewritten.
	Edited  []int64
	Deleted int
}

// ReconciliationUseCase turns an edited table snapshot into ledger mutations.
type ReconciliationUseCase struct {
	ledger *LedgerUseCase
}

func NewReconciliationUseCase(ledger *LedgerUseCase) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledger: ledger}
}

// Reconcile classifies a snapshot and applies it.
//
// Rows flagged for deletion take precedence over any edits in the same
// snapshot. Without ConfirmDelete nothing is changed and the flagged rows
// are reported as pending. Otherwise rows whose fields differ from the store
// are rewritten. Rows with unknown sequence numbers are ignored and entries
// absent from the snapshot are left alone.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	l := uc.ledger

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.list(ctx)
	if err != nil {
		return nil, err
	}

	bySeq := make(map[int64]*domain.Entry, len(current))
	for _, e := range current {
		bySeq[e.Seq] = e
	}

	var flagged []int64
	for _, row := range input.Rows {
		if row.Delete {
			if _, ok := bySeq[row.Seq]; ok {
				flagged = append(flagged, row.Seq)
			}
		}
	}
	flagged = dedupeSeqs(flagged)

	if len(flagged) > 0 {
		return uc.applyDeletes(ctx, flagged, input.ConfirmDelete)
	}

	changed, err := uc.diff(input.Rows, bySeq)
	if err != nil {
		return nil, err
	}

	if len(changed) == 0 {
		l.metrics.RecordReconcile(string(OutcomeNoop))
		return &ReconcileResult{Outcome: OutcomeNoop}, nil
	}

	edited := make([]int64, 0, len(changed))
	for _, entry := range changed {
		if err := l.update(ctx, entry); err != nil {
			return nil, err
		}
		edited = append(edited, entry.Seq)
	}

	l.refreshState(ctx)
	l.metrics.RecordReconcile(string(OutcomeEdited))

	return &ReconcileResult{Outcome: OutcomeEdited, Edited: edited}, nil
}

func (uc *ReconciliationUseCase) applyDeletes(ctx context.Context, flagged []int64, confirmed bool) (*ReconcileResult, error) {
	l := uc.ledger

	if !confirmed {
		l.metrics.RecordReconcile(string(OutcomeDeletePending))
		return &ReconcileResult{Outcome: OutcomeDeletePending, Pending: flagged}, nil
	}

	removed, err := l.delete(ctx, flagged)
	if err != nil {
		return nil, err
	}

	l.refreshState(ctx)
	l.metrics.RecordReconcile(string(OutcomeDeleted))

	return &ReconcileResult{Outcome: OutcomeDeleted, Deleted: len(removed)}, nil
}

// diff validates every known row and returns the entries that need rewriting,
// in snapshot order. Nothing is written if any row is invalid. Rows with
// unknown sequence numbers are skipped before any parsing.
func (uc *ReconciliationUseCase) diff(rows []SnapshotRow, bySeq map[int64]*domain.Entry) ([]*domain.Entry, error) {
	l := uc.ledger

	pending := make(map[int64]*domain.Entry)
	var order []int64

	for _, row := range rows {
		existing, ok := bySeq[row.Seq]
		if !ok {
			continue
		}

		amount, err := domain.ParseAmount(row.Amount)
		if err := l.validate(err); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Seq, err)
		}
		texts := [][2]string{
			{domain.FieldName, row.Name},
			{domain.FieldAffiliation, row.Affiliation},
			{domain.FieldNote, row.Note},
		}
		for _, text := range texts {
			if err := l.validate(domain.ValidateText(text[0], text[1])); err != nil {
				return nil, fmt.Errorf("row %d: %w", row.Seq, err)
			}
		}

		candidate := existing.Clone()
		candidate.Name = row.Name
		candidate.Affiliation = row.Affiliation
		candidate.Note = row.Note
		candidate.Amount = amount
		candidate.Normalize()

		if _, seen := pending[row.Seq]; !seen {
			order = append(order, row.Seq)
		}
		pending[row.Seq] = candidate
	}

	var changed []*domain.Entry
	for _, seq := range order {
		if candidate := pending[seq]; !candidate.SameContent(bySeq[seq]) {
			changed = append(changed, candidate)
		}
	}

	return changed, nil
}
