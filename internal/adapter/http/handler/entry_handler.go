package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/giftledger/internal/adapter/http/dto"
	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

// EntryService defines the ledger behavior needed by EntryHandler.
type EntryService interface {
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*domain.Entry, error)
	ListWithTotals(ctx context.Context, order domain.SortOrder) ([]domain.TotaledEntry, error)
	GetEntry(ctx context.Context, seq int64) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, seq int64, input usecase.UpdateEntryInput) (*domain.Entry, error)
	DeleteEntries(ctx context.Context, seqs []int64) (int, error)
	Summary(ctx context.Context) (domain.Summary, error)
}

// SnapshotService applies edited table snapshots.
type SnapshotService interface {
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileResult, error)
}

// EntryHandler handles gift entry HTTP requests.
type EntryHandler struct {
	ledger     EntryService
	reconciler SnapshotService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger EntryService, reconciler SnapshotService) *EntryHandler {
	return &EntryHandler{ledger: ledger, reconciler: reconciler}
}

// Create adds a gift.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.AddEntry(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// List returns all entries with running totals, newest first unless
// ?order=asc is given.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	order, err := domain.ParseSortOrder(r.URL.Query().Get("order"), domain.Descending)
	if err != nil {
		writeDomainError(w, "invalid order", err)
		return
	}

	rows, err := h.ledger.ListWithTotals(r.Context(), order)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListEntriesResponse(rows, order))
}

// Get retrieves one entry.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeqParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sequence number", "")
		return
	}

	entry, err := h.ledger.GetEntry(r.Context(), seq)
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Update applies a partial edit.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeqParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sequence number", "")
		return
	}

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.UpdateEntry(r.Context(), seq, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to update entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Delete removes a set of entries. Unknown sequence numbers are ignored.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	deleted, err := h.ledger.DeleteEntries(r.Context(), req.SequenceNumbers)
	if err != nil {
		writeDomainError(w, "failed to delete entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteEntriesResponse{Deleted: deleted})
}

// Snapshot reconciles a full table snapshot against the ledger.
func (h *EntryHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	var req dto.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to apply snapshot", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconcileFromResult(result))
}

// Summary returns count, total and the latest entry.
func (h *EntryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load summary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}
