package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	Seq          int64            `json:"seq"`
	Name         string           `json:"name"`
	Affiliation  string           `json:"affiliation"`
	Amount       decimal.Decimal  `json:"amount"`
	Note         string           `json:"note"`
	CreatedAt    time.Time        `json:"created_at"`
	RunningTotal *decimal.Decimal `json:"running_total,omitempty"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		Seq:         e.Seq,
		Name:        e.Name,
		Affiliation: e.Affiliation,
		Amount:      e.Amount,
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

// EntriesFromTotaled converts totaled rows, keeping their order.
func EntriesFromTotaled(rows []domain.TotaledEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(rows))
	for i, row := range rows {
		resp := EntryFromDomain(row.Entry)
		total := row.RunningTotal
		resp.RunningTotal = &total
		result[i] = resp
	}
	return result
}

// ListEntriesResponse represents a list of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Order   string           `json:"order"`
	Count   int              `json:"count"`
	Total   decimal.Decimal  `json:"total"`
}

// NewListEntriesResponse builds the list body. The grand total is the largest
// running total, whatever order rows are in.
func NewListEntriesResponse(rows []domain.TotaledEntry, order domain.SortOrder) ListEntriesResponse {
	total := decimal.Zero
	for _, row := range rows {
		if row.RunningTotal.GreaterThan(total) {
			total = row.RunningTotal
		}
	}

	return ListEntriesResponse{
		Entries: EntriesFromTotaled(rows),
		Order:   string(order),
		Count:   len(rows),
		Total:   total,
	}
}

// SummaryResponse represents the summary panel.
type SummaryResponse struct {
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
	Latest *EntryResponse  `json:"latest,omitempty"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s domain.Summary) SummaryResponse {
	resp := SummaryResponse{Count: s.Count, Total: s.Total}
	if s.Latest != nil {
		resp.Latest = EntryFromDomain(s.Latest)
	}
	return resp
}

// DeleteEntriesResponse reports how many entries were removed.
type DeleteEntriesResponse struct {
	Deleted int `json:"deleted"`
}

// ReconcileResponse reports what a snapshot did.
type ReconcileResponse struct {
	Outcome string  `json:"outcome"`
	Pending []int64 `json:"pending,omitempty"`
	Edited  []int64 `json:"edited,omitempty"`
	Deleted int     `json:"deleted"`
}

// ReconcileFromResult converts a reconcile result to a response.
func ReconcileFromResult(r *usecase.ReconcileResult) ReconcileResponse {
	return ReconcileResponse{
		Outcome: string(r.Outcome),
		Pending: r.Pending,
		Edited:  r.Edited,
		Deleted: r.Deleted,
	}
}

// FormTokenResponse carries a fresh Idempotency-Key for the entry form.
type FormTokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
