package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

func sampleEntries() []*domain.Entry {
	at := time.Date(2026, 5, 9, 11, 0, 0, 0, time.UTC)
	return []*domain.Entry{
		{Seq: 1, Name: "A", Affiliation: "-", Amount: decimal.NewFromInt(5), Note: "-", CreatedAt: at},
		{Seq: 2, Name: "B", Affiliation: "-", Amount: decimal.RequireFromString("10.5"), Note: "-", CreatedAt: at},
	}
}

func TestNewListEntriesResponseDescending(t *testing.T) {
	rows := domain.RunningTotals(sampleEntries())
	// newest first
	rows[0], rows[1] = rows[1], rows[0]

	resp := NewListEntriesResponse(rows, domain.Descending)

	if resp.Count != 2 || resp.Order != "desc" {
		t.Fatalf("unexpected header fields: %+v", resp)
	}
	if !resp.Total.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("expected total 15.5, got %s", resp.Total)
	}
	if resp.Entries[0].Seq != 2 || !resp.Entries[0].RunningTotal.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("unexpected first row: %+v", resp.Entries[0])
	}
}

func TestEntryResponseJSONShape(t *testing.T) {
	data, err := json.Marshal(EntryFromDomain(sampleEntries()[1]))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if raw["amount"] != "10.5" {
		t.Fatalf("expected amount as string, got %v", raw["amount"])
	}
	if _, ok := raw["running_total"]; ok {
		t.Fatalf("running_total should be omitted for a single entry")
	}
}

func TestSummaryFromDomainEmpty(t *testing.T) {
	resp := SummaryFromDomain(domain.Summarize(nil))
	if resp.Count != 0 || resp.Latest != nil || !resp.Total.IsZero() {
		t.Fatalf("unexpected empty summary: %+v", resp)
	}
}

func TestReconcileFromResult(t *testing.T) {
	resp := ReconcileFromResult(&usecase.ReconcileResult{
		Outcome: usecase.OutcomeDeletePending,
		Pending: []int64{3, 4},
	})

	if resp.Outcome != "delete_pending" || len(resp.Pending) != 2 || resp.Deleted != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
