package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRunningTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []*Entry
		want    []string
	}{
		{
			name: "empty ledger",
			want: nil,
		},
		{
			name: "unsorted input accumulates by seq",
			entries: []*Entry{
				{Seq: 3, Amount: decimal.NewFromInt(3)},
				{Seq: 1, Amount: decimal.NewFromInt(5)},
				{Seq: 2, Amount: decimal.NewFromInt(10)},
			},
			want: []string{"5", "15", "18"},
		},
		{
			name: "gaps and fractional amounts",
			entries: []*Entry{
				{Seq: 1, Amount: decimal.RequireFromString("0.5")},
				{Seq: 7, Amount: decimal.Zero},
				{Seq: 4, Amount: decimal.RequireFromString("2.25")},
			},
			want: []string{"0.5", "2.75", "2.75"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := RunningTotals(tt.entries)
			if len(rows) != len(tt.want) {
				t.Fatalf("expected %d rows, got %d", len(tt.want), len(rows))
			}

			for i, row := range rows {
				if i > 0 && rows[i-1].Entry.Seq >= row.Entry.Seq {
					t.Fatalf("rows not ascending at %d", i)
				}
				if !row.RunningTotal.Equal(decimal.RequireFromString(tt.want[i])) {
					t.Fatalf("row %d: total %s, want %s", i, row.RunningTotal, tt.want[i])
				}
			}
		})
	}
}

func TestRunningTotalsLastEqualsSum(t *testing.T) {
	t.Parallel()

	entries := []*Entry{
		{Seq: 10, Amount: decimal.NewFromInt(7)},
		{Seq: 2, Amount: decimal.NewFromInt(11)},
		{Seq: 5, Amount: decimal.NewFromInt(13)},
	}

	rows := RunningTotals(entries)
	summary := Summarize(entries)

	if !rows[len(rows)-1].RunningTotal.Equal(summary.Total) {
		t.Fatalf("last running total %s differs from sum %s", rows[len(rows)-1].RunningTotal, summary.Total)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	empty := Summarize(nil)
	if empty.Count != 0 || !empty.Total.IsZero() || empty.Latest != nil {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}

	s := Summarize([]*Entry{
		{Seq: 2, Name: "B", Amount: decimal.NewFromInt(10)},
		{Seq: 9, Name: "C", Amount: decimal.NewFromInt(1)},
		{Seq: 1, Name: "A", Amount: decimal.NewFromInt(5)},
	})

	if s.Count != 3 || !s.Total.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Latest.Name != "C" {
		t.Fatalf("expected latest to be the highest seq, got %q", s.Latest.Name)
	}
}
