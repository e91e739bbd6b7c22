package domain

import "github.com/shopspring/decimal"

// TotaledEntry pairs an entry with the cumulative amount up to and including it.
type TotaledEntry struct {
	Entry        *Entry
	RunningTotal decimal.Decimal
}

// RunningTotals computes the prefix sum of amounts in ascending sequence
// order, whatever order the input is in. The result is ascending.
func RunningTotals(entries []*Entry) []TotaledEntry {
	sorted := SortEntries(entries, Ascending)
	result := make([]TotaledEntry, len(sorted))

	total := decimal.Zero
	for i, e := range sorted {
		total = total.Add(e.Amount)
		result[i] = TotaledEntry{Entry: e, RunningTotal: total}
	}

	return result
}

// Summary is the headline view of the ledger.
type Summary struct {
	Latest *Entry
	Total  decimal.Decimal
	Count  int
}

// Summarize counts entries, totals their amounts and picks the most recently
// added one (highest sequence number).
func Summarize(entries []*Entry) Summary {
	s := Summary{Total: decimal.Zero, Count: len(entries)}

	for _, e := range entries {
		s.Total = s.Total.Add(e.Amount)
		if s.Latest == nil || e.Seq > s.Latest.Seq {
			s.Latest = e
		}
	}

	return s
}
