package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder selects how entries are ordered by sequence number.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder parses "asc" or "desc". An empty string yields def.
func ParseSortOrder(s string, def SortOrder) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
	}
}

// SortEntries returns a new slice ordered by Seq. The input is left untouched.
func SortEntries(entries []*Entry, order SortOrder) []*Entry {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		if order == Descending {
			return sorted[i].Seq > sorted[j].Seq
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	return sorted
}
