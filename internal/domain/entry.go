package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder is stored in place of a blank text field.
const Placeholder = "-"

// Entry is one recorded cash gift.
type Entry struct {
	CreatedAt   time.Time
	Name        string
	Affiliation string
	Note        string
	Amount      decimal.Decimal
	Seq         int64
}

// NormalizeText trims s and replaces a blank value with Placeholder.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	return s
}

// Normalize applies blank-to-placeholder normalization to every text field.
func (e *Entry) Normalize() {
	e.Name = NormalizeText(e.Name)
	e.Affiliation = NormalizeText(e.Affiliation)
	e.Note = NormalizeText(e.Note)
}

// SameContent reports whether both entries carry the same stored fields.
// Derived values such as running totals are not part of an entry.
func (e *Entry) SameContent(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Seq == other.Seq &&
		e.Name == other.Name &&
		e.Affiliation == other.Affiliation &&
		e.Note == other.Note &&
		e.Amount.Equal(other.Amount) &&
		e.CreatedAt.Equal(other.CreatedAt)
}

// Clone returns a copy that can be mutated without touching e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}
