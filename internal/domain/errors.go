package domain

import "errors"

var (
	// Entry errors
	ErrEntryNotFound = errors.New("entry not found")

	// Listing errors
	ErrInvalidSortOrder = errors.New("invalid sort order")
)
