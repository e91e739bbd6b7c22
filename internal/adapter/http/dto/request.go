package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iho/giftledger/internal/usecase"
)

// Amount accepts either a JSON string ("5", "10,5") or a JSON number (5, 10.5)
// and keeps the raw text for domain parsing.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = Amount(n.String())
	return nil
}

// CreateEntryRequest is the body of POST /api/v1/entries.
type CreateEntryRequest struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Amount      Amount `json:"amount"`
	Note        string `json:"note"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.AddEntryInput {
	return usecase.AddEntryInput{
		Name:        r.Name,
		Affiliation: r.Affiliation,
		Amount:      string(r.Amount),
		Note:        r.Note,
	}
}

// UpdateEntryRequest is the body of PATCH /api/v1/entries/{seq}.
// Omitted fields are left unchanged.
type UpdateEntryRequest struct {
	Name        *string `json:"name,omitempty"`
	Affiliation *string `json:"affiliation,omitempty"`
	Amount      *Amount `json:"amount,omitempty"`
	Note        *string `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput() usecase.UpdateEntryInput {
	input := usecase.UpdateEntryInput{
		Name:        r.Name,
		Affiliation: r.Affiliation,
		Note:        r.Note,
	}
	if r.Amount != nil {
		amount := string(*r.Amount)
		input.Amount = &amount
	}
	return input
}

// DeleteEntriesRequest is the body of POST /api/v1/entries/delete.
type DeleteEntriesRequest struct {
	SequenceNumbers []int64 `json:"sequence_numbers"`
}

// SnapshotRowRequest is one visible table row.
type SnapshotRowRequest struct {
	Seq         int64  `json:"seq"`
	Delete      bool   `json:"delete"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Amount      Amount `json:"amount"`
	Note        string `json:"note"`
}

// SnapshotRequest is the body of POST /api/v1/entries/snapshot.
type SnapshotRequest struct {
	Rows          []SnapshotRowRequest `json:"rows"`
	ConfirmDelete bool                 `json:"confirm_delete"`
}

// ToUseCaseInput converts to use case input. Amounts are passed through as
// text and parsed only for rows that end up being edited.
func (r *SnapshotRequest) ToUseCaseInput() usecase.ReconcileInput {
	rows := make([]usecase.SnapshotRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = usecase.SnapshotRow{
			Seq:         row.Seq,
			Delete:      row.Delete,
			Name:        row.Name,
			Affiliation: row.Affiliation,
			Amount:      string(row.Amount),
			Note:        row.Note,
		}
	}

	return usecase.ReconcileInput{Rows: rows, ConfirmDelete: r.ConfirmDelete}
}
