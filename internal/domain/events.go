package domain

import "time"

// Event types
const (
	EventTypeEntryAdded   = "entry.added"
	EventTypeEntryUpdated = "entry.updated"
	EventTypeEntryDeleted = "entry.deleted"
)

// ChangeEvent describes a mutation of the ledger after it has been applied.
type ChangeEvent struct {
	OccurredAt time.Time
	Payload    *EntryPayload
	Type       string
	Seq        int64
}

// EntryPayload is the wire form of an entry carried by change events.
// It is nil for deletions.
type EntryPayload struct {
	Seq         int64  `json:"seq"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Amount      string `json:"amount"`
	Note        string `json:"note"`
	CreatedAt   string `json:"created_at"`
}

// NewChangeEvent builds an event for e. A nil entry is only valid for deletions.
func NewChangeEvent(eventType string, seq int64, e *Entry, at time.Time) *ChangeEvent {
	event := &ChangeEvent{
		Type:       eventType,
		Seq:        seq,
		OccurredAt: at,
	}

	if e != nil {
		event.Payload = &EntryPayload{
			Seq:         e.Seq,
			Name:        e.Name,
			Affiliation: e.Affiliation,
			Amount:      e.Amount.String(),
			Note:        e.Note,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		}
	}

	return event
}
