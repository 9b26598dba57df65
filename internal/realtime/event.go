// Package realtime carries row-level change events between the store and
// subscribed clients over Redis pub/sub.
package realtime

import (
	"encoding/json"
	"fmt"
)

// EventType names the row operation a change event describes
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// TicketsTopic receives every ticket change regardless of project
const TicketsTopic = "tickets"

// CommentsTopic returns the topic carrying comment changes for one ticket
func CommentsTopic(ticketID string) string {
	return "comments:" + ticketID
}

// ChangeEvent is the wire form of a row change. New holds the row after
// INSERT and UPDATE, Old holds the removed row on DELETE.
type ChangeEvent struct {
	EventType EventType       `json:"eventType"`
	Table     string          `json:"table"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
}

// NewChange builds a change event, encoding whichever rows are non-nil
func NewChange(eventType EventType, table string, newRow, oldRow any) (ChangeEvent, error) {
	ev := ChangeEvent{EventType: eventType, Table: table}
	if newRow != nil {
		raw, err := json.Marshal(newRow)
		if err != nil {
			return ev, fmt.Errorf("encode new row: %w", err)
		}
		ev.New = raw
	}
	if oldRow != nil {
		raw, err := json.Marshal(oldRow)
		if err != nil {
			return ev, fmt.Errorf("encode old row: %w", err)
		}
		ev.Old = raw
	}
	return ev, nil
}

// RowID extracts the "id" of the row the event is about
func (ev ChangeEvent) RowID() (string, error) {
	raw := ev.New
	if ev.EventType == Delete || len(raw) == 0 {
		raw = ev.Old
	}
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return "", fmt.Errorf("decode %s row: %w", ev.EventType, err)
	}
	if row.ID == "" {
		return "", fmt.Errorf("%s event without row id", ev.EventType)
	}
	return row.ID, nil
}
