package board

import (
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"encoding/json"
	"fmt"
)

// Event is a remote change to a ticket, as applied by ApplyRemoteEvent
type Event interface {
	isEvent()
}

// Inserted carries a newly created ticket row
type Inserted struct {
	Ticket domain.Ticket
}

// Updated carries the changed row as JSON. Only keys present in Fields are
// merged onto the local ticket.
type Updated struct {
	ID     string
	Fields json.RawMessage
}

// Deleted names a removed ticket
type Deleted struct {
	ID string
}

func (Inserted) isEvent() {}
func (Updated) isEvent()  {}
func (Deleted) isEvent()  {}

// EventFromChange decodes a ticket change from the realtime topic
func EventFromChange(ev realtime.ChangeEvent) (Event, error) {
	if ev.Table != "" && ev.Table != "tickets" {
		return nil, fmt.Errorf("change on %q is not a ticket change", ev.Table)
	}
	switch ev.EventType {
	case realtime.Insert:
		var t domain.Ticket
		if err := json.Unmarshal(ev.New, &t); err != nil {
			return nil, fmt.Errorf("decode inserted ticket: %w", err)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("inserted ticket without id")
		}
		return Inserted{Ticket: t}, nil
	case realtime.Update:
		id, err := ev.RowID()
		if err != nil {
			return nil, err
		}
		return Updated{ID: id, Fields: ev.New}, nil
	case realtime.Delete:
		id, err := ev.RowID()
		if err != nil {
			return nil, err
		}
		return Deleted{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.EventType)
	}
}
