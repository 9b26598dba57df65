package board

import (
	"bug_tracker/internal/domain"
	"strings"
)

// Filter narrows a board column. The zero value shows everything.
type Filter struct {
	Query    string // Case-insensitive substring of the title
	Priority string // "", "all" or a domain.Priority
}

// Matches reports whether t passes the filter
func (f Filter) Matches(t domain.Ticket) bool {
	if f.Priority != "" && f.Priority != "all" && string(t.Priority) != f.Priority {
		return false
	}
	if f.Query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Query))
}

// Visible returns the tickets in the status column that pass f, keeping
// their order. The input is not modified.
func Visible(tickets []domain.Ticket, status domain.Status, f Filter) []domain.Ticket {
	var out []domain.Ticket
	for _, t := range tickets {
		if t.Status == status && f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
