// Package board keeps one project's ticket list consistent across the
// initial fetch, optimistic local edits and realtime change events.
package board

import (
	"bug_tracker/internal/client"
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownTicket = errors.New("ticket is not on this board")
	ErrInvalidStatus = errors.New("invalid ticket status")
	ErrClosed        = errors.New("board is closed")
)

// FetchError reports a failed snapshot load
type FetchError struct {
	ProjectID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load tickets of project %s: %v", e.ProjectID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// API is the part of the resource client the board drives
type API interface {
	Tickets(ctx context.Context, projectID string) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, t client.NewTicket) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, u client.TicketUpdate) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
}

// Watcher opens the ticket change subscription; *realtime.Bridge implements it
type Watcher interface {
	WatchTickets(ctx context.Context, h realtime.Handler) (*realtime.Subscription, error)
}

// Reconciler owns the ticket list of one project. It is the only place the
// list changes; views render Snapshot or the OnChange callback.
type Reconciler struct {
	api       API
	projectID string
	log       *logrus.Entry

	mu       sync.Mutex
	tickets  []domain.Ticket
	gen      uint64 // Bumped by every Load; older results are discarded
	closed   bool
	onChange func([]domain.Ticket)

	// While any Load is in flight every mutation is journaled so it can be
	// replayed onto the snapshot that Load installs. base is the absolute
	// position of journal[0].
	pending int
	journal []func() bool
	base    int
}

// New returns an empty board for projectID; call Load to fill it
func New(api API, projectID string) *Reconciler {
	return &Reconciler{
		api:       api,
		projectID: projectID,
		log:       logrus.WithField("project_id", projectID),
	}
}

// ProjectID is the project the board is bound to
func (r *Reconciler) ProjectID() string {
	return r.projectID
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs outside the board lock.
func (r *Reconciler) OnChange(fn func([]domain.Ticket)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Snapshot returns a copy of the current list in board order
func (r *Reconciler) Snapshot() []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Ticket(nil), r.tickets...)
}

// Ticket returns the ticket with id, if it is on the board
func (r *Reconciler) Ticket(id string) (domain.Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.index(id); i >= 0 {
		return r.tickets[i], true
	}
	return domain.Ticket{}, false
}

// Column returns the visible tickets of one status column
func (r *Reconciler) Column(status domain.Status, f Filter) []domain.Ticket {
	return Visible(r.Snapshot(), status, f)
}

// Load replaces the list with a fresh server snapshot. Changes applied
// while the fetch was in flight are replayed onto the snapshot in the
// order they arrived. A result that arrives after a newer Load was issued,
// or after Close, is dropped.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.gen++
	gen := r.gen
	r.pending++
	mark := r.base + len(r.journal)
	r.mu.Unlock()

	tickets, err := r.api.Tickets(ctx, r.projectID)

	r.mu.Lock()
	defer r.settle()
	if err != nil {
		r.mu.Unlock()
		return &FetchError{ProjectID: r.projectID, Err: err}
	}
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		return nil
	}
	r.tickets = r.tickets[:0:0]
	seen := make(map[string]bool, len(tickets))
	for _, t := range tickets {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		r.tickets = append(r.tickets, t)
	}
	for _, op := range r.journal[mark-r.base:] {
		op()
	}
	notify := r.changed()
	r.mu.Unlock()
	notify()
	return nil
}

// settle retires one in-flight Load and drops the journal once none is left
func (r *Reconciler) settle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 {
		r.base += len(r.journal)
		r.journal = nil
	}
}

// apply runs op on the list and journals it while a Load is in flight
func (r *Reconciler) apply(op func() bool) bool {
	if r.pending > 0 {
		r.journal = append(r.journal, op)
	}
	return op()
}

// ApplyLocalMove moves a ticket to status immediately, before the server
// has confirmed anything
func (r *Reconciler) ApplyLocalMove(id string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.index(id) < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTicket, id)
	}
	r.apply(func() bool { return r.setStatus(id, status) })
	notify := r.changed()
	r.mu.Unlock()
	notify()
	return nil
}

// ConfirmMove sends the move to the server. When the server refuses, the
// board resyncs with a full Load and the refusal is returned.
func (r *Reconciler) ConfirmMove(ctx context.Context, id string, status domain.Status) error {
	_, err := r.api.UpdateTicket(ctx, id, client.TicketUpdate{Status: &status})
	if err == nil {
		return nil
	}
	r.log.WithFields(logrus.Fields{
		"ticket_id": id,
		"status":    status,
		"error":     err.Error(),
	}).Warn("Move rejected, reloading board")
	if loadErr := r.Load(ctx); loadErr != nil && !errors.Is(loadErr, ErrClosed) {
		r.log.WithField("error", loadErr.Error()).Error("Board resync failed")
		return errors.Join(err, loadErr)
	}
	return err
}

// Move is ApplyLocalMove followed by ConfirmMove. Moving a ticket onto
// its current column does nothing.
func (r *Reconciler) Move(ctx context.Context, id string, status domain.Status) error {
	if t, ok := r.Ticket(id); ok && t.Status == status {
		return nil
	}
	if err := r.ApplyLocalMove(id, status); err != nil {
		return err
	}
	return r.ConfirmMove(ctx, id, status)
}

// ApplyRemoteEvent folds one realtime change into the list
func (r *Reconciler) ApplyRemoteEvent(ev Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	notify := func() {}
	if r.apply(func() bool { return r.fold(ev) }) {
		notify = r.changed()
	}
	r.mu.Unlock()
	notify()
}

// HandleChange decodes a realtime ticket change and applies it. It has the
// realtime.Handler signature.
func (r *Reconciler) HandleChange(ev realtime.ChangeEvent) {
	event, err := EventFromChange(ev)
	if err != nil {
		r.log.WithField("error", err.Error()).Warn("Ignoring undecodable ticket change")
		return
	}
	r.ApplyRemoteEvent(event)
}

// Watch feeds the ticket topic into the board until ctx ends or the
// subscription is closed
func (r *Reconciler) Watch(ctx context.Context, w Watcher) (*realtime.Subscription, error) {
	return w.WatchTickets(ctx, r.HandleChange)
}

// CreateLocal adds a ticket the server returned from a create call. If its
// Inserted event got here first, the existing entry is replaced in place.
func (r *Reconciler) CreateLocal(t domain.Ticket) {
	r.mu.Lock()
	if r.closed || t.ProjectID != r.projectID {
		r.mu.Unlock()
		return
	}
	r.apply(func() bool { return r.upsert(t) })
	notify := r.changed()
	r.mu.Unlock()
	notify()
}

// Create creates a ticket on this board's project and adds it
func (r *Reconciler) Create(ctx context.Context, t client.NewTicket) (*domain.Ticket, error) {
	t.ProjectID = r.projectID
	created, err := r.api.CreateTicket(ctx, t)
	if err != nil {
		return nil, err
	}
	r.CreateLocal(*created)
	return created, nil
}

// Edit sends a partial update and stores the ticket the server returns
func (r *Reconciler) Edit(ctx context.Context, id string, u client.TicketUpdate) (*domain.Ticket, error) {
	updated, err := r.api.UpdateTicket(ctx, id, u)
	if err != nil {
		return nil, err
	}
	stored := *updated
	r.mu.Lock()
	if r.closed || !r.apply(func() bool { return r.replace(stored) }) {
		r.mu.Unlock()
		return updated, nil
	}
	notify := r.changed()
	r.mu.Unlock()
	notify()
	return updated, nil
}

// RemoveLocal drops the ticket at once and then asks the server to delete
// it. A failed delete is logged and returned; the ticket stays removed
// locally.
func (r *Reconciler) RemoveLocal(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	notify := func() {}
	if r.apply(func() bool { return r.remove(id) }) {
		notify = r.changed()
	}
	r.mu.Unlock()
	notify()

	if err := r.api.DeleteTicket(ctx, id); err != nil {
		r.log.WithFields(logrus.Fields{
			"ticket_id": id,
			"error":     err.Error(),
		}).Error("Ticket delete failed")
		return err
	}
	return nil
}

// Close stops the board; later loads and events are ignored
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.onChange = nil
	r.base += len(r.journal)
	r.journal = nil
	r.mu.Unlock()
}

func (r *Reconciler) index(id string) int {
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			return i
		}
	}
	return -1
}

// fold applies one remote event. Every case is idempotent.
func (r *Reconciler) fold(ev Event) bool {
	switch e := ev.(type) {
	case Inserted:
		if e.Ticket.ProjectID == r.projectID && r.index(e.Ticket.ID) < 0 {
			r.tickets = append(r.tickets, e.Ticket)
			return true
		}
	case Updated:
		return r.merge(e)
	case Deleted:
		return r.remove(e.ID)
	}
	return false
}

func (r *Reconciler) setStatus(id string, status domain.Status) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.tickets[i].Status = status
	return true
}

func (r *Reconciler) upsert(t domain.Ticket) bool {
	if i := r.index(t.ID); i >= 0 {
		r.tickets[i] = t
	} else {
		r.tickets = append(r.tickets, t)
	}
	return true
}

// replace swaps in t only when it is already on the board
func (r *Reconciler) replace(t domain.Ticket) bool {
	i := r.index(t.ID)
	if i < 0 {
		return false
	}
	r.tickets[i] = t
	return true
}

func (r *Reconciler) remove(id string) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.tickets = append(r.tickets[:i], r.tickets[i+1:]...)
	return true
}

// merge overlays the keys carried by an update onto the local ticket.
// Joined names survive unless the assignee itself changed.
func (r *Reconciler) merge(e Updated) bool {
	i := r.index(e.ID)
	if i < 0 {
		return false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(e.Fields, &keys); err != nil {
		r.log.WithField("error", err.Error()).Warn("Ignoring malformed ticket update")
		return false
	}
	cur := r.tickets[i]
	merged := detach(cur)
	if err := json.Unmarshal(e.Fields, &merged); err != nil {
		r.log.WithField("error", err.Error()).Warn("Ignoring malformed ticket update")
		return false
	}
	merged.ID = cur.ID
	if !merged.Status.Valid() {
		r.log.WithFields(logrus.Fields{
			"ticket_id": cur.ID,
			"status":    merged.Status,
		}).Warn("Ignoring update with unknown status")
		return false
	}
	if _, named := keys["assignee"]; !named && !sameID(cur.AssigneeID, merged.AssigneeID) {
		merged.Assignee = nil
	}
	if merged.ProjectID != r.projectID {
		r.tickets = append(r.tickets[:i], r.tickets[i+1:]...)
		return true
	}
	r.tickets[i] = merged
	return true
}

// changed captures the snapshot and callback to run once the lock is released
func (r *Reconciler) changed() func() {
	fn := r.onChange
	if fn == nil {
		return func() {}
	}
	snapshot := append([]domain.Ticket(nil), r.tickets...)
	return func() { fn(snapshot) }
}

// detach copies t so that decoding into the copy cannot write through
// pointers shared with the original
func detach(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	if t.Creator != nil {
		c := *t.Creator
		t.Creator = &c
	}
	if t.Assignee != nil {
		a := *t.Assignee
		t.Assignee = &a
	}
	t.Project = nil
	return t
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
