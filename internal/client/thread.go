package client

import (
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Watcher opens realtime subscriptions; *realtime.Bridge implements it
type Watcher interface {
	WatchComments(ctx context.Context, ticketID string, h realtime.Handler) (*realtime.Subscription, error)
}

// CommentThread keeps one ticket's comments current. Any inserted comment
// for the ticket triggers a full refetch so authors stay joined.
type CommentThread struct {
	client   *Client
	ticketID string

	mu       sync.Mutex
	comments []domain.Comment
	gen      uint64 // Bumped by every Load; older results are discarded
	closed   bool
	onChange func([]domain.Comment)
}

// NewCommentThread returns an empty thread for ticketID
func NewCommentThread(c *Client, ticketID string) *CommentThread {
	return &CommentThread{client: c, ticketID: ticketID}
}

// TicketID is the ticket the thread follows
func (t *CommentThread) TicketID() string {
	return t.ticketID
}

// OnChange registers fn to receive the list after every change
func (t *CommentThread) OnChange(fn func([]domain.Comment)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Comments returns a copy of the current list, oldest first
func (t *CommentThread) Comments() []domain.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Comment(nil), t.comments...)
}

// Load refetches the list from the API. A result that arrives after a
// newer Load was issued is dropped.
func (t *CommentThread) Load(ctx context.Context) error {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	comments, err := t.client.Comments(ctx, t.ticketID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	if t.closed || gen != t.gen {
		t.mu.Unlock()
		return nil
	}
	t.comments = comments
	fn, snapshot := t.onChange, append([]domain.Comment(nil), comments...)
	t.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
	return nil
}

// Post adds a comment and refreshes the list
func (t *CommentThread) Post(ctx context.Context, content string) (*domain.Comment, error) {
	comment, err := t.client.CreateComment(ctx, t.ticketID, content)
	if err != nil {
		return nil, err
	}
	return comment, t.Load(ctx)
}

// HandleChange reacts to one event from the ticket's comment topic
func (t *CommentThread) HandleChange(ctx context.Context, ev realtime.ChangeEvent) {
	if ev.EventType != realtime.Insert {
		return
	}
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return
	}
	if err := t.Load(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"ticket_id": t.ticketID,
			"error":     err.Error(),
		}).Warn("Comment refetch failed")
	}
}

// Watch subscribes the thread to its comment topic until ctx ends or the
// returned subscription is closed
func (t *CommentThread) Watch(ctx context.Context, w Watcher) (*realtime.Subscription, error) {
	return w.WatchComments(ctx, t.ticketID, func(ev realtime.ChangeEvent) {
		t.HandleChange(ctx, ev)
	})
}

// Close stops the thread from applying further results
func (t *CommentThread) Close() {
	t.mu.Lock()
	t.closed = true
	t.onChange = nil
	t.mu.Unlock()
}
