package store

import (
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"context"
	"fmt"
)

// ListComments returns a ticket's comments oldest first with authors joined
func (s *Store) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := s.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("created_at asc").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if err := s.joinAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment stores a comment on an existing ticket and publishes an
// INSERT event on that ticket's comment topic
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Ticket{}).Where("id = ?", comment.TicketID).Count(&count).Error; err != nil {
		return fmt.Errorf("check ticket: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("ticket %s: %w", comment.TicketID, ErrInvalidReference)
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	row := *comment
	row.Ticket, row.Author = nil, nil
	s.notify(ctx, realtime.CommentsTopic(comment.TicketID), realtime.Insert, "comments", row, nil)

	comments := []domain.Comment{*comment}
	if err := s.joinAuthors(ctx, comments); err != nil {
		return err
	}
	*comment = comments[0]
	return nil
}

func (s *Store) joinAuthors(ctx context.Context, comments []domain.Comment) error {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	refs, err := s.userRefs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].Author = refs[comments[i].UserID]
	}
	return nil
}
