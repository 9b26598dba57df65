package store

import (
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"context"
	"fmt"
)

// TicketPatch carries the fields of a partial ticket update. Nil pointers
// leave the column untouched; AssigneeSet distinguishes "unassign" (nil
// AssigneeID) from "leave as is".
type TicketPatch struct {
	Title         *string
	Description   *string
	Status        *domain.Status
	Priority      *domain.Priority
	AttachmentURL *string
	AssigneeSet   bool
	AssigneeID    *string
}

// Empty reports whether the patch changes nothing
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.AttachmentURL == nil && !p.AssigneeSet
}

func (p TicketPatch) columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	if p.AttachmentURL != nil {
		cols["attachment_url"] = *p.AttachmentURL
	}
	if p.AssigneeSet {
		cols["assignee_id"] = p.AssigneeID
	}
	return cols
}

// ListTickets returns a project's tickets newest first, with creator and
// assignee display data joined
func (s *Store) ListTickets(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if err := s.joinTicketUsers(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicket returns one ticket with display data joined
func (s *Store) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error; err != nil {
		return nil, notFound(err)
	}
	tickets := []domain.Ticket{ticket}
	if err := s.joinTicketUsers(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

// CreateTicket inserts a ticket into an existing project and publishes an
// INSERT event carrying the stored row
func (s *Store) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", ticket.ProjectID).Count(&count).Error; err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("project %s: %w", ticket.ProjectID, ErrInvalidReference)
	}
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	s.notify(ctx, realtime.TicketsTopic, realtime.Insert, "tickets", ticket.Row(), nil)

	tickets := []domain.Ticket{*ticket}
	if err := s.joinTicketUsers(ctx, tickets); err != nil {
		return err
	}
	*ticket = tickets[0]
	return nil
}

// UpdateTicket applies patch and publishes an UPDATE event with the new row
func (s *Store) UpdateTicket(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	// Existence is checked up front: MySQL reports zero affected rows for
	// an update that leaves values unchanged.
	if _, err := s.GetTicket(ctx, id); err != nil {
		return nil, err
	}
	if patch.AssigneeSet && patch.AssigneeID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", *patch.AssigneeID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check assignee: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("assignee %s: %w", *patch.AssigneeID, ErrInvalidReference)
		}
	}
	if !patch.Empty() {
		err := s.db.WithContext(ctx).Model(&domain.Ticket{}).Where("id = ?", id).Updates(patch.columns()).Error
		if err != nil {
			return nil, fmt.Errorf("update ticket: %w", err)
		}
	}
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patch.Empty() {
		s.notify(ctx, realtime.TicketsTopic, realtime.Update, "tickets", ticket.Row(), nil)
	}
	return ticket, nil
}

// DeleteTicket removes a ticket and publishes a DELETE event with the old row
func (s *Store) DeleteTicket(ctx context.Context, id string) error {
	var ticket domain.Ticket
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error; err != nil {
		return notFound(err)
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("delete ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx, realtime.TicketsTopic, realtime.Delete, "tickets", nil, ticket.Row())
	return nil
}

func (s *Store) joinTicketUsers(ctx context.Context, tickets []domain.Ticket) error {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, t := range tickets {
		add(t.CreatedBy)
		if t.AssigneeID != nil {
			add(*t.AssigneeID)
		}
	}
	refs, err := s.userRefs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range tickets {
		tickets[i].Creator = refs[tickets[i].CreatedBy]
		if tickets[i].AssigneeID != nil {
			tickets[i].Assignee = refs[*tickets[i].AssigneeID]
		}
	}
	return nil
}
