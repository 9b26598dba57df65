package store

import (
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"context"
	"fmt"
)

// ListProjects returns all projects, newest first
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&projects).Error
	return projects, err
}

// CreateProject inserts a project
func (s *Store) CreateProject(ctx context.Context, project *domain.Project) error {
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// DeleteProject removes a project. Its tickets and their comments go with
// it through the foreign key cascade; a DELETE event is still published
// for each ticket so open boards drop them.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	var tickets []domain.Ticket
	if err := s.db.WithContext(ctx).Where("project_id = ?", id).Find(&tickets).Error; err != nil {
		return fmt.Errorf("load project tickets: %w", err)
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Project{})
	if res.Error != nil {
		return fmt.Errorf("delete project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	for _, t := range tickets {
		s.notify(ctx, realtime.TicketsTopic, realtime.Delete, "tickets", nil, t.Row())
	}
	return nil
}
