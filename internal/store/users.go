package store

import (
	"bug_tracker/internal/domain"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateUser inserts a new user. The email is stored lowercase and must be
// unused, otherwise ErrDuplicate is returned.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}
	return s.insertUser(ctx, user)
}

// insertUser relies on the unique email index for registrations that race
// past the count check
func (s *Store) insertUser(ctx context.Context, user *domain.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmail looks a user up by (case-insensitive) email
func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListUsers returns every user ordered by name
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.db.WithContext(ctx).Select("id", "full_name", "email").Order("full_name asc").Find(&users).Error
	return users, err
}

// userRefs loads display data for the given user ids
func (s *Store) userRefs(ctx context.Context, ids []string) (map[string]*domain.UserRef, error) {
	refs := make(map[string]*domain.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	var rows []domain.UserRef
	if err := s.db.WithContext(ctx).Select("id", "full_name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range rows {
		refs[rows[i].ID] = &rows[i]
	}
	return refs, nil
}
