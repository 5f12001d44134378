package service

import (
	"context"
	"fmt"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
)

type userService struct {
	users repository.UserRepository
}

func newUserService(users repository.UserRepository) *userService {
	return &userService{users: users}
}

// Actor returns the active user acting on a request
func (s *userService) Actor(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	if user == nil || !user.Active {
		return nil, apperr.Forbiddenf("unknown or inactive user %d", id)
	}
	return user, nil
}

// requireUser loads a referenced user, NotFound when absent
func requireUser(ctx context.Context, users repository.UserRepository, id int64) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %d not found", id)
	}
	return user, nil
}
