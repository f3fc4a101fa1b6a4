package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
)

// UserService lists users for task assignment
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListTeamMembers returns every team-role user. Only leads may list them.
func (s *UserService) ListTeamMembers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if actor == nil || actor.Role != models.RoleLead {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.ListByRole(ctx, models.RoleTeam)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return users, nil
}
