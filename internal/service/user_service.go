package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-mini/pkg/errorutil"
)

// UserService exposes admin-only user management.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ListUsers returns all active users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewAccessDenied("only admins can view all users")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListAgents returns active agents and admins, the candidate assignees for
// assignment pickers. Available to agents and admins.
func (s *UserService) ListAgents(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !actor.Role.CanBeAssignee() {
		return nil, apperrors.NewAccessDenied("only agents and admins can view the agent list")
	}
	agents, err := s.users.ListAgents(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// UpdateRole changes a user's role. Admin only; the new role must be one of
// user, agent, admin.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewAccessDenied("only admins can update user roles")
	}
	if !role.IsValid() {
		return nil, apperrors.NewDomainError("INVALID_ROLE", "invalid role specified",
			http.StatusBadRequest, map[string]any{"field": "role"})
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Deactivate disables an account. Admin only, and admins cannot deactivate
// themselves. A deactivated user fails login and every authenticated
// request; their tickets and comments remain.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewAccessDenied("only admins can deactivate users")
	}
	if userID == actor.ID {
		return nil, apperrors.NewDomainError("SELF_DEACTIVATION", "cannot deactivate your own account",
			http.StatusBadRequest, nil)
	}
	user, err := s.users.SetActive(ctx, userID, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
