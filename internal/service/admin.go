package service

import (
	"context"
	"errors"
	"time"

	"bioplus/api/internal/model"
	"bioplus/api/internal/repository"
)

// AdminStore covers the account-management queries available to admin and
// owner roles.
type AdminStore interface {
	ListUsers(ctx context.Context, limit int) ([]model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	UpdateUserStatus(ctx context.Context, userID, status string) error
	UpdateUserRole(ctx context.Context, userID, role string) error
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type AdminService struct {
	store AdminStore
}

func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) ListUsers(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListUsers(ctx, limit)
}

// SetUserStatus toggles an account between active and suspended. Pending
// accounts only become active through email verification, so any other
// target status is rejected.
func (s *AdminService) SetUserStatus(ctx context.Context, userID, status string) (model.User, error) {
	if status != model.StatusActive && status != model.StatusSuspended {
		return model.User{}, ErrInvalidStatus
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if user.Status != model.StatusActive && user.Status != model.StatusSuspended {
		return model.User{}, ErrInvalidStatus
	}

	if err := s.store.UpdateUserStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	user.Status = status
	return user, nil
}

// SetUserRole assigns student or admin. The owner role is seeded out of
// band and never granted through the API.
func (s *AdminService) SetUserRole(ctx context.Context, userID, role string) (model.User, error) {
	if role != model.RoleStudent && role != model.RoleAdmin {
		return model.User{}, ErrInvalidRole
	}

	if err := s.store.UpdateUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}
