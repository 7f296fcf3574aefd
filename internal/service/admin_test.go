package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bioplus/api/internal/model"
	"bioplus/api/internal/repository"
)

func (f *fakeUserStore) ListUsers(_ context.Context, limit int) ([]model.User, error) {
	var users []model.User
	for _, user := range f.users {
		if len(users) >= limit {
			break
		}
		users = append(users, *user)
	}
	return users, nil
}

func (f *fakeUserStore) UpdateUserStatus(_ context.Context, userID, status string) error {
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (f *fakeUserStore) UpdateUserRole(_ context.Context, userID, role string) error {
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	return nil
}

func (f *fakeUserStore) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for _, user := range f.users {
		if user.VerificationExpires != nil && user.VerificationExpires.Before(now) {
			user.VerificationTokenHash = nil
			user.VerificationExpires = nil
			purged++
		}
	}
	return purged, nil
}

func seedUser(store *fakeUserStore, id, status, role string) {
	store.users[id] = &model.User{
		ID:     id,
		Email:  id + "@example.com",
		Status: status,
		Role:   role,
	}
}

func TestSetUserStatusTransitions(t *testing.T) {
	store := newFakeUserStore()
	seedUser(store, "u1", model.StatusActive, model.RoleStudent)
	seedUser(store, "u2", model.StatusPendingVerification, model.RoleStudent)
	svc := NewAdminService(store)
	ctx := context.Background()

	user, err := svc.SetUserStatus(ctx, "u1", model.StatusSuspended)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if user.Status != model.StatusSuspended {
		t.Fatalf("expected suspended, got %s", user.Status)
	}

	user, err = svc.SetUserStatus(ctx, "u1", model.StatusActive)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if user.Status != model.StatusActive {
		t.Fatalf("expected active, got %s", user.Status)
	}

	// Pending accounts become active only through email verification.
	if _, err := svc.SetUserStatus(ctx, "u2", model.StatusActive); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for pending account, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, "u1", model.StatusPendingVerification); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for pending target, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, "missing", model.StatusSuspended); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSetUserRole(t *testing.T) {
	store := newFakeUserStore()
	seedUser(store, "u1", model.StatusActive, model.RoleStudent)
	svc := NewAdminService(store)
	ctx := context.Background()

	user, err := svc.SetUserRole(ctx, "u1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Fatalf("expected admin, got %s", user.Role)
	}

	if _, err := svc.SetUserRole(ctx, "u1", model.RoleOwner); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("owner must not be grantable, got %v", err)
	}
	if _, err := svc.SetUserRole(ctx, "u1", "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.SetUserRole(ctx, "missing", model.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsersDefaultLimit(t *testing.T) {
	store := newFakeUserStore()
	seedUser(store, "u1", model.StatusActive, model.RoleStudent)
	seedUser(store, "u2", model.StatusActive, model.RoleStudent)
	svc := NewAdminService(store)

	users, err := svc.ListUsers(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}
