package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/pkg/helpers"
)

type stubUserStore struct {
	user            *models.User
	createUserCalls int
	updateUserCalls int
	err             error
	getErr          error
}

func (s *stubUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.user = user
	s.createUserCalls++
	return s.err
}

func (s *stubUserStore) UpdateUser(_ context.Context, user *models.User) error {
	s.user = user
	s.updateUserCalls++
	return s.err
}

func (s *stubUserStore) GetUser(_ context.Context, _ string) (*models.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.user == nil {
		return nil, errs.NewNotFoundError("user not found")
	}
	u := *s.user
	return &u, nil
}

func TestUserServiceCreateUser(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)

	ctx := helpers.TestCtx()
	now := time.Now()

	err := svc.CreateUser(ctx, "uid-123", "user@example.com", "Jane", "Doe")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if store.createUserCalls != 1 {
		t.Fatalf("CreateUser called %d times, want 1", store.createUserCalls)
	}

	if store.user == nil {
		t.Fatalf("store received nil user")
	}

	if store.user.UID != "uid-123" || store.user.Email != "user@example.com" {
		t.Fatalf("unexpected user identifiers: %+v", store.user)
	}

	if store.user.FirstName != "Jane" || store.user.LastName != "Doe" {
		t.Fatalf("unexpected user name: %+v", store.user)
	}

	if store.user.CreatedAt.Before(now) {
		t.Fatalf("CreatedAt set earlier than call time: %v before %v", store.user.CreatedAt, now)
	}
}

func TestUserServiceCreateUserStoreError(t *testing.T) {
	store := &stubUserStore{err: errors.New("store failure")}
	svc := NewUserService(store)

	err := svc.CreateUser(helpers.TestCtx(), "uid-456", "user2@example.com", "John", "Smith")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if store.createUserCalls != 1 {
		t.Fatalf("CreateUser called %d times, want 1", store.createUserCalls)
	}
}

func TestUserServiceCreateUserRequiresFirstName(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)

	err := svc.CreateUser(helpers.TestCtx(), "uid-1", "a@b.c", "  ", "Doe")
	var vErr *errs.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.createUserCalls != 0 {
		t.Fatalf("store should not be called")
	}
}

func TestUserServiceUpdateProfileKeepsEmptyFields(t *testing.T) {
	store := &stubUserStore{user: &models.User{UID: "uid-1", FirstName: "Jane", LastName: "Doe"}}
	svc := NewUserService(store)

	user, err := svc.UpdateProfile(helpers.TestCtx(), "uid-1", "Maria", "")
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.FirstName != "Maria" || user.LastName != "Doe" {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if store.updateUserCalls != 1 {
		t.Fatalf("UpdateUser called %d times, want 1", store.updateUserCalls)
	}
}

func TestUserServiceGetProfileNotFound(t *testing.T) {
	svc := NewUserService(&stubUserStore{})

	_, err := svc.GetProfile(helpers.TestCtx(), "nobody")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}
