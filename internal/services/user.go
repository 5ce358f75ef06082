package services

import (
	"context"
	"strings"
	"time"

	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type userUSStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type userService struct {
	Store userUSStore
	now   func() time.Time
}

func NewUserService(store userUSStore) *userService {
	return &userService{
		Store: store,
		now:   time.Now,
	}
}

func (s *userService) CreateUser(ctx context.Context, uid, email, first, last string) error {
	// Get logger from context - already has uid, email, request_id, method, path
	log := logger.FromContext(ctx)

	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" {
		return errs.NewValidationError("Nome é obrigatório")
	}

	now := s.now()
	user := &models.User{
		UID:       uid,
		Email:     email,
		FirstName: first,
		LastName:  last,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.Store.CreateUser(ctx, user)
	if err != nil {
		log.Error("failed to create user in store", "error", err)
		return err
	}

	log.Info("user created successfully", "first_name", first, "last_name", last)
	log.Debug("user created with full details", "user", user)

	return nil
}

func (s *userService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.Store.GetUser(ctx, uid)
	if err != nil {
		logger.FromContext(ctx).Debug("profile lookup failed", "error", err)
		return nil, err
	}
	return user, nil
}

// UpdateProfile renames the user; empty values keep the stored name.
func (s *userService) UpdateProfile(ctx context.Context, uid, first, last string) (*models.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.Store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(first); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(last); v != "" {
		user.LastName = v
	}
	user.UpdatedAt = s.now()

	if err := s.Store.UpdateUser(ctx, user); err != nil {
		log.Error("failed to update user in store", "error", err)
		return nil, err
	}
	log.Info("user profile updated")
	return user, nil
}
