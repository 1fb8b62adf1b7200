package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	domainerrors "github.com/gutenbae/gutenbae-server/internal/errors"
	"github.com/gutenbae/gutenbae-server/internal/store"
)

// UserService handles account lifecycle operations that span other services.
type UserService struct {
	store   store.Store
	reviews *ReviewService
	logger  *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, reviews *ReviewService, logger *slog.Logger) *UserService {
	return &UserService{
		store:   store,
		reviews: reviews,
		logger:  logger,
	}
}

// DeleteAccount removes a user and cascades into their reviews. Every review
// the user authored is deleted and broadcast individually before the account
// row goes away. Callers may only delete their own account.
func (s *UserService) DeleteAccount(ctx context.Context, caller domain.Caller, userID string) error {
	if caller.ID != userID {
		return domainerrors.Forbidden("you can only delete your own account")
	}

	// Verify the account exists before mutating anything.
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}

	if err := s.reviews.CascadeDeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("cascade delete reviews: %w", err)
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.String("user_id", userID))
	return nil
}
