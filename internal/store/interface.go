// Package store defines the persistence interface for the gutenbae server.
package store

import (
	"context"

	"github.com/gutenbae/gutenbae-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Reviews
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	GetReviewForUserBook(ctx context.Context, userID string, bookID int64) (*domain.Review, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, id string) error
	ListReviewsByBook(ctx context.Context, bookID int64) ([]*domain.Review, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error)
	DeleteReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// EventEmitter is the interface for emitting broadcast facts.
// Services use this to announce changes without depending on the SSE hub.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter { return NoopEmitter{} }
