package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	domainerrors "github.com/gutenbae/gutenbae-server/internal/errors"
	"github.com/gutenbae/gutenbae-server/internal/id"
	"github.com/gutenbae/gutenbae-server/internal/sse"
	"github.com/gutenbae/gutenbae-server/internal/store"
)

// ReviewService handles review submission, editing, deletion, and listing.
// Every successful mutation emits exactly one broadcast fact after the store
// commit, so connected clients converge on the stored state.
type ReviewService struct {
	store  store.Store
	events store.EventEmitter
	logger *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, events store.EventEmitter, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// SubmitRequest contains the data for submitting a review.
type SubmitRequest struct {
	BookID int64  `json:"book_id" validate:"required,gt=0"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=5000"`
}

// SubmitResponse contains the stored review and whether it was newly created.
type SubmitResponse struct {
	Review  *domain.Review `json:"review"`
	Created bool           `json:"created"`
}

// EditRequest contains the data for editing an existing review.
type EditRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=5000"`
}

// checkText enforces the paragraph ceiling on review text.
func checkText(text string) error {
	if domain.CountParagraphs(text) > domain.MaxParagraphs {
		return domainerrors.Validationf("review may contain at most %d paragraphs", domain.MaxParagraphs)
	}
	return nil
}

// Submit stores a review for a book by the calling user. If the caller has
// already reviewed the book, the existing review is updated in place rather
// than rejected: submitting twice means "this is my current opinion". The
// response reports whether a new review was created.
func (s *ReviewService) Submit(ctx context.Context, caller domain.Caller, req SubmitRequest) (*SubmitResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	// Stored text is always trimmed; validation runs on the stored shape.
	req.Text = strings.TrimSpace(req.Text)
	if err := checkText(req.Text); err != nil {
		return nil, err
	}

	// An existing review for this (book, user) pair turns the submit into
	// an edit of that review.
	existing, err := s.store.GetReviewForUserBook(ctx, caller.ID, req.BookID)
	if err == nil {
		return s.updateExisting(ctx, existing, req.Rating, req.Text)
	}
	if !domainerrors.Is(err, store.ErrReviewNotFound) {
		return nil, fmt.Errorf("lookup existing review: %w", err)
	}

	reviewID, err := id.Generate("rev")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	now := time.Now()
	review := &domain.Review{
		ID:        reviewID,
		BookID:    req.BookID,
		UserID:    caller.ID,
		UserName:  caller.Name,
		Rating:    req.Rating,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.CreateReview(ctx, review)
	if domainerrors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent submit from the same user. The
		// unique index guarantees the winner's row exists, so fall back
		// to updating it.
		existing, lookupErr := s.store.GetReviewForUserBook(ctx, caller.ID, req.BookID)
		if lookupErr != nil {
			return nil, fmt.Errorf("lookup review after conflict: %w", lookupErr)
		}
		return s.updateExisting(ctx, existing, req.Rating, req.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("store review: %w", err)
	}

	s.logger.Info("review created",
		slog.String("review_id", review.ID),
		slog.Int64("book_id", review.BookID),
		slog.String("user_id", review.UserID))

	s.events.Emit(sse.NewReviewUpdatedFact(review))

	return &SubmitResponse{Review: review, Created: true}, nil
}

// updateExisting applies new rating and text to an already stored review and
// broadcasts the result.
func (s *ReviewService) updateExisting(ctx context.Context, review *domain.Review, rating int, text string) (*SubmitResponse, error) {
	review.Rating = rating
	review.Text = text

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.Info("review updated",
		slog.String("review_id", review.ID),
		slog.Int64("book_id", review.BookID))

	s.events.Emit(sse.NewReviewUpdatedFact(review))

	return &SubmitResponse{Review: review, Created: false}, nil
}

// Edit updates a review by ID. Only the review's author may edit it.
func (s *ReviewService) Edit(ctx context.Context, caller domain.Caller, reviewID string, req EditRequest) (*domain.Review, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := checkText(req.Text); err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != caller.ID {
		return nil, domainerrors.Forbidden("you can only edit your own reviews")
	}

	resp, err := s.updateExisting(ctx, review, req.Rating, req.Text)
	if err != nil {
		return nil, err
	}
	return resp.Review, nil
}

// Remove deletes a review by ID. Only the review's author may delete it.
func (s *ReviewService) Remove(ctx context.Context, caller domain.Caller, reviewID string) error {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != caller.ID {
		return domainerrors.Forbidden("you can only delete your own reviews")
	}

	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return err
	}

	s.logger.Info("review deleted",
		slog.String("review_id", reviewID),
		slog.Int64("book_id", review.BookID))

	s.events.Emit(sse.NewReviewDeletedFact(review.BookID, review.ID))

	return nil
}

// ListForBook returns all reviews for a book, newest first.
// Public; an unknown book simply has no reviews.
func (s *ReviewService) ListForBook(ctx context.Context, bookID int64) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviewsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}

// ListForUser returns all reviews authored by a user. Callers may only list
// their own reviews.
func (s *ReviewService) ListForUser(ctx context.Context, caller domain.Caller, userID string) ([]*domain.Review, error) {
	if caller.ID != userID {
		return nil, domainerrors.Forbidden("you can only list your own reviews")
	}

	reviews, err := s.store.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}

// CascadeDeleteForUser removes every review authored by a user and emits one
// deleted fact per removed review, so clients viewing any affected book see
// the review disappear.
func (s *ReviewService) CascadeDeleteForUser(ctx context.Context, userID string) error {
	deleted, err := s.store.DeleteReviewsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete reviews for user: %w", err)
	}

	for _, review := range deleted {
		s.events.Emit(sse.NewReviewDeletedFact(review.BookID, review.ID))
	}

	if len(deleted) > 0 {
		s.logger.Info("reviews cascade deleted",
			slog.String("user_id", userID),
			slog.Int("count", len(deleted)))
	}

	return nil
}
