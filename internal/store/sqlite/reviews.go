package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	"github.com/gutenbae/gutenbae-server/internal/store"
)

// reviewColumns is the ordered list of columns selected in review queries.
// Must match the scan order in scanReview.
const reviewColumns = `id, book_id, user_id, user_name, rating, text, created_at, updated_at`

// scanReview scans a sql.Row (or sql.Rows via its Scan method) into a domain.Review.
func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var r domain.Review

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.BookID,
		&r.UserID,
		&r.UserName,
		&r.Rating,
		&r.Text,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateReview inserts a new review.
// Returns store.ErrAlreadyExists if the (book_id, user_id) pair already has a
// review. The check-and-insert is a single statement; the unique index makes
// exactly one of two concurrent creates succeed.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_id, user_name, rating, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.BookID,
		review.UserID,
		review.UserName,
		review.Rating,
		review.Text,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetReview retrieves a review by ID.
// Returns store.ErrReviewNotFound if it does not exist.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)

	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// GetReviewForUserBook retrieves the review a user wrote for a book, if any.
// Returns store.ErrReviewNotFound when the pair has no review. This lookup
// uses the same uniqueness dimension the unique index enforces.
func (s *Store) GetReviewForUserBook(ctx context.Context, userID string, bookID int64) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? AND book_id = ?`,
		userID, bookID)

	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview replaces a review's rating and text and refreshes updated_at.
// Identity fields (book_id, user_id, user_name, created_at) are immutable.
// Returns store.ErrReviewNotFound if the review does not exist.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET rating = ?, text = ?, updated_at = ?
		WHERE id = ?`,
		review.Rating,
		review.Text,
		formatTime(review.UpdatedAt),
		review.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrReviewNotFound
	}
	return nil
}

// DeleteReview removes a review by ID.
// Returns store.ErrReviewNotFound if no row was deleted.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrReviewNotFound
	}
	return nil
}

// ListReviewsByBook retrieves all reviews for a book, newest first.
// No pagination; review lists are unbounded by design.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID int64) ([]*domain.Review, error) {
	return s.listReviews(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE book_id = ?
		ORDER BY created_at DESC, id DESC`, bookID)
}

// ListReviewsByUser retrieves all reviews authored by a user.
func (s *Store) ListReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.listReviews(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
}

// DeleteReviewsByUser removes every review authored by a user and returns the
// deleted rows so the caller can emit one deleted fact per review. Select and
// delete run in one transaction: the returned rows are exactly the deleted
// rows, even when a review lands concurrently.
func (s *Store) DeleteReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(reviews) == 0 {
		return nil, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// listReviews runs a review query and scans all rows.
func (s *Store) listReviews(ctx context.Context, query string, args ...any) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
