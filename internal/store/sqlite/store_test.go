package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	"github.com/gutenbae/gutenbae-server/internal/id"
)

// newTestStore creates a store backed by a temp database file.
// The file is cleaned up automatically via t.TempDir.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

// newTestUser inserts a user so review foreign keys resolve.
func newTestUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:           id.MustGenerate("usr"),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "$argon2id$test",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(t.Context(), user))
	return user
}

// newTestReview builds an unsaved review for a user and book.
func newTestReview(user *domain.User, bookID int64) *domain.Review {
	now := time.Now()
	return &domain.Review{
		ID:        id.MustGenerate("rev"),
		BookID:    bookID,
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    4,
		Text:      "A solid read.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)

	// Schema exists if a basic query succeeds.
	reviews, err := s.ListReviewsByBook(t.Context(), 1)
	require.NoError(t, err)
	require.Empty(t, reviews)
}

func TestTimeRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

	parsed, err := parseTime(formatTime(original))
	require.NoError(t, err)
	require.True(t, original.Equal(parsed))
}
