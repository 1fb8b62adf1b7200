package sqlite

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	"github.com/gutenbae/gutenbae-server/internal/id"
	"github.com/gutenbae/gutenbae-server/internal/store"
)

func TestCreateAndGetReview(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	review := newTestReview(user, 1342)
	require.NoError(t, s.CreateReview(t.Context(), review))

	got, err := s.GetReview(t.Context(), review.ID)
	require.NoError(t, err)

	assert.Equal(t, review.ID, got.ID)
	assert.Equal(t, int64(1342), got.BookID)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "A solid read.", got.Text)
	assert.True(t, review.CreatedAt.Equal(got.CreatedAt))
}

func TestGetReviewNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetReview(t.Context(), "rev-missing")
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
}

func TestCreateReviewDuplicatePair(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	first := newTestReview(user, 84)
	require.NoError(t, s.CreateReview(t.Context(), first))

	// Same (book, user) pair with a fresh ID must be rejected.
	second := newTestReview(user, 84)
	err := s.CreateReview(t.Context(), second)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// A different book for the same user is fine.
	other := newTestReview(user, 85)
	assert.NoError(t, s.CreateReview(t.Context(), other))
}

func TestCreateReviewConcurrentSamePair(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	const attempts = 8

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.CreateReview(t.Context(), newTestReview(user, 11))
		}()
	}
	wg.Wait()
	close(results)

	var created, conflicts int
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Exactly one writer wins; everyone else observes the conflict.
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)

	reviews, err := s.ListReviewsByBook(t.Context(), 11)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestGetReviewForUserBook(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	review := newTestReview(alice, 7)
	require.NoError(t, s.CreateReview(t.Context(), review))

	got, err := s.GetReviewForUserBook(t.Context(), alice.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	_, err = s.GetReviewForUserBook(t.Context(), bob.ID, 7)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)

	_, err = s.GetReviewForUserBook(t.Context(), alice.ID, 8)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
}

func TestUpdateReview(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	review := newTestReview(user, 42)
	require.NoError(t, s.CreateReview(t.Context(), review))

	review.Rating = 2
	review.Text = "On reread, it did not hold up."
	require.NoError(t, s.UpdateReview(t.Context(), review))

	got, err := s.GetReview(t.Context(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating)
	assert.Equal(t, "On reread, it did not hold up.", got.Text)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	// Identity fields stay put.
	assert.Equal(t, int64(42), got.BookID)
	assert.Equal(t, user.ID, got.UserID)
}

func TestUpdateReviewNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateReview(t.Context(), &domain.Review{ID: "rev-missing", Rating: 3})
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
}

func TestDeleteReview(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	review := newTestReview(user, 9)
	require.NoError(t, s.CreateReview(t.Context(), review))

	require.NoError(t, s.DeleteReview(t.Context(), review.ID))

	_, err := s.GetReview(t.Context(), review.ID)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)

	// Deleting again reports not found.
	err = s.DeleteReview(t.Context(), review.ID)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
}

func TestListReviewsByBookNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	var want []string
	for i := range 5 {
		user := newTestUser(t, s, "reader"+string(rune('a'+i)))
		review := newTestReview(user, 500)
		review.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		review.UpdatedAt = review.CreatedAt
		require.NoError(t, s.CreateReview(t.Context(), review))
		// Newest first: prepend.
		want = append([]string{review.ID}, want...)
	}

	reviews, err := s.ListReviewsByBook(t.Context(), 500)
	require.NoError(t, err)
	require.Len(t, reviews, 5)

	got := make([]string, 0, len(reviews))
	for _, r := range reviews {
		got = append(got, r.ID)
	}
	assert.Equal(t, want, got)
}

func TestListReviewsByBookScopedToBook(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	require.NoError(t, s.CreateReview(t.Context(), newTestReview(user, 1)))
	require.NoError(t, s.CreateReview(t.Context(), newTestReview(user, 2)))

	reviews, err := s.ListReviewsByBook(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, int64(1), reviews[0].BookID)
}

func TestListReviewsByUser(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	require.NoError(t, s.CreateReview(t.Context(), newTestReview(alice, 1)))
	require.NoError(t, s.CreateReview(t.Context(), newTestReview(alice, 2)))
	require.NoError(t, s.CreateReview(t.Context(), newTestReview(bob, 1)))

	reviews, err := s.ListReviewsByUser(t.Context(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	for _, r := range reviews {
		assert.Equal(t, alice.ID, r.UserID)
	}
}

func TestDeleteReviewsByUser(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	require.NoError(t, s.CreateReview(t.Context(), newTestReview(alice, 1)))
	require.NoError(t, s.CreateReview(t.Context(), newTestReview(alice, 2)))
	require.NoError(t, s.CreateReview(t.Context(), newTestReview(bob, 1)))

	deleted, err := s.DeleteReviewsByUser(t.Context(), alice.ID)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	for _, r := range deleted {
		assert.Equal(t, alice.ID, r.UserID)
		assert.NotEmpty(t, r.ID)
		assert.NotZero(t, r.BookID)
	}

	remaining, err := s.ListReviewsByUser(t.Context(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Bob's review survives.
	bobs, err := s.ListReviewsByUser(t.Context(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}

func TestDeleteReviewsByUserReturnsExactlyDeletedRows(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	for i := range 3 {
		require.NoError(t, s.CreateReview(t.Context(), newTestReview(user, int64(i+1))))
	}

	// Reviews landing while the cascade runs must be either returned and
	// gone, or untouched and still stored. Never deleted silently.
	var wg sync.WaitGroup
	extra := make([]*domain.Review, 8)
	for i := range extra {
		wg.Add(1)
		go func() {
			defer wg.Done()
			review := newTestReview(user, int64(100+i))
			if err := s.CreateReview(t.Context(), review); err == nil {
				extra[i] = review
			}
		}()
	}

	deleted, err := s.DeleteReviewsByUser(t.Context(), user.ID)
	require.NoError(t, err)
	wg.Wait()

	deletedIDs := make(map[string]bool, len(deleted))
	for _, review := range deleted {
		deletedIDs[review.ID] = true
	}
	for reviewID := range deletedIDs {
		_, err := s.GetReview(t.Context(), reviewID)
		assert.ErrorIs(t, err, store.ErrReviewNotFound)
	}

	remaining, err := s.ListReviewsByUser(t.Context(), user.ID)
	require.NoError(t, err)
	for _, review := range remaining {
		assert.False(t, deletedIDs[review.ID], "review %s both returned and still stored", review.ID)
	}

	var created int
	for _, review := range extra {
		if review != nil {
			created++
		}
	}
	assert.Equal(t, 3+created, len(deleted)+len(remaining))
}

func TestDeleteReviewsByUserNoReviews(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	deleted, err := s.DeleteReviewsByUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestDeleteUserCascadesReviews(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	review := newTestReview(user, 3)
	require.NoError(t, s.CreateReview(t.Context(), review))

	require.NoError(t, s.DeleteUser(t.Context(), user.ID))

	_, err := s.GetReview(t.Context(), review.ID)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
}

func TestCreateReviewGeneratedID(t *testing.T) {
	reviewID := id.MustGenerate("rev")
	assert.Regexp(t, `^rev-`, reviewID)
}
