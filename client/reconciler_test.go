package client

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	"github.com/gutenbae/gutenbae-server/internal/sse"
)

func testReview(id, userID string, bookID int64, rating int) *domain.Review {
	now := time.Now()
	return &domain.Review{
		ID:        id,
		BookID:    bookID,
		UserID:    userID,
		UserName:  userID,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func reviewIDs(reviews []*domain.Review) []string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	return ids
}

func TestSeedPreservesOrder(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	view.Seed([]*domain.Review{
		testReview("rev-c", "usr-3", 42, 5),
		testReview("rev-b", "usr-2", 42, 4),
		testReview("rev-a", "usr-1", 42, 3),
	})

	assert.Equal(t, []string{"rev-c", "rev-b", "rev-a"}, reviewIDs(view.Reviews()))
}

func TestSeedFiltersOtherBooks(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	view.Seed([]*domain.Review{
		testReview("rev-a", "usr-1", 42, 3),
		testReview("rev-x", "usr-1", 99, 3),
	})

	assert.Equal(t, []string{"rev-a"}, reviewIDs(view.Reviews()))
}

func TestApplyUpdatedPrependsNewReview(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()
	view.Seed([]*domain.Review{testReview("rev-old", "usr-1", 42, 3)})

	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-new", "usr-2", 42, 5)))

	assert.Equal(t, []string{"rev-new", "rev-old"}, reviewIDs(view.Reviews()))
}

func TestApplyUpdatedReplacesInPlace(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()
	view.Seed([]*domain.Review{
		testReview("rev-b", "usr-2", 42, 4),
		testReview("rev-a", "usr-1", 42, 3),
	})

	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-a", "usr-1", 42, 5)))

	require.Equal(t, []string{"rev-b", "rev-a"}, reviewIDs(view.Reviews()))
	review, ok := view.ReviewBy("usr-1")
	require.True(t, ok)
	assert.Equal(t, 5, review.Rating)
}

func TestApplyUpdatedIsIdempotent(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	fact := sse.NewReviewUpdatedFact(testReview("rev-a", "usr-1", 42, 4))
	view.Apply(fact)
	once := reviewIDs(view.Reviews())

	view.Apply(fact)
	view.Apply(fact)

	assert.Equal(t, once, reviewIDs(view.Reviews()))
	assert.Equal(t, 1, view.Len())
}

func TestApplyDeletedAbsentIsNoOp(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()
	view.Seed([]*domain.Review{testReview("rev-a", "usr-1", 42, 3)})

	view.Apply(sse.NewReviewDeletedFact(42, "rev-gone"))

	assert.Equal(t, []string{"rev-a"}, reviewIDs(view.Reviews()))
}

func TestApplyDeletedRemoves(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()
	view.Seed([]*domain.Review{
		testReview("rev-b", "usr-2", 42, 4),
		testReview("rev-a", "usr-1", 42, 3),
	})

	fact := sse.NewReviewDeletedFact(42, "rev-a")
	view.Apply(fact)
	view.Apply(fact) // duplicate delivery

	assert.Equal(t, []string{"rev-b"}, reviewIDs(view.Reviews()))
	_, ok := view.ReviewBy("usr-1")
	assert.False(t, ok)
}

func TestApplyIgnoresOtherBooks(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-x", "usr-1", 99, 5)))

	assert.Zero(t, view.Len())
}

func TestApplyHeartbeatIsIgnored(t *testing.T) {
	refetched := false
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		refetched = true
		return nil, nil
	}})
	defer view.Close()

	view.Apply(sse.NewHeartbeatFact())

	assert.Zero(t, view.Len())
	assert.False(t, refetched)
}

func TestMalformedFactTriggersRefetch(t *testing.T) {
	authoritative := []*domain.Review{testReview("rev-truth", "usr-1", 42, 5)}
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		return authoritative, nil
	}})
	defer view.Close()

	// An updated fact with no payload cannot be merged.
	view.Apply(sse.Fact{Type: sse.FactReviewUpdated, BookID: 42})

	assert.Equal(t, []string{"rev-truth"}, reviewIDs(view.Reviews()))
}

func TestUnknownFactTypeTriggersRefetch(t *testing.T) {
	var calls int
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		calls++
		return nil, nil
	}})
	defer view.Close()

	view.Apply(sse.Fact{Type: "review.exploded"})

	assert.Equal(t, 1, calls)
}

func TestRefetchErrorKeepsLastGoodState(t *testing.T) {
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		return nil, fmt.Errorf("network down")
	}})
	defer view.Close()
	view.Seed([]*domain.Review{testReview("rev-a", "usr-1", 42, 3)})

	view.Apply(sse.Fact{Type: sse.FactReviewUpdated})

	assert.Equal(t, []string{"rev-a"}, reviewIDs(view.Reviews()))
}

func TestApplyEventDecodesFact(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	data := []byte(`{"type":"review.updated","book_id":42,"review":{"id":"rev-a","book_id":42,"user_id":"usr-1","user_name":"alice","rating":4}}`)
	view.ApplyEvent("review.updated", data)

	review, ok := view.ReviewBy("usr-1")
	require.True(t, ok)
	assert.Equal(t, 4, review.Rating)
}

func TestApplyEventGreetingIgnored(t *testing.T) {
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		t.Fatal("greeting must not refetch")
		return nil, nil
	}})
	defer view.Close()

	view.ApplyEvent("connected", []byte(`{"client_id":"sse-1","message":"SSE connection established"}`))

	assert.Zero(t, view.Len())
}

func TestApplyEventBadJSONTriggersRefetch(t *testing.T) {
	var calls int
	view := NewBookView(42, Options{Refetch: func() ([]*domain.Review, error) {
		calls++
		return nil, nil
	}})
	defer view.Close()

	view.ApplyEvent("review.updated", []byte(`{not json`))

	assert.Equal(t, 1, calls)
}

func TestDualSourceDeliveryConverges(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	// The same logical change arrives from the direct write response,
	// the push stream, and the fallback bus.
	review := testReview("rev-a", "usr-1", 42, 5)
	direct := sse.NewReviewUpdatedFact(review)
	pushed := sse.NewReviewUpdatedFact(review)
	relayed := sse.NewReviewUpdatedFact(review)

	view.Apply(direct)
	view.Apply(pushed)
	view.Apply(relayed)

	assert.Equal(t, 1, view.Len())
}

func TestUserViewFiltersOtherAuthors(t *testing.T) {
	view := NewUserView("usr-1", Options{})
	defer view.Close()

	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-a", "usr-1", 1, 4)))
	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-b", "usr-2", 1, 2)))
	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-c", "usr-1", 2, 5)))

	assert.Equal(t, []string{"rev-c", "rev-a"}, reviewIDs(view.Reviews()))
}

func TestCloseStopsMutation(t *testing.T) {
	view := NewBookView(42, Options{})
	view.Seed([]*domain.Review{testReview("rev-a", "usr-1", 42, 3)})

	view.Close()
	view.Close() // idempotent

	view.Apply(sse.NewReviewUpdatedFact(testReview("rev-late", "usr-2", 42, 5)))
	view.Apply(sse.NewReviewDeletedFact(42, "rev-a"))
	view.Seed(nil)

	assert.Equal(t, []string{"rev-a"}, reviewIDs(view.Reviews()))
}

func TestSubscribeAppliesChannelFacts(t *testing.T) {
	view := NewBookView(42, Options{})
	defer view.Close()

	facts := make(chan sse.Fact, 4)
	view.Subscribe(facts)

	facts <- sse.NewReviewUpdatedFact(testReview("rev-a", "usr-1", 42, 4))
	close(facts)

	assert.Eventually(t, func() bool {
		return view.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeAfterCloseIsNoOp(t *testing.T) {
	view := NewBookView(42, Options{})
	view.Close()

	facts := make(chan sse.Fact, 1)
	view.Subscribe(facts)
	facts <- sse.NewReviewUpdatedFact(testReview("rev-a", "usr-1", 42, 4))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, view.Len())
}
