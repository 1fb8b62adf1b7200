// Package sse implements Server-Sent Events for broadcasting review changes
// to connected clients.
package sse

import (
	"time"

	"github.com/gutenbae/gutenbae-server/internal/domain"
)

// FactType discriminates the closed set of broadcast facts.
type FactType string

const (
	// FactReviewUpdated announces that a review was created or edited.
	// Carries the full review so clients can render without a refetch.
	FactReviewUpdated FactType = "review.updated"

	// FactReviewDeleted announces that a review was removed.
	// Carries only identifiers; the review no longer exists.
	FactReviewDeleted FactType = "review.deleted"

	// FactHeartbeat is a connection keepalive. Never persisted, never merged.
	FactHeartbeat FactType = "heartbeat"
)

// Fact is one broadcast unit. It is a tagged variant: exactly the fields for
// its Type are populated, and consumers switch on Type rather than probing
// for optional fields. Construct facts with the New*Fact functions only.
type Fact struct {
	Type      FactType  `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// BookID scopes review facts to a book. Zero for heartbeats.
	BookID int64 `json:"book_id,omitempty"`

	// Review is set only for FactReviewUpdated.
	Review *domain.Review `json:"review,omitempty"`

	// ReviewID is set only for FactReviewDeleted.
	ReviewID string `json:"review_id,omitempty"`
}

// NewReviewUpdatedFact creates a review.updated fact carrying the full review.
func NewReviewUpdatedFact(review *domain.Review) Fact {
	return Fact{
		Type:      FactReviewUpdated,
		Timestamp: time.Now(),
		BookID:    review.BookID,
		Review:    review,
	}
}

// NewReviewDeletedFact creates a review.deleted fact.
func NewReviewDeletedFact(bookID int64, reviewID string) Fact {
	return Fact{
		Type:      FactReviewDeleted,
		Timestamp: time.Now(),
		BookID:    bookID,
		ReviewID:  reviewID,
	}
}

// NewHeartbeatFact creates a keepalive fact.
func NewHeartbeatFact() Fact {
	return Fact{
		Type:      FactHeartbeat,
		Timestamp: time.Now(),
	}
}
