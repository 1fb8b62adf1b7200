package domain

import (
	"regexp"
	"strings"
	"time"
)

// Review rules. The paragraph ceiling and character limit are enforced by the
// service on every write; clients may pre-check but the server is authoritative.
const (
	MinRating = 1
	MaxRating = 5

	// MaxParagraphs is the most blank-line-separated text blocks a review may contain.
	MaxParagraphs = 3

	// MaxTextLength caps review text in characters (runes).
	MaxTextLength = 5000
)

// Review is a user's rating and commentary for a catalog book.
// At most one review exists per (BookID, UserID) pair; the store enforces
// this with a unique index, not application-level locking.
type Review struct {
	ID     string `json:"id"`
	BookID int64  `json:"book_id"`
	UserID string `json:"user_id"`

	// UserName is a denormalized display copy captured at creation time.
	// It is not kept in sync with later profile-name changes.
	UserName string `json:"user_name"`

	Rating int    `json:"rating"`
	Text   string `json:"text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// blankLine matches a paragraph separator: a newline, optional whitespace, newline.
var blankLine = regexp.MustCompile(`\n\s*\n`)

// CountParagraphs returns the number of non-empty text blocks separated by
// blank lines. Empty or whitespace-only text counts as zero paragraphs.
func CountParagraphs(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	count := 0
	for _, block := range blankLine.Split(trimmed, -1) {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

// ValidRating reports whether r is within the accepted rating range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
