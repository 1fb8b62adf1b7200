package client

import (
	"fmt"

	"github.com/gutenbae/gutenbae-server/internal/domain"
)

// ValidateDraft applies the same rating and text rules the server enforces,
// so a view can reject a bad draft before spending a round trip. The server
// remains authoritative; passing here does not guarantee the save succeeds.
func ValidateDraft(rating int, text string) error {
	if !domain.ValidRating(rating) {
		return fmt.Errorf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	if len(text) > domain.MaxTextLength {
		return fmt.Errorf("review text must be at most %d characters", domain.MaxTextLength)
	}
	if domain.CountParagraphs(text) > domain.MaxParagraphs {
		return fmt.Errorf("review may contain at most %d paragraphs", domain.MaxParagraphs)
	}
	return nil
}
