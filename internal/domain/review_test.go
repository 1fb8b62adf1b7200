package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t ", 0},
		{"single paragraph", "Good read.", 1},
		{"single paragraph with newlines", "Good read.\nReally good.", 1},
		{"two paragraphs", "First.\n\nSecond.", 2},
		{"blank line with spaces", "First.\n   \nSecond.", 2},
		{"three paragraphs", "One.\n\nTwo.\n\nThree.", 3},
		{"four paragraphs", "One.\n\nTwo.\n\nThree.\n\nFour.", 4},
		{"trailing blank lines", "One.\n\nTwo.\n\n\n", 2},
		{"consecutive blank lines", "One.\n\n\n\nTwo.", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountParagraphs(tt.text))
		})
	}
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
	for r := MinRating; r <= MaxRating; r++ {
		assert.True(t, ValidRating(r), "rating %d should be valid", r)
	}
}
