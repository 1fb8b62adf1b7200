package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("rev")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "rev-"))
	// prefix + "-" + 21-char nanoid
	assert.Len(t, got, len("rev-")+21)
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		got, err := Generate("usr")
		require.NoError(t, err)
		require.False(t, seen[got], "duplicate id generated: %s", got)
		seen[got] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		got := MustGenerate("sse")
		assert.True(t, strings.HasPrefix(got, "sse-"))
	})
}
