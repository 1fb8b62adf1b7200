package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	krl := New(1, 3)
	defer krl.Stop()

	for range 3 {
		assert.True(t, krl.Allow("10.0.0.1"))
	}
	assert.False(t, krl.Allow("10.0.0.1"), "burst exhausted")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"))

	// A different client is unaffected.
	assert.True(t, krl.Allow("10.0.0.2"))
}

func TestAllow_Refills(t *testing.T) {
	krl := New(100, 1)
	defer krl.Stop()

	require.True(t, krl.Allow("key"))
	require.False(t, krl.Allow("key"))

	// At 100 rps one token returns within ~10ms.
	time.Sleep(30 * time.Millisecond)
	assert.True(t, krl.Allow("key"))
}

func TestWait_RespectsContext(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	require.True(t, krl.Allow("key"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "key")
	assert.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
