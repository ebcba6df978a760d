package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDStableWithinTTL(t *testing.T) {
	store := NewStore(DefaultTTL)

	first := store.SessionID("order-1")
	second := store.SessionID("order-1")

	require.Len(t, first, 32)
	assert.NotContains(t, first, "-")
	assert.Equal(t, first, second)
}

func TestSessionIDPerOrder(t *testing.T) {
	store := NewStore(DefaultTTL)

	assert.NotEqual(t, store.SessionID("order-1"), store.SessionID("order-2"))
}

func TestSessionIDRotatesAfterExpiry(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	first := store.SessionID("order-1")
	current = current.Add(2 * time.Minute)
	second := store.SessionID("order-1")

	assert.NotEqual(t, first, second)
}

func TestClearRemovesSession(t *testing.T) {
	store := NewStore(DefaultTTL)

	first := store.SessionID("order-1")
	store.Clear("order-1")
	second := store.SessionID("order-1")

	assert.NotEqual(t, first, second)
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.SessionID("stale")
	current = current.Add(2 * time.Minute)
	fresh := store.SessionID("fresh")

	removed := store.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, fresh, store.SessionID("fresh"))
}
