package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first mark wins, replay is rejected", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "stripe:pi_001", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)

		again, err := store.MarkProcessed(ctx, "stripe:pi_001", time.Minute)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("is-processed reflects marks", func(t *testing.T) {
		seen, err := store.IsProcessed(ctx, "stripe:pi_001")
		require.NoError(t, err)
		assert.True(t, seen)

		seen, err = store.IsProcessed(ctx, "stripe:pi_unknown")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("expired keys can be marked again", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "stripe:pi_002", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		seen, err := store.IsProcessed(ctx, "stripe:pi_002")
		require.NoError(t, err)
		assert.False(t, seen)

		fresh, err = store.MarkProcessed(ctx, "stripe:pi_002", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	})
}
