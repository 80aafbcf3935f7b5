package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sync "github.com/AdX213/erli-sync/internal/domain/sync"
)

func TestOrderLinkRepository(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormOrderLinkRepository(db)
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		link := sync.NewOrderLink("erli-order-1", 55, "purchased")
		require.NoError(t, repo.Create(ctx, link))
		assert.NotZero(t, link.ID)

		found, err := repo.FindByExternalOrderID(ctx, "erli-order-1")
		require.NoError(t, err)
		assert.EqualValues(t, 55, found.OrderID)
		assert.Equal(t, "purchased", found.LastStatus)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := repo.ExistsByExternalOrderID(ctx, "erli-order-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByExternalOrderID(ctx, "erli-order-2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate external id is rejected", func(t *testing.T) {
		err := repo.Create(ctx, sync.NewOrderLink("erli-order-1", 77, "purchased"))
		assert.ErrorIs(t, err, sync.ErrLinkExists)
	})

	t.Run("missing link maps to the domain sentinel", func(t *testing.T) {
		_, err := repo.FindByExternalOrderID(ctx, "nope")
		assert.ErrorIs(t, err, sync.ErrLinkNotFound)
	})
}

func TestCursorRepository(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormCursorRepository(db)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := repo.Get(ctx, "nothing")
		assert.ErrorIs(t, err, sync.ErrCursorNotFound)

		// GetInt treats a missing key as zero
		value, err := repo.GetInt(ctx, "nothing")
		require.NoError(t, err)
		assert.Zero(t, value)
	})

	t.Run("set and overwrite", func(t *testing.T) {
		require.NoError(t, repo.SetInt(ctx, sync.CursorProductSync, 42))

		value, err := repo.GetInt(ctx, sync.CursorProductSync)
		require.NoError(t, err)
		assert.EqualValues(t, 42, value)

		require.NoError(t, repo.SetInt(ctx, sync.CursorProductSync, 0))
		value, err = repo.GetInt(ctx, sync.CursorProductSync)
		require.NoError(t, err)
		assert.Zero(t, value)
	})

	t.Run("string cursors", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, sync.CursorInboxAck, "evt-123"))

		value, err := repo.Get(ctx, sync.CursorInboxAck)
		require.NoError(t, err)
		assert.Equal(t, "evt-123", value)
	})
}
