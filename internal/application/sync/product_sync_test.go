package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
)

func simpleProduct(id int64) *commerce.Product {
	return &commerce.Product{
		ID:        id,
		Reference: "REF-SIMPLE",
		Name:      "Plain Mug",
		Active:    true,
		Price:     decimal.NewFromInt(50),
		Stock:     12,
		ImageURLs: []string{"https://img.example.com/mug.jpg"},
	}
}

func variantProduct(id int64) *commerce.Product {
	return &commerce.Product{
		ID:        id,
		Reference: "REF-SHIRT",
		Name:      "Shirt",
		Active:    true,
		Price:     decimal.NewFromInt(80),
		ImageURLs: []string{"https://img.example.com/shirt.jpg"},
		Variants: []commerce.Variant{
			{
				ID: 10, ProductID: id, Stock: 3,
				Price:      decimal.NewFromInt(80),
				Attributes: []commerce.AttributeValue{{GroupID: 1, Group: "Size", Value: "M"}},
			},
			{
				ID: 11, ProductID: id, Stock: 5,
				Price:      decimal.NewFromInt(80),
				Attributes: []commerce.AttributeValue{{GroupID: 1, Group: "Size", Value: "L"}},
			},
		},
	}
}

func newProductEngine(catalog *fakeCatalog, links *fakeLinkRepo, cursors *fakeCursors, api *fakeProductAPI) *ProductEngine {
	mapper := NewProductMapper(&fakeCategoryMap{}, MapperConfig{})
	return NewProductEngine(catalog, links, cursors, api, mapper,
		ProductEngineConfig{BatchSize: 2}, zap.NewNop())
}

// ---------------------------------------------------------------------------
// Link preparation
// ---------------------------------------------------------------------------

func TestPrepareLinksCreatesOneRowPerSellableUnit(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	engine := newProductEngine(newFakeCatalog(simpleProduct(1), variantProduct(2)), links, newFakeCursors(), newFakeProductAPI())

	added, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	count, _ := links.Count(ctx)
	assert.EqualValues(t, 3, count)

	link, err := links.FindByCatalogRow(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "ps-2-10", link.ExternalID)

	// Second run adds nothing and leaves recorded sync state alone
	link.RecordSuccess("hash-before-rerun")
	require.NoError(t, links.Save(ctx, link))

	added, err = engine.PrepareLinks(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	link, err = links.FindByCatalogRow(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "hash-before-rerun", link.LastPayloadHash)
	assert.Equal(t, syncdomain.SyncStatusOK, link.Status)
	assert.NotNil(t, link.LastSyncedAt)
}

func TestPrepareLinksDropsStaleProductLevelRow(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	_, err := links.CreateIfAbsent(ctx, syncdomain.NewProductLink("ps", 2, 0))
	require.NoError(t, err)

	engine := newProductEngine(newFakeCatalog(variantProduct(2)), links, newFakeCursors(), newFakeProductAPI())
	_, err = engine.PrepareLinks(ctx)
	require.NoError(t, err)

	_, err = links.FindByCatalogRow(ctx, 2, 0)
	assert.ErrorIs(t, err, syncdomain.ErrLinkNotFound)

	_, err = links.FindByCatalogRow(ctx, 2, 11)
	assert.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Batch runs
// ---------------------------------------------------------------------------

func TestSyncAllPushesThenSkipsUnchangedRows(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	cursors := newFakeCursors()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(simpleProduct(1)), links, cursors, api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, []string{"ps-1"}, api.updates)

	link, err := links.FindByCatalogRow(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.SyncStatusOK, link.Status)
	assert.NotEmpty(t, link.LastPayloadHash)

	// Unchanged payload is skipped without an API call
	stats, err = engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Pushed)
	assert.Len(t, api.updates, 1)

	// Cursor is reset after a clean run
	cursor, err := cursors.GetInt(ctx, syncdomain.CursorProductSync)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestSyncAllFallsBackToCreateOnRemoteMiss(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	api := newFakeProductAPI()
	api.updateStatus["ps-1"] = 404
	engine := newProductEngine(newFakeCatalog(simpleProduct(1)), links, newFakeCursors(), api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, []string{"ps-1"}, api.updates)
	assert.Equal(t, []string{"ps-1"}, api.creates)
}

func TestSyncAllStopsCleanlyOnRateLimit(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	cursors := newFakeCursors()
	api := newFakeProductAPI()
	api.updateStatus["ps-1"] = 429
	engine := newProductEngine(newFakeCatalog(simpleProduct(1), simpleProduct(2)), links, cursors, api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, stats.RateLimited)
	assert.Zero(t, stats.Pushed)

	// The interrupted row was not passed by the cursor
	cursor, err := cursors.GetInt(ctx, syncdomain.CursorProductSync)
	require.NoError(t, err)
	assert.Zero(t, cursor)

	// Next run picks it up again
	delete(api.updateStatus, "ps-1")
	stats, err = engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pushed)
	assert.False(t, stats.RateLimited)
}

func TestSyncAllAbortsOnRejectedPush(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	cursors := newFakeCursors()
	api := newFakeProductAPI()
	api.updateStatus["ps-1"] = 500
	engine := newProductEngine(newFakeCatalog(simpleProduct(1), simpleProduct(2)), links, cursors, api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.Error(t, err)
	assert.Zero(t, stats.Pushed)

	link, lerr := links.FindByCatalogRow(ctx, 1, 0)
	require.NoError(t, lerr)
	assert.Equal(t, syncdomain.SyncStatusError, link.Status)
	assert.NotEmpty(t, link.LastError)

	// Aborted run did not move the cursor past the failed row
	cursor, cerr := cursors.GetInt(ctx, syncdomain.CursorProductSync)
	require.NoError(t, cerr)
	assert.Zero(t, cursor)
}

func TestSyncAllSkipsUnmappableRowAndContinues(t *testing.T) {
	ctx := context.Background()
	noImages := simpleProduct(1)
	noImages.ImageURLs = nil

	links := newFakeLinkRepo()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(noImages, simpleProduct(2)), links, newFakeCursors(), api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, []string{"ps-2"}, api.updates)
}

func TestSyncAllDropsVanishedVariantLinkAndContinues(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	cursors := newFakeCursors()
	api := newFakeProductAPI()

	// A leftover row for a variant the product no longer has, sitting
	// before the healthy rows.
	_, err := links.CreateIfAbsent(ctx, syncdomain.NewProductLink("ps", 2, 9))
	require.NoError(t, err)

	engine := newProductEngine(newFakeCatalog(variantProduct(2)), links, cursors, api)
	_, err = engine.PrepareLinks(ctx)
	require.NoError(t, err)

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Pushed)
	assert.Equal(t, []string{"ps-2-10", "ps-2-11"}, api.updates)

	// The stale row is gone and the cursor came back to zero
	_, err = links.FindByCatalogRow(ctx, 2, 9)
	assert.ErrorIs(t, err, syncdomain.ErrLinkNotFound)
	cursor, err := cursors.GetInt(ctx, syncdomain.CursorProductSync)
	require.NoError(t, err)
	assert.Zero(t, cursor)

	// The next run no longer sees it
	stats, err = engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Zero(t, stats.Failed)
}

func TestSyncAllResumesFromStoredCursor(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	cursors := newFakeCursors()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(simpleProduct(1), simpleProduct(2)), links, cursors, api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	first, err := links.FindByCatalogRow(ctx, 1, 0)
	require.NoError(t, err)
	require.NoError(t, cursors.SetInt(ctx, syncdomain.CursorProductSync, first.ID))

	stats, err := engine.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []string{"ps-2"}, api.updates)
}

func TestSyncPendingIgnoresSyncedRows(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(simpleProduct(1), simpleProduct(2)), links, newFakeCursors(), api)

	_, err := engine.PrepareLinks(ctx)
	require.NoError(t, err)

	_, err = engine.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, api.updates, 2)

	stats, err := engine.SyncPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
	assert.Len(t, api.updates, 2)
}

// ---------------------------------------------------------------------------
// Single pushes
// ---------------------------------------------------------------------------

func TestSyncOnePushesEveryVariantForZeroVariantID(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(variantProduct(2)), links, newFakeCursors(), api)

	require.NoError(t, engine.SyncOne(ctx, 2, 0))
	assert.Equal(t, []string{"ps-2-10", "ps-2-11"}, api.updates)

	// Link rows were created on the fly
	count, _ := links.Count(ctx)
	assert.EqualValues(t, 2, count)
}

func TestSyncOnePushesWithoutHashSkip(t *testing.T) {
	ctx := context.Background()
	links := newFakeLinkRepo()
	api := newFakeProductAPI()
	engine := newProductEngine(newFakeCatalog(simpleProduct(1)), links, newFakeCursors(), api)

	require.NoError(t, engine.SyncOne(ctx, 1, 0))
	require.NoError(t, engine.SyncOne(ctx, 1, 0))
	assert.Len(t, api.updates, 2)
}
