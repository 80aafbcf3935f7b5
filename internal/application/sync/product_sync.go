package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/marketplace"
)

// ProductEndpoint is the slice of the marketplace API the product engine
// needs
type ProductEndpoint interface {
	Create(ctx context.Context, externalID string, payload any) (*marketplace.Result, error)
	Update(ctx context.Context, externalID string, payload any) (*marketplace.Result, error)
}

// ProductEngineConfig holds the tunables of the outbound push
type ProductEngineConfig struct {
	// BatchSize is how many links one database fetch returns
	BatchSize int
	// ExternalIDPrefix prefixes derived marketplace identifiers
	ExternalIDPrefix string
}

// ProductRunStats summarizes one push run
type ProductRunStats struct {
	// Processed counts every link the run looked at
	Processed int
	// Pushed counts links actually sent to the marketplace
	Pushed int
	// Skipped counts links whose payload hash was unchanged
	Skipped int
	// Failed counts links whose push was rejected or unmappable
	Failed int
	// RateLimited is true when the run stopped early on a 429
	RateLimited bool
}

// ProductEngine pushes the local catalog to the marketplace, one link row at
// a time, resumably: the cursor is persisted after every row, so a run cut
// short by a rate limit continues where it stopped.
type ProductEngine struct {
	catalog commerce.CatalogRepository
	links   syncdomain.ProductLinkRepository
	cursors syncdomain.CursorRepository
	api     ProductEndpoint
	mapper  *ProductMapper
	config  ProductEngineConfig
	logger  *zap.Logger
}

// NewProductEngine creates a ProductEngine
func NewProductEngine(
	catalog commerce.CatalogRepository,
	links syncdomain.ProductLinkRepository,
	cursors syncdomain.CursorRepository,
	api ProductEndpoint,
	mapper *ProductMapper,
	config ProductEngineConfig,
	logger *zap.Logger,
) *ProductEngine {
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.ExternalIDPrefix == "" {
		config.ExternalIDPrefix = syncdomain.DefaultExternalIDPrefix
	}
	return &ProductEngine{
		catalog: catalog,
		links:   links,
		cursors: cursors,
		api:     api,
		mapper:  mapper,
		config:  config,
		logger:  logger,
	}
}

// ---------------------------------------------------------------------------
// Link preparation
// ---------------------------------------------------------------------------

// PrepareLinks walks the catalog and makes sure every sellable unit has a
// link row: one per variant for variant products, a single product-level row
// otherwise. Existing rows are left untouched, so running it twice adds
// nothing. Returns the number of rows inserted.
func (e *ProductEngine) PrepareLinks(ctx context.Context) (int, error) {
	productIDs, err := e.catalog.ListSellableIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}

	added := 0
	for _, productID := range productIDs {
		product, err := e.catalog.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, commerce.ErrProductNotFound) {
				continue
			}
			return added, fmt.Errorf("load product %d: %w", productID, err)
		}

		if product.HasVariants() {
			// A product that gained variants must not keep its old
			// product-level row next to the variant rows.
			if err := e.links.DeleteCatalogRow(ctx, productID, 0); err != nil {
				return added, fmt.Errorf("drop product-level link %d: %w", productID, err)
			}
			for _, variant := range product.Variants {
				link := syncdomain.NewProductLink(e.config.ExternalIDPrefix, productID, variant.ID)
				inserted, err := e.links.CreateIfAbsent(ctx, link)
				if err != nil {
					return added, fmt.Errorf("prepare link %s: %w", link.ExternalID, err)
				}
				if inserted {
					added++
				}
			}
			continue
		}

		link := syncdomain.NewProductLink(e.config.ExternalIDPrefix, productID, 0)
		inserted, err := e.links.CreateIfAbsent(ctx, link)
		if err != nil {
			return added, fmt.Errorf("prepare link %s: %w", link.ExternalID, err)
		}
		if inserted {
			added++
		}
	}

	e.logger.Info("prepared product links",
		zap.Int("products", len(productIDs)),
		zap.Int("added", added))
	return added, nil
}

// ---------------------------------------------------------------------------
// Single product push
// ---------------------------------------------------------------------------

// SyncOne pushes a single catalog row right now, without hash skipping.
// A zero variantID on a variant product pushes every variant.
func (e *ProductEngine) SyncOne(ctx context.Context, productID, variantID int64) error {
	product, err := e.catalog.FindProduct(ctx, productID)
	if err != nil {
		return err
	}

	cache := NewRunCache()
	cache.products[productID] = product

	if variantID > 0 {
		return e.pushRow(ctx, cache, product, variantID)
	}
	if product.HasVariants() {
		for _, variant := range product.Variants {
			if err := e.pushRow(ctx, cache, product, variant.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return e.pushRow(ctx, cache, product, 0)
}

// pushRow maps and sends one row, keeping the link row in step
func (e *ProductEngine) pushRow(ctx context.Context, cache *RunCache, product *commerce.Product, variantID int64) error {
	link, err := e.ensureLink(ctx, product.ID, variantID)
	if err != nil {
		return err
	}

	payload, err := e.mapper.Map(ctx, cache, product, variantID)
	if err != nil {
		link.RecordFailure(err.Error())
		_ = e.links.Save(ctx, link)
		return err
	}
	payload["externalId"] = link.ExternalID

	hash, err := syncdomain.PayloadHash(payload)
	if err != nil {
		return err
	}

	if err := e.send(ctx, link.ExternalID, payload); err != nil {
		link.RecordFailure(err.Error())
		if saveErr := e.links.Save(ctx, link); saveErr != nil {
			e.logger.Error("save link after failed push",
				zap.String("external_id", link.ExternalID), zap.Error(saveErr))
		}
		return err
	}

	link.RecordSuccess(hash)
	return e.links.Save(ctx, link)
}

// ensureLink finds the link row for a catalog pair, creating it when missing
func (e *ProductEngine) ensureLink(ctx context.Context, productID, variantID int64) (*syncdomain.ProductLink, error) {
	link, err := e.links.FindByCatalogRow(ctx, productID, variantID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, syncdomain.ErrLinkNotFound) {
		return nil, err
	}

	fresh := syncdomain.NewProductLink(e.config.ExternalIDPrefix, productID, variantID)
	if _, err := e.links.CreateIfAbsent(ctx, fresh); err != nil {
		return nil, err
	}
	return e.links.FindByCatalogRow(ctx, productID, variantID)
}

// send performs update with create fallback: the marketplace answers 404 for
// identifiers it has never seen, in which case the same payload is POSTed.
func (e *ProductEngine) send(ctx context.Context, externalID string, payload map[string]any) error {
	result, err := e.api.Update(ctx, externalID, payload)
	if err != nil {
		return err
	}

	if result.IsNotFound() {
		e.logger.Debug("remote product missing, creating",
			zap.String("external_id", externalID))
		result, err = e.api.Create(ctx, externalID, payload)
		if err != nil {
			return err
		}
	}

	return result.Err()
}

// ---------------------------------------------------------------------------
// Batch runs
// ---------------------------------------------------------------------------

// SyncPending pushes every link that has never synced or last failed
func (e *ProductEngine) SyncPending(ctx context.Context) (*ProductRunStats, error) {
	return e.run(ctx, e.links.ListPendingAfter)
}

// SyncAll pushes every link regardless of its last outcome
func (e *ProductEngine) SyncAll(ctx context.Context) (*ProductRunStats, error) {
	return e.run(ctx, e.links.ListAfter)
}

// run drives a batch loop over the given fetcher. The cursor is written
// after every processed row; it is reset to zero only when the run completes
// cleanly, so an aborted run picks up behind the last processed row.
func (e *ProductEngine) run(ctx context.Context, fetch func(context.Context, int64, int) ([]syncdomain.ProductLink, error)) (*ProductRunStats, error) {
	stats := &ProductRunStats{}
	cache := NewRunCache()

	cursor, err := e.cursors.GetInt(ctx, syncdomain.CursorProductSync)
	if err != nil {
		return stats, fmt.Errorf("read cursor: %w", err)
	}
	if cursor > 0 {
		e.logger.Info("resuming product run", zap.Int64("cursor", cursor))
	}

	for {
		batch, err := fetch(ctx, cursor, e.config.BatchSize)
		if err != nil {
			return stats, fmt.Errorf("fetch links after %d: %w", cursor, err)
		}
		if len(batch) == 0 {
			break
		}

		for i := range batch {
			link := &batch[i]
			outcome, err := e.syncLink(ctx, cache, link)
			stats.Processed++

			if err != nil {
				if errors.Is(err, syncdomain.ErrRateLimited) {
					// Clean stop. The persisted cursor still points at
					// the previous row, so the next run retries this
					// one first.
					stats.RateLimited = true
					e.logger.Warn("product run stopped by rate limit",
						zap.Int64("cursor", cursor),
						zap.Int("processed", stats.Processed))
					return stats, nil
				}
				var mapErr *syncdomain.MappingError
				if !errors.As(err, &mapErr) {
					// Transport faults and rejected pushes abort the
					// run without advancing the cursor past this row.
					return stats, err
				}
				stats.Failed++
				e.logger.Warn("product unmappable, skipping",
					zap.String("external_id", link.ExternalID),
					zap.Error(err))
			} else if outcome == rowSkipped {
				stats.Skipped++
			} else {
				stats.Pushed++
			}

			cursor = link.ID
			if err := e.cursors.SetInt(ctx, syncdomain.CursorProductSync, cursor); err != nil {
				return stats, fmt.Errorf("persist cursor: %w", err)
			}
		}

		if len(batch) < e.config.BatchSize {
			break
		}
	}

	if err := e.cursors.SetInt(ctx, syncdomain.CursorProductSync, 0); err != nil {
		return stats, fmt.Errorf("reset cursor: %w", err)
	}

	e.logger.Info("product run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("pushed", stats.Pushed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

type rowOutcome int

const (
	rowPushed rowOutcome = iota
	rowSkipped
)

// syncLink processes one link row inside a batch run: map, compare hashes,
// push when changed
func (e *ProductEngine) syncLink(ctx context.Context, cache *RunCache, link *syncdomain.ProductLink) (rowOutcome, error) {
	product, err := cache.productFor(ctx, e.catalog, link.ProductID)
	if err != nil {
		if errors.Is(err, commerce.ErrProductNotFound) {
			return rowPushed, syncdomain.NewMappingError(link.ExternalID, "product no longer in catalog")
		}
		return rowPushed, err
	}

	// A link whose variant vanished from the catalog can never map again;
	// drop the row and let the run continue past it.
	if link.VariantID > 0 {
		if _, ok := product.Variant(link.VariantID); !ok {
			if err := e.links.DeleteCatalogRow(ctx, link.ProductID, link.VariantID); err != nil {
				return rowPushed, err
			}
			e.logger.Info("dropped link for vanished variant",
				zap.String("external_id", link.ExternalID))
			return rowPushed, syncdomain.NewMappingError(link.ExternalID, "variant no longer in catalog")
		}
	}

	payload, err := e.mapper.Map(ctx, cache, product, link.VariantID)
	if err != nil {
		link.RecordFailure(err.Error())
		if saveErr := e.links.Save(ctx, link); saveErr != nil {
			return rowPushed, saveErr
		}
		return rowPushed, err
	}
	payload["externalId"] = link.ExternalID

	hash, err := syncdomain.PayloadHash(payload)
	if err != nil {
		return rowPushed, err
	}

	// Nothing changed since the last successful push: refresh the sync
	// timestamp and move on without touching the API.
	if link.LastPayloadHash != "" && link.LastPayloadHash == hash {
		link.RecordSuccess(hash)
		if err := e.links.Save(ctx, link); err != nil {
			return rowSkipped, err
		}
		return rowSkipped, nil
	}

	if err := e.send(ctx, link.ExternalID, payload); err != nil {
		if !errors.Is(err, syncdomain.ErrRateLimited) && !errors.Is(err, syncdomain.ErrTransport) {
			link.RecordFailure(err.Error())
			_ = e.links.Save(ctx, link)
		}
		return rowPushed, err
	}

	link.RecordSuccess(hash)
	if err := e.links.Save(ctx, link); err != nil {
		return rowPushed, err
	}
	return rowPushed, nil
}
