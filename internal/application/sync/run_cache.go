package sync

import (
	"context"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
)

// attributeGroupMeta describes one attribute group of a product: its stable
// position among the product's groups and whether it is a color group.
type attributeGroupMeta struct {
	Index   int
	Name    string
	IsColor bool
}

// RunCache memoizes lookups that repeat across the rows of a single sync run
// (attribute group ordering, category mappings). A fresh cache is created per
// run so no state leaks between runs.
type RunCache struct {
	groupIndex   map[int64]map[int64]attributeGroupMeta
	categories   map[int64]*commerce.CategoryMapping
	categoryMiss map[int64]bool
	products     map[int64]*commerce.Product
}

// NewRunCache creates an empty per-run cache
func NewRunCache() *RunCache {
	return &RunCache{
		groupIndex:   make(map[int64]map[int64]attributeGroupMeta),
		categories:   make(map[int64]*commerce.CategoryMapping),
		categoryMiss: make(map[int64]bool),
		products:     make(map[int64]*commerce.Product),
	}
}

// productFor loads a product through the cache. Variant rows of the same
// product hit the catalog once per run.
func (c *RunCache) productFor(ctx context.Context, catalog commerce.CatalogRepository, productID int64) (*commerce.Product, error) {
	if cached, ok := c.products[productID]; ok {
		return cached, nil
	}
	product, err := catalog.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.products[productID] = product
	return product, nil
}

// groupIndexFor returns the attribute group index map for a product,
// computing it on first use. Groups are indexed in the order they first
// appear across the product's variants, which is stable for a given catalog
// snapshot.
func (c *RunCache) groupIndexFor(product *commerce.Product) map[int64]attributeGroupMeta {
	if cached, ok := c.groupIndex[product.ID]; ok {
		return cached
	}

	index := make(map[int64]attributeGroupMeta)
	next := 0
	for vi := range product.Variants {
		for _, attr := range product.Variants[vi].Attributes {
			if _, seen := index[attr.GroupID]; seen {
				continue
			}
			index[attr.GroupID] = attributeGroupMeta{
				Index:   next,
				Name:    attr.Group,
				IsColor: isColorGroup(attr),
			}
			next++
		}
	}

	c.groupIndex[product.ID] = index
	return index
}
