package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
)

// MapperConfig holds the static inputs of payload building
type MapperConfig struct {
	// ExternalIDPrefix prefixes derived marketplace identifiers
	ExternalIDPrefix string
	// DispatchDays is the promised dispatch period in days
	DispatchDays int
	// ShippingTag is the marketplace shipping tag for the default carrier,
	// empty when no carrier mapping is configured
	ShippingTag string
}

// ProductMapper translates local catalog products into marketplace payloads.
// One mapper serves a whole run; repeated lookups go through the RunCache.
type ProductMapper struct {
	categories commerce.CategoryMapRepository
	config     MapperConfig
}

// NewProductMapper creates a ProductMapper
func NewProductMapper(categories commerce.CategoryMapRepository, config MapperConfig) *ProductMapper {
	if config.DispatchDays <= 0 {
		config.DispatchDays = 1
	}
	if config.ExternalIDPrefix == "" {
		config.ExternalIDPrefix = syncdomain.DefaultExternalIDPrefix
	}
	return &ProductMapper{categories: categories, config: config}
}

// Map builds the marketplace payload for one catalog row. A zero variantID
// maps the product itself; a positive one maps that variant. Images are
// mandatory on the marketplace side, so a row without any yields a
// MappingError.
func (m *ProductMapper) Map(ctx context.Context, cache *RunCache, product *commerce.Product, variantID int64) (map[string]any, error) {
	isVariant := variantID > 0

	var variant *commerce.Variant
	if isVariant {
		v, ok := product.Variant(variantID)
		if !ok {
			return nil, commerce.ErrVariantNotFound
		}
		variant = v
	}

	name := baseName(product)

	var externalAttributes []map[string]any
	var variantGroup map[string]any
	if isVariant {
		groupIndex := cache.groupIndexFor(product)
		externalAttributes = buildExternalAttributes(variant, groupIndex)
		variantGroup = buildVariantGroup(product.ID, groupIndex)

		if suffixed := variantName(name, externalAttributes); len([]rune(suffixed)) >= 3 {
			name = suffixed
		}
	}

	ean := product.EAN13
	sku := product.Reference
	if isVariant {
		if variant.EAN13 != "" {
			ean = variant.EAN13
		}
		if variant.Reference != "" {
			sku = variant.Reference
		}
	}

	images := buildImages(product, variant)
	if len(images) == 0 {
		ref := syncdomain.BuildExternalID(m.config.ExternalIDPrefix, product.ID, variantID)
		return nil, syncdomain.NewMappingError(ref, "product has no images")
	}

	stock := product.Stock
	priceCents := product.PriceCents()
	if isVariant {
		stock = variant.Stock
		priceCents = variant.PriceCents()
	}
	if stock < 0 {
		stock = 0
	}
	if priceCents < 0 {
		priceCents = 0
	}

	status := "inactive"
	if product.Active && stock > 0 {
		status = "active"
	}

	weightGrams := product.WeightGrams()
	if weightGrams <= 0 {
		weightGrams = 1
	}

	packaging := map[string]any{"weight": weightGrams}
	if m.config.ShippingTag != "" {
		packaging["tags"] = []string{m.config.ShippingTag}
	}

	payload := map[string]any{
		"externalId":  syncdomain.BuildExternalID(m.config.ExternalIDPrefix, product.ID, variantID),
		"status":      status,
		"name":        name,
		"description": product.Description,
		"price":       priceCents,
		"stock":       stock,
		"ean":         ean,
		"sku":         sku,
		"dispatchTime": map[string]any{
			"period": m.config.DispatchDays,
		},
		"packaging": packaging,
		"images":    images,
	}

	if categories, err := m.externalCategories(ctx, cache, product.CategoryID); err != nil {
		return nil, err
	} else if len(categories) > 0 {
		payload["externalCategories"] = categories
	}

	if isVariant {
		if len(externalAttributes) > 0 {
			payload["externalAttributes"] = externalAttributes
		}
		if variantGroup != nil {
			payload["externalVariantGroup"] = variantGroup
		}
	}

	return payload, nil
}

// externalCategories resolves the product category through the mapping table.
// An unmapped category is not an error, the payload just goes out without
// category data.
func (m *ProductMapper) externalCategories(ctx context.Context, cache *RunCache, categoryID int64) ([]map[string]any, error) {
	if categoryID <= 0 {
		return nil, nil
	}

	mapping, ok := cache.categories[categoryID]
	if !ok {
		if cache.categoryMiss[categoryID] {
			return nil, nil
		}
		found, err := m.categories.FindByCategoryID(ctx, categoryID)
		if err != nil {
			if errors.Is(err, commerce.ErrCategoryNotMapped) {
				cache.categoryMiss[categoryID] = true
				return nil, nil
			}
			return nil, fmt.Errorf("resolve category %d: %w", categoryID, err)
		}
		cache.categories[categoryID] = found
		mapping = found
	}

	return []map[string]any{
		{
			"source": "marketplace",
			"breadcrumb": []map[string]any{
				{
					"id":   mapping.ExternalCategoryID,
					"name": mapping.Name,
				},
			},
		},
	}, nil
}

// baseName picks a usable display name: the product name when it has at
// least three characters, else the reference, else a synthetic name.
func baseName(product *commerce.Product) string {
	name := strings.TrimSpace(product.Name)
	if len([]rune(name)) >= 3 {
		return name
	}
	ref := strings.TrimSpace(product.Reference)
	if len([]rune(ref)) >= 3 {
		return ref
	}
	return fmt.Sprintf("Produkt #%d", product.ID)
}

// variantName appends the attribute values to the base name
func variantName(base string, attributes []map[string]any) string {
	var suffix []string
	for _, attr := range attributes {
		if values, ok := attr["values"].([]string); ok && len(values) > 0 {
			suffix = append(suffix, values[0])
		}
	}
	if len(suffix) == 0 {
		return base
	}
	return base + " - " + strings.Join(suffix, " - ")
}

// buildImages returns the image list for a row: variant images when the
// variant has its own, else the product images. URLs are forced to https.
func buildImages(product *commerce.Product, variant *commerce.Variant) []map[string]any {
	urls := product.ImageURLs
	if variant != nil && len(variant.ImageURLs) > 0 {
		urls = variant.ImageURLs
	}

	images := make([]map[string]any, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		if strings.HasPrefix(url, "http://") {
			url = "https://" + strings.TrimPrefix(url, "http://")
		}
		images = append(images, map[string]any{"url": url})
	}
	return images
}

// buildExternalAttributes renders the variant's attribute values in stable
// group index order
func buildExternalAttributes(variant *commerce.Variant, groupIndex map[int64]attributeGroupMeta) []map[string]any {
	if len(groupIndex) == 0 {
		return nil
	}

	type entry struct {
		meta  attributeGroupMeta
		group int64
		value string
	}
	entries := make([]entry, 0, len(variant.Attributes))
	for _, attr := range variant.Attributes {
		meta, ok := groupIndex[attr.GroupID]
		if !ok {
			continue
		}
		entries = append(entries, entry{meta: meta, group: attr.GroupID, value: strings.TrimSpace(attr.Value)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].meta.Index < entries[j].meta.Index
	})

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"source": "shop",
			"id":     strconv.FormatInt(e.group, 10),
			"name":   e.meta.Name,
			"type":   "string",
			"values": []string{e.value},
			"index":  e.meta.Index,
		})
	}
	return out
}

// buildVariantGroup declares how the marketplace should render the variant
// picker. When a color group exists its axis is replaced by "thumbnail": the
// color is visible on the image, so no separate color dropdown is needed.
func buildVariantGroup(productID int64, groupIndex map[int64]attributeGroupMeta) map[string]any {
	if len(groupIndex) == 0 {
		return nil
	}

	metas := make([]attributeGroupMeta, 0, len(groupIndex))
	for _, meta := range groupIndex {
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Index < metas[j].Index })

	var colorIndexes []int
	var allIndexes []int
	for _, meta := range metas {
		allIndexes = append(allIndexes, meta.Index)
		if meta.IsColor {
			colorIndexes = append(colorIndexes, meta.Index)
		}
	}

	attributes := make([]any, 0, len(allIndexes)+1)
	if len(colorIndexes) > 0 {
		attributes = append(attributes, "thumbnail")
		for _, idx := range allIndexes {
			if !containsInt(colorIndexes, idx) {
				attributes = append(attributes, idx)
			}
		}
	} else {
		for _, idx := range allIndexes {
			attributes = append(attributes, idx)
		}
	}

	return map[string]any{
		"id":         strconv.FormatInt(productID, 10),
		"source":     "integration",
		"attributes": attributes,
	}
}

// isColorGroup reports whether an attribute belongs to a color group, either
// by flag or by the group name mentioning "kolor"
func isColorGroup(attr commerce.AttributeValue) bool {
	if attr.IsColor {
		return true
	}
	return strings.Contains(strings.ToLower(attr.Group), "kolor")
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
