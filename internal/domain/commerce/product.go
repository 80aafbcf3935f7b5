package commerce

import (
	"context"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Product Aggregate
// ---------------------------------------------------------------------------

// Product is a local catalog product together with the pieces the marketplace
// payload needs: pricing, stock, images, category and its variants.
type Product struct {
	// ID is the local product id
	ID int64
	// Reference is the merchant SKU
	Reference string
	// EAN13 is the product barcode, may be empty
	EAN13 string
	// Name is the display name
	Name string
	// Description is the long HTML description
	Description string
	// Active indicates whether the product is sellable
	Active bool
	// Price is the tax-included unit price
	Price decimal.Decimal
	// WeightKg is the shipping weight in kilograms
	WeightKg decimal.Decimal
	// Stock is the available quantity for product-level rows
	Stock int
	// CategoryID is the default category
	CategoryID int64
	// ImageURLs lists product image URLs in display order
	ImageURLs []string
	// Variants lists the sellable variants, empty for simple products
	Variants []Variant
}

// Variant is one sellable combination of a product
type Variant struct {
	// ID is the local variant id
	ID int64
	// ProductID is the owning product
	ProductID int64
	// Reference is the variant SKU, may be empty
	Reference string
	// EAN13 is the variant barcode, may be empty
	EAN13 string
	// Price is the resolved tax-included price for this variant
	Price decimal.Decimal
	// Stock is the available quantity
	Stock int
	// Attributes lists the defining attribute values
	Attributes []AttributeValue
	// ImageURLs lists variant-specific image URLs, may be empty
	ImageURLs []string
}

// AttributeValue is one attribute group/value pair on a variant,
// e.g. group "Color" value "Red"
type AttributeValue struct {
	// GroupID is the local attribute group id
	GroupID int64
	// Group is the attribute group name
	Group string
	// Value is the chosen value within the group
	Value string
	// IsColor indicates a color-type group (drives thumbnail selection)
	IsColor bool
}

// HasVariants reports whether the product sells through variants
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant returns the variant with the given id
func (p *Product) Variant(variantID int64) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// PriceCents converts the price into integer minor units
func (p *Product) PriceCents() int64 {
	return p.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PriceCents converts the variant price into integer minor units
func (v *Variant) PriceCents() int64 {
	return v.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// WeightGrams converts the shipping weight into integer grams
func (p *Product) WeightGrams() int64 {
	return p.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

// ---------------------------------------------------------------------------
// Category mapping
// ---------------------------------------------------------------------------

// CategoryMapping ties a local category to its marketplace category
type CategoryMapping struct {
	// CategoryID is the local category id
	CategoryID int64
	// ExternalCategoryID is the marketplace category identifier
	ExternalCategoryID string
	// Name is the local category name, kept for operator reference
	Name string
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// CatalogRepository reads products for the outbound push.
// Reads are snapshot-style: the returned aggregate contains everything the
// payload builder needs so mapping never goes back to the database.
type CatalogRepository interface {
	// FindProduct loads a product with variants, attributes and images
	FindProduct(ctx context.Context, productID int64) (*Product, error)

	// ListSellableIDs returns the ids of all active products in id order
	ListSellableIDs(ctx context.Context) ([]int64, error)
}

// CategoryMapRepository resolves local categories to marketplace categories
type CategoryMapRepository interface {
	// FindByCategoryID returns the mapping for a local category, or
	// ErrCategoryNotMapped
	FindByCategoryID(ctx context.Context, categoryID int64) (*CategoryMapping, error)
}
