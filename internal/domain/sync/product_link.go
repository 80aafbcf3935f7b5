package sync

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents the outcome of the last push attempt for a link
type SyncStatus string

const (
	// SyncStatusPending means the row has never been pushed successfully
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusOK means the last push succeeded
	SyncStatusOK SyncStatus = "ok"
	// SyncStatusError means the last push failed
	SyncStatusError SyncStatus = "error"
)

// IsValid checks if the status is one of the known values
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusOK, SyncStatusError:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// ProductLink Entity
// ---------------------------------------------------------------------------

// ProductLink ties one local catalog row (a product, or one of its variants)
// to its marketplace identity and remembers the fingerprint of the last
// payload that was pushed for it. One row per sellable unit: products without
// variants get a single row with VariantID zero, products with variants get
// one row per variant.
type ProductLink struct {
	// ID is the surrogate key of this link
	ID int64
	// ProductID is the local product id
	ProductID int64
	// VariantID is the local variant id, zero for product-level rows
	VariantID int64
	// ExternalID is the marketplace identifier derived for this row
	ExternalID string
	// LastPayloadHash fingerprints the last successfully pushed payload
	LastPayloadHash string
	// Status is the outcome of the last push attempt
	Status SyncStatus
	// LastError holds the message from the last failed push
	LastError string
	// LastSyncedAt is when the row last pushed successfully
	LastSyncedAt *time.Time
	// CreatedAt is when the link was first prepared
	CreatedAt time.Time
	// UpdatedAt is when the link was last touched
	UpdatedAt time.Time
}

// NewProductLink creates a pending link for a catalog row
func NewProductLink(prefix string, productID, variantID int64) *ProductLink {
	now := time.Now()
	return &ProductLink{
		ProductID:  productID,
		VariantID:  variantID,
		ExternalID: BuildExternalID(prefix, productID, variantID),
		Status:     SyncStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsVariant reports whether this link points at a variant row
func (l *ProductLink) IsVariant() bool {
	return l.VariantID > 0
}

// RecordSuccess marks the link as pushed with the given payload hash
func (l *ProductLink) RecordSuccess(payloadHash string) {
	now := time.Now()
	l.LastPayloadHash = payloadHash
	l.Status = SyncStatusOK
	l.LastError = ""
	l.LastSyncedAt = &now
	l.UpdatedAt = now
}

// RecordFailure marks the link as failed with the given message
func (l *ProductLink) RecordFailure(errMsg string) {
	l.Status = SyncStatusError
	l.LastError = errMsg
	l.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// ProductLinkRepository Interface
// ---------------------------------------------------------------------------

// ProductLinkRepository defines persistence for product links. Listing is
// cursor-based on the surrogate key so interrupted runs can resume where
// they stopped.
type ProductLinkRepository interface {
	// FindByID finds a link by surrogate key
	FindByID(ctx context.Context, id int64) (*ProductLink, error)

	// FindByExternalID finds a link by marketplace identifier
	FindByExternalID(ctx context.Context, externalID string) (*ProductLink, error)

	// FindByCatalogRow finds the link for a product/variant pair
	FindByCatalogRow(ctx context.Context, productID, variantID int64) (*ProductLink, error)

	// ListAfter returns up to limit links with ID greater than cursor,
	// ordered by ID ascending
	ListAfter(ctx context.Context, cursor int64, limit int) ([]ProductLink, error)

	// ListPendingAfter is ListAfter restricted to rows not yet in status ok
	ListPendingAfter(ctx context.Context, cursor int64, limit int) ([]ProductLink, error)

	// CreateIfAbsent inserts the link unless a row for the same
	// product/variant pair already exists. Returns true when a row was
	// inserted.
	CreateIfAbsent(ctx context.Context, link *ProductLink) (bool, error)

	// Save persists the current state of the link
	Save(ctx context.Context, link *ProductLink) error

	// DeleteCatalogRow removes the link for a product/variant pair.
	// Used to drop stale product-level rows once a product gains variants.
	DeleteCatalogRow(ctx context.Context, productID, variantID int64) error

	// Count returns the total number of links
	Count(ctx context.Context) (int64, error)
}
