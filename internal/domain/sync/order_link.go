package sync

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// OrderLink Entity
// ---------------------------------------------------------------------------

// OrderLink ties a marketplace order to the local order created for it.
// Its existence is the sole dedup record for inbound order events: an
// orderCreated event whose external id already has a link is ignored.
type OrderLink struct {
	// ID is the surrogate key of this link
	ID int64
	// ExternalOrderID is the marketplace order identifier
	ExternalOrderID string
	// OrderID is the local order created for it
	OrderID int64
	// LastStatus is the marketplace status string seen at import time
	LastStatus string
	// CreatedAt is when the local order was created
	CreatedAt time.Time
}

// NewOrderLink creates a link between a marketplace order and a local order
func NewOrderLink(externalOrderID string, orderID int64, lastStatus string) *OrderLink {
	return &OrderLink{
		ExternalOrderID: externalOrderID,
		OrderID:         orderID,
		LastStatus:      lastStatus,
		CreatedAt:       time.Now(),
	}
}

// ---------------------------------------------------------------------------
// OrderLinkRepository Interface
// ---------------------------------------------------------------------------

// OrderLinkRepository defines persistence for order links
type OrderLinkRepository interface {
	// FindByExternalOrderID finds a link by marketplace order id
	FindByExternalOrderID(ctx context.Context, externalOrderID string) (*OrderLink, error)

	// ExistsByExternalOrderID checks whether a marketplace order was
	// already imported
	ExistsByExternalOrderID(ctx context.Context, externalOrderID string) (bool, error)

	// Create inserts a new link. The external order id is unique, so a
	// concurrent duplicate import surfaces as an error here.
	Create(ctx context.Context, link *OrderLink) error
}

// ---------------------------------------------------------------------------
// Sync cursor
// ---------------------------------------------------------------------------

// Cursor keys used by the engines.
const (
	// CursorProductSync tracks how far a product push run has progressed
	CursorProductSync = "product_sync_cursor"
	// CursorInboxAck remembers the last acknowledged inbox event id
	CursorInboxAck = "inbox_last_ack"
)

// CursorRepository stores named progress markers. The product engine persists
// its position after every row so an aborted run resumes instead of starting
// over.
type CursorRepository interface {
	// Get returns the stored value for key, or ErrCursorNotFound
	Get(ctx context.Context, key string) (string, error)

	// GetInt returns the stored value parsed as int64; a missing key
	// yields zero, not an error
	GetInt(ctx context.Context, key string) (int64, error)

	// Set stores the value for key, creating or replacing it
	Set(ctx context.Context, key, value string) error

	// SetInt stores an integer value for key
	SetInt(ctx context.Context, key string, value int64) error
}
