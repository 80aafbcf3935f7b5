package models

import (
	"time"

	sync "github.com/AdX213/erli-sync/internal/domain/sync"
)

// ProductLinkModel is the persistence model for the ProductLink domain entity.
type ProductLinkModel struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	ProductID       int64           `gorm:"not null;uniqueIndex:idx_product_link_row,priority:1"`
	VariantID       int64           `gorm:"not null;default:0;uniqueIndex:idx_product_link_row,priority:2"`
	ExternalID      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_link_external"`
	LastPayloadHash string          `gorm:"type:varchar(64)"`
	Status          sync.SyncStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	LastError       string          `gorm:"type:text"`
	LastSyncedAt    *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductLinkModel) TableName() string {
	return "product_links"
}

// ToDomain converts the persistence model to a domain ProductLink entity.
func (m *ProductLinkModel) ToDomain() *sync.ProductLink {
	return &sync.ProductLink{
		ID:              m.ID,
		ProductID:       m.ProductID,
		VariantID:       m.VariantID,
		ExternalID:      m.ExternalID,
		LastPayloadHash: m.LastPayloadHash,
		Status:          m.Status,
		LastError:       m.LastError,
		LastSyncedAt:    m.LastSyncedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductLink entity.
func (m *ProductLinkModel) FromDomain(link *sync.ProductLink) {
	m.ID = link.ID
	m.ProductID = link.ProductID
	m.VariantID = link.VariantID
	m.ExternalID = link.ExternalID
	m.LastPayloadHash = link.LastPayloadHash
	m.Status = link.Status
	m.LastError = link.LastError
	m.LastSyncedAt = link.LastSyncedAt
	m.CreatedAt = link.CreatedAt
	m.UpdatedAt = link.UpdatedAt
}

// ProductLinkModelFromDomain creates a new persistence model from a domain ProductLink entity.
func ProductLinkModelFromDomain(link *sync.ProductLink) *ProductLinkModel {
	m := &ProductLinkModel{}
	m.FromDomain(link)
	return m
}

// OrderLinkModel is the persistence model for the OrderLink domain entity.
type OrderLinkModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	ExternalOrderID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_link_external"`
	OrderID         int64     `gorm:"not null;index"`
	LastStatus      string    `gorm:"type:varchar(64)"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLinkModel) TableName() string {
	return "order_links"
}

// ToDomain converts the persistence model to a domain OrderLink entity.
func (m *OrderLinkModel) ToDomain() *sync.OrderLink {
	return &sync.OrderLink{
		ID:              m.ID,
		ExternalOrderID: m.ExternalOrderID,
		OrderID:         m.OrderID,
		LastStatus:      m.LastStatus,
		CreatedAt:       m.CreatedAt,
	}
}

// OrderLinkModelFromDomain creates a new persistence model from a domain OrderLink entity.
func OrderLinkModelFromDomain(link *sync.OrderLink) *OrderLinkModel {
	return &OrderLinkModel{
		ID:              link.ID,
		ExternalOrderID: link.ExternalOrderID,
		OrderID:         link.OrderID,
		LastStatus:      link.LastStatus,
		CreatedAt:       link.CreatedAt,
	}
}

// CursorModel stores named progress markers for the sync engines.
type CursorModel struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CursorModel) TableName() string {
	return "sync_cursors"
}
