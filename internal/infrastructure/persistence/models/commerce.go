package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Reference   string          `gorm:"type:varchar(64);index"`
	EAN13       string          `gorm:"type:varchar(13);column:ean13"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Active      bool            `gorm:"not null;default:true;index"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	WeightKg    decimal.Decimal `gorm:"type:numeric(10,3);not null;default:0"`
	Stock       int             `gorm:"not null;default:0"`
	CategoryID  int64           `gorm:"not null;default:0;index"`
	ImagesJSON  string          `gorm:"type:text;column:images"`
	Variants    []VariantModel  `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
// Variants must have been loaded for them to appear on the result.
func (m *ProductModel) ToDomain() *commerce.Product {
	product := &commerce.Product{
		ID:          m.ID,
		Reference:   m.Reference,
		EAN13:       m.EAN13,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		Price:       m.Price,
		WeightKg:    m.WeightKg,
		Stock:       m.Stock,
		CategoryID:  m.CategoryID,
		ImageURLs:   decodeStrings(m.ImagesJSON),
	}
	for i := range m.Variants {
		product.Variants = append(product.Variants, *m.Variants[i].ToDomain())
	}
	return product
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *commerce.Product) {
	m.ID = p.ID
	m.Reference = p.Reference
	m.EAN13 = p.EAN13
	m.Name = p.Name
	m.Description = p.Description
	m.Active = p.Active
	m.Price = p.Price
	m.WeightKg = p.WeightKg
	m.Stock = p.Stock
	m.CategoryID = p.CategoryID
	m.ImagesJSON = encodeStrings(p.ImageURLs)
	m.Variants = nil
	for i := range p.Variants {
		var vm VariantModel
		vm.FromDomain(&p.Variants[i])
		m.Variants = append(m.Variants, vm)
	}
}

// VariantModel is the persistence model for the Variant domain entity.
type VariantModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	ProductID      int64           `gorm:"not null;index"`
	Reference      string          `gorm:"type:varchar(64)"`
	EAN13          string          `gorm:"type:varchar(13);column:ean13"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Stock          int             `gorm:"not null;default:0"`
	AttributesJSON string          `gorm:"type:text;column:attributes"`
	ImagesJSON     string          `gorm:"type:text;column:images"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain Variant entity.
func (m *VariantModel) ToDomain() *commerce.Variant {
	variant := &commerce.Variant{
		ID:        m.ID,
		ProductID: m.ProductID,
		Reference: m.Reference,
		EAN13:     m.EAN13,
		Price:     m.Price,
		Stock:     m.Stock,
		ImageURLs: decodeStrings(m.ImagesJSON),
	}
	if m.AttributesJSON != "" {
		var attrs []commerce.AttributeValue
		if err := json.Unmarshal([]byte(m.AttributesJSON), &attrs); err == nil {
			variant.Attributes = attrs
		}
	}
	return variant
}

// FromDomain populates the persistence model from a domain Variant entity.
func (m *VariantModel) FromDomain(v *commerce.Variant) {
	m.ID = v.ID
	m.ProductID = v.ProductID
	m.Reference = v.Reference
	m.EAN13 = v.EAN13
	m.Price = v.Price
	m.Stock = v.Stock
	m.ImagesJSON = encodeStrings(v.ImageURLs)
	if len(v.Attributes) > 0 {
		if raw, err := json.Marshal(v.Attributes); err == nil {
			m.AttributesJSON = string(raw)
		}
	} else {
		m.AttributesJSON = "[]"
	}
}

// CategoryMapModel maps a local category onto a marketplace category.
type CategoryMapModel struct {
	CategoryID         int64     `gorm:"primaryKey"`
	ExternalCategoryID string    `gorm:"type:varchar(64);not null"`
	Name               string    `gorm:"type:varchar(255)"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryMapModel) TableName() string {
	return "category_map"
}

// ToDomain converts the persistence model to a domain CategoryMapping.
func (m *CategoryMapModel) ToDomain() *commerce.CategoryMapping {
	return &commerce.CategoryMapping{
		CategoryID:         m.CategoryID,
		ExternalCategoryID: m.ExternalCategoryID,
		Name:               m.Name,
	}
}

// ---------------------------------------------------------------------------
// Customers and addresses
// ---------------------------------------------------------------------------

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_customer_email"`
	FirstName string    `gorm:"type:varchar(64)"`
	LastName  string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *commerce.Customer {
	return &commerce.Customer{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		CreatedAt: m.CreatedAt,
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *commerce.Customer) *CustomerModel {
	return &CustomerModel{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		CreatedAt: c.CreatedAt,
	}
}

// AddressModel is the persistence model for the Address domain entity.
type AddressModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	CustomerID  int64  `gorm:"not null;index"`
	Alias       string `gorm:"type:varchar(64)"`
	FirstName   string `gorm:"type:varchar(64)"`
	LastName    string `gorm:"type:varchar(64)"`
	Street      string `gorm:"type:varchar(255)"`
	ZipCode     string `gorm:"type:varchar(16)"`
	City        string `gorm:"type:varchar(128)"`
	Phone       string `gorm:"type:varchar(32)"`
	CountryCode string `gorm:"type:varchar(2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the persistence model to a domain Address entity.
func (m *AddressModel) ToDomain() *commerce.Address {
	return &commerce.Address{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		Alias:       m.Alias,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Street:      m.Street,
		ZipCode:     m.ZipCode,
		City:        m.City,
		Phone:       m.Phone,
		CountryCode: m.CountryCode,
	}
}

// AddressModelFromDomain creates a new persistence model from a domain Address entity.
func AddressModelFromDomain(a *commerce.Address) *AddressModel {
	return &AddressModel{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		Alias:       a.Alias,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Street:      a.Street,
		ZipCode:     a.ZipCode,
		City:        a.City,
		Phone:       a.Phone,
		CountryCode: a.CountryCode,
	}
}

// ---------------------------------------------------------------------------
// Carts and orders
// ---------------------------------------------------------------------------

// CartModel is the persistence model for the Cart aggregate.
type CartModel struct {
	ID                int64           `gorm:"primaryKey;autoIncrement"`
	CustomerID        int64           `gorm:"not null;index"`
	DeliveryAddressID int64           `gorm:"not null"`
	InvoiceAddressID  int64           `gorm:"not null"`
	CarrierID         int64           `gorm:"not null;default:0"`
	SecureKey         string          `gorm:"type:varchar(36);not null"`
	Lines             []CartLineModel `gorm:"foreignKey:CartID"`
	CreatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartLineModel is one line of a persisted cart.
type CartLineModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	CartID    int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null"`
	VariantID int64           `gorm:"not null;default:0"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// CartModelFromDomain creates a new persistence model from a domain Cart.
func CartModelFromDomain(c *commerce.Cart) *CartModel {
	m := &CartModel{
		ID:                c.ID,
		CustomerID:        c.CustomerID,
		DeliveryAddressID: c.DeliveryAddressID,
		InvoiceAddressID:  c.InvoiceAddressID,
		CarrierID:         c.CarrierID,
		SecureKey:         c.SecureKey,
	}
	for _, line := range c.Lines {
		m.Lines = append(m.Lines, CartLineModel{
			CartID:    c.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return m
}

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	ID                int64               `gorm:"primaryKey;autoIncrement"`
	CartID            int64               `gorm:"not null;index"`
	CustomerID        int64               `gorm:"not null;index"`
	DeliveryAddressID int64               `gorm:"not null"`
	InvoiceAddressID  int64               `gorm:"not null"`
	CarrierID         int64               `gorm:"not null;default:0"`
	State             string              `gorm:"type:varchar(64);not null;index"`
	PaymentMethod     string              `gorm:"type:varchar(64)"`
	TransactionID     string              `gorm:"type:varchar(64);index"`
	TotalProducts     decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	TotalShipping     decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	TotalPaid         decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	TotalPaidReal     decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	History           []OrderHistoryModel `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time           `gorm:"not null"`
	UpdatedAt         time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderHistoryModel is one state transition of a persisted order.
type OrderHistoryModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OrderID   int64     `gorm:"not null;index"`
	State     string    `gorm:"type:varchar(64);not null"`
	ChangedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderHistoryModel) TableName() string {
	return "order_history"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *commerce.Order {
	order := &commerce.Order{
		ID:                m.ID,
		CartID:            m.CartID,
		CustomerID:        m.CustomerID,
		DeliveryAddressID: m.DeliveryAddressID,
		InvoiceAddressID:  m.InvoiceAddressID,
		CarrierID:         m.CarrierID,
		State:             m.State,
		PaymentMethod:     m.PaymentMethod,
		TransactionID:     m.TransactionID,
		TotalProducts:     m.TotalProducts,
		TotalShipping:     m.TotalShipping,
		TotalPaid:         m.TotalPaid,
		TotalPaidReal:     m.TotalPaidReal,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	for _, h := range m.History {
		order.History = append(order.History, commerce.StateChange{
			State:     h.State,
			ChangedAt: h.ChangedAt,
		})
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *commerce.Order) {
	m.ID = o.ID
	m.CartID = o.CartID
	m.CustomerID = o.CustomerID
	m.DeliveryAddressID = o.DeliveryAddressID
	m.InvoiceAddressID = o.InvoiceAddressID
	m.CarrierID = o.CarrierID
	m.State = o.State
	m.PaymentMethod = o.PaymentMethod
	m.TransactionID = o.TransactionID
	m.TotalProducts = o.TotalProducts
	m.TotalShipping = o.TotalShipping
	m.TotalPaid = o.TotalPaid
	m.TotalPaidReal = o.TotalPaidReal
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.History = nil
	for _, h := range o.History {
		m.History = append(m.History, OrderHistoryModel{
			OrderID:   o.ID,
			State:     h.State,
			ChangedAt: h.ChangedAt,
		})
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
