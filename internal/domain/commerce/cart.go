package commerce

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Cart Aggregate
// ---------------------------------------------------------------------------

// Cart is a purchase in progress: the lines an order will be created from
type Cart struct {
	// ID is the local cart id
	ID int64
	// CustomerID is the owning customer
	CustomerID int64
	// DeliveryAddressID and InvoiceAddressID point at the chosen addresses
	DeliveryAddressID int64
	InvoiceAddressID  int64
	// CarrierID is the chosen carrier
	CarrierID int64
	// SecureKey guards cart access in checkout URLs
	SecureKey string
	// Lines are the cart contents
	Lines []CartLine
}

// CartLine is one product/variant with a quantity and the unit price it is
// sold at
type CartLine struct {
	// ProductID is the local product id
	ProductID int64
	// VariantID is the local variant id, zero for simple products
	VariantID int64
	// Quantity is the number of units
	Quantity int
	// UnitPrice is the tax-included price actually charged per unit
	UnitPrice decimal.Decimal
}

// NewCart creates a cart for a customer with a fresh secure key
func NewCart(customerID, deliveryAddressID, invoiceAddressID, carrierID int64) *Cart {
	return &Cart{
		CustomerID:        customerID,
		DeliveryAddressID: deliveryAddressID,
		InvoiceAddressID:  invoiceAddressID,
		CarrierID:         carrierID,
		SecureKey:         uuid.NewString(),
	}
}

// AddLine appends a line to the cart
func (c *Cart) AddLine(productID, variantID int64, quantity int, unitPrice decimal.Decimal) {
	c.Lines = append(c.Lines, CartLine{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total returns the tax-included sum of all lines
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// CartRepository defines persistence for carts
type CartRepository interface {
	// Create inserts the cart with its lines and fills in its ID
	Create(ctx context.Context, cart *Cart) error
}
