package commerce

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order Aggregate
// ---------------------------------------------------------------------------

// Order is a placed order created from a cart. Orders imported from the
// marketplace carry the marketplace totals, not a recomputation of the
// catalog prices.
type Order struct {
	// ID is the local order id
	ID int64
	// CartID is the cart the order was created from
	CartID int64
	// CustomerID is the buying customer
	CustomerID int64
	// DeliveryAddressID and InvoiceAddressID are frozen from the cart
	DeliveryAddressID int64
	InvoiceAddressID  int64
	// CarrierID is the shipping carrier
	CarrierID int64
	// State is the current order state name
	State string
	// PaymentMethod labels how the order was paid
	PaymentMethod string
	// TransactionID is the payment reference on the paying side
	TransactionID string
	// TotalProducts is the tax-included sum of the order lines
	TotalProducts decimal.Decimal
	// TotalShipping is the tax-included shipping charge
	TotalShipping decimal.Decimal
	// TotalPaid is the tax-included grand total owed
	TotalPaid decimal.Decimal
	// TotalPaidReal is the amount actually received so far
	TotalPaidReal decimal.Decimal
	// History records every state the order has been through
	History []StateChange
	// CreatedAt is when the order was placed
	CreatedAt time.Time
	// UpdatedAt is when the order last changed
	UpdatedAt time.Time
}

// StateChange is one entry in the order state history
type StateChange struct {
	// State is the state name the order entered
	State string
	// ChangedAt is when it entered that state
	ChangedAt time.Time
}

// SetState moves the order to a new state and records it in the history.
// Setting the current state again is a no-op.
func (o *Order) SetState(state string) bool {
	if o.State == state {
		return false
	}
	now := time.Now()
	o.State = state
	o.History = append(o.History, StateChange{State: state, ChangedAt: now})
	o.UpdatedAt = now
	return true
}

// RecordPayment registers an amount actually received
func (o *Order) RecordPayment(amount decimal.Decimal, method, transactionID string) {
	o.TotalPaidReal = o.TotalPaidReal.Add(amount)
	if method != "" {
		o.PaymentMethod = method
	}
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	o.UpdatedAt = time.Now()
}

// IsFullyPaid reports whether the received amount covers the grand total
func (o *Order) IsFullyPaid() bool {
	return o.TotalPaidReal.GreaterThanOrEqual(o.TotalPaid)
}

// OrderRepository defines persistence for orders
type OrderRepository interface {
	// FindByID finds an order by id, or ErrOrderNotFound
	FindByID(ctx context.Context, id int64) (*Order, error)

	// Create inserts the order with its history and fills in its ID
	Create(ctx context.Context, order *Order) error

	// Save persists the current state of the order
	Save(ctx context.Context, order *Order) error
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// CheckoutInput carries everything needed to turn a cart into an order
type CheckoutInput struct {
	// Cart is the cart to convert; it is persisted as part of checkout
	Cart *Cart
	// State is the initial order state name
	State string
	// PaymentMethod labels the payment source
	PaymentMethod string
	// TransactionID is the external payment reference
	TransactionID string
	// TotalProducts, TotalShipping and TotalPaid are the authoritative
	// totals for the order
	TotalProducts decimal.Decimal
	TotalShipping decimal.Decimal
	TotalPaid     decimal.Decimal
	// AmountReceived is how much has already been collected
	AmountReceived decimal.Decimal
}

// CheckoutService turns carts into orders
type CheckoutService interface {
	// PlaceOrder persists the cart and creates the order for it
	PlaceOrder(ctx context.Context, input CheckoutInput) (*Order, error)
}
