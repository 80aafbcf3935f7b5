package commerce

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
)

// CheckoutService turns a cart into a placed order. Totals are taken from the
// input as-is: callers importing marketplace orders pass the marketplace
// totals, which win over anything the catalog would price the cart at.
type CheckoutService struct {
	carts  commerce.CartRepository
	orders commerce.OrderRepository
	logger *zap.Logger
}

// NewCheckoutService creates a CheckoutService
func NewCheckoutService(carts commerce.CartRepository, orders commerce.OrderRepository, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{carts: carts, orders: orders, logger: logger}
}

// PlaceOrder persists the cart and creates the order for it
func (s *CheckoutService) PlaceOrder(ctx context.Context, input commerce.CheckoutInput) (*commerce.Order, error) {
	if input.Cart == nil || input.Cart.IsEmpty() {
		return nil, commerce.ErrEmptyCart
	}

	if err := s.carts.Create(ctx, input.Cart); err != nil {
		return nil, fmt.Errorf("persist cart: %w", err)
	}

	order := &commerce.Order{
		CartID:            input.Cart.ID,
		CustomerID:        input.Cart.CustomerID,
		DeliveryAddressID: input.Cart.DeliveryAddressID,
		InvoiceAddressID:  input.Cart.InvoiceAddressID,
		CarrierID:         input.Cart.CarrierID,
		PaymentMethod:     input.PaymentMethod,
		TransactionID:     input.TransactionID,
		TotalProducts:     input.TotalProducts,
		TotalShipping:     input.TotalShipping,
		TotalPaid:         input.TotalPaid,
	}
	order.SetState(input.State)
	if input.AmountReceived.IsPositive() {
		order.RecordPayment(input.AmountReceived, input.PaymentMethod, input.TransactionID)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("cart_id", input.Cart.ID),
		zap.String("state", order.State),
		zap.String("total_paid", order.TotalPaid.String()))
	return order, nil
}

// Ensure CheckoutService implements the domain interface
var _ commerce.CheckoutService = (*CheckoutService)(nil)
