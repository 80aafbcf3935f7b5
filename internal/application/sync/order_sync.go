package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/marketplace"
)

// OrderEndpoint is the slice of the marketplace API the order engine needs
type OrderEndpoint interface {
	GetInbox(ctx context.Context, limit int) (*marketplace.Result, error)
	AckInbox(ctx context.Context, lastMessageID string) (*marketplace.Result, error)
	GetOrder(ctx context.Context, orderID string) (*marketplace.Result, error)
}

// StateMapping names the local order states a marketplace status maps onto
type StateMapping struct {
	Pending   string
	Paid      string
	Cancelled string
	Default   string
}

// ForStatus maps a marketplace status string onto a local state name
func (m StateMapping) ForStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "purchased", "paid", "completed":
		return m.Paid
	case "pending", "new", "awaiting_payment":
		return m.Pending
	case "cancelled", "canceled":
		return m.Cancelled
	default:
		return m.Default
	}
}

// OrderEngineConfig holds the tunables of inbox processing
type OrderEngineConfig struct {
	// InboxLimit is the page size for inbox fetches, capped at 100
	InboxLimit int
	// MaxBatches bounds how many pages one run consumes
	MaxBatches int
	// ExternalIDPrefix is used when resolving item references
	ExternalIDPrefix string
	// DefaultCountry is the fallback for unresolvable address countries
	DefaultCountry string
	// CarrierID is the carrier assigned to imported orders
	CarrierID int64
	// PaymentMethod labels marketplace payments on local orders
	PaymentMethod string
	// States maps marketplace statuses to local state names
	States StateMapping
}

// InboxStats summarizes one inbox run
type InboxStats struct {
	// Batches counts inbox pages fetched with at least one event
	Batches int
	// Events counts every event seen
	Events int
	// Created counts local orders created
	Created int
	// Ignored counts events skipped on purpose (duplicates, unknown types)
	Ignored int
	// Exceptions counts events that failed to process
	Exceptions int
	// Acked counts successful acknowledgements
	Acked int
}

const (
	maxInboxLimit    = 100
	maxRetryAttempts = 5
)

// OrderEngine drains the marketplace inbox and materializes local orders.
// Dedup is purely link-based: an order link's existence means the order was
// imported, and a second orderCreated for the same id is skipped.
type OrderEngine struct {
	api          OrderEndpoint
	orderLinks   syncdomain.OrderLinkRepository
	productLinks syncdomain.ProductLinkRepository
	customers    commerce.CustomerRepository
	addresses    commerce.AddressRepository
	checkout     commerce.CheckoutService
	countries    commerce.CountryResolver
	cursors      syncdomain.CursorRepository
	config       OrderEngineConfig
	logger       *zap.Logger

	// test seam
	sleep func(time.Duration)
}

// NewOrderEngine creates an OrderEngine
func NewOrderEngine(
	api OrderEndpoint,
	orderLinks syncdomain.OrderLinkRepository,
	productLinks syncdomain.ProductLinkRepository,
	customers commerce.CustomerRepository,
	addresses commerce.AddressRepository,
	checkout commerce.CheckoutService,
	countries commerce.CountryResolver,
	cursors syncdomain.CursorRepository,
	config OrderEngineConfig,
	logger *zap.Logger,
) *OrderEngine {
	if config.InboxLimit <= 0 || config.InboxLimit > maxInboxLimit {
		config.InboxLimit = maxInboxLimit
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = 10
	}
	if config.ExternalIDPrefix == "" {
		config.ExternalIDPrefix = syncdomain.DefaultExternalIDPrefix
	}
	if config.DefaultCountry == "" {
		config.DefaultCountry = "PL"
	}
	if config.PaymentMethod == "" {
		config.PaymentMethod = "Erli Payment"
	}
	return &OrderEngine{
		api:          api,
		orderLinks:   orderLinks,
		productLinks: productLinks,
		customers:    customers,
		addresses:    addresses,
		checkout:     checkout,
		countries:    countries,
		cursors:      cursors,
		config:       config,
		logger:       logger,
		sleep:        time.Sleep,
	}
}

// ---------------------------------------------------------------------------
// Inbox loop
// ---------------------------------------------------------------------------

// ProcessInbox drains the inbox page by page. Each page is processed, the
// newest event id of the page is acknowledged, then the next page is
// fetched. The run stops when a page comes back short (backlog drained) or
// MaxBatches pages were consumed. A single bad event never aborts its page.
func (e *OrderEngine) ProcessInbox(ctx context.Context) (*InboxStats, error) {
	stats := &InboxStats{}

	for batch := 0; batch < e.config.MaxBatches; batch++ {
		result, err := e.withRetry(ctx, "fetch inbox", func() (*marketplace.Result, error) {
			return e.api.GetInbox(ctx, e.config.InboxLimit)
		})
		if err != nil {
			return stats, err
		}
		if !result.IsSuccess() {
			e.logger.Error("inbox fetch failed",
				zap.Int("status", result.Status))
			return stats, result.Err()
		}

		var events []marketplace.InboxEvent
		if err := result.Decode(&events); err != nil {
			e.logger.Error("inbox body malformed", zap.Error(err))
			return stats, err
		}
		if len(events) == 0 {
			break
		}
		stats.Batches++

		ackID := ""
		for i := range events {
			event := &events[i]
			stats.Events++
			if event.ID != "" {
				ackID = marketplace.LaterEventID(ackID, string(event.ID))
			}
			e.handleEvent(ctx, event, stats)
		}

		if ackID != "" {
			if err := e.acknowledge(ctx, ackID); err != nil {
				return stats, err
			}
			stats.Acked++
		}

		if len(events) < e.config.InboxLimit {
			break
		}
	}

	e.logger.Info("inbox run finished",
		zap.Int("batches", stats.Batches),
		zap.Int("events", stats.Events),
		zap.Int("created", stats.Created),
		zap.Int("ignored", stats.Ignored),
		zap.Int("exceptions", stats.Exceptions),
		zap.Int("acked", stats.Acked))
	return stats, nil
}

// acknowledge marks everything up to ackID as read
func (e *OrderEngine) acknowledge(ctx context.Context, ackID string) error {
	result, err := e.withRetry(ctx, "ack inbox", func() (*marketplace.Result, error) {
		return e.api.AckInbox(ctx, ackID)
	})
	if err != nil {
		return err
	}
	if !result.IsSuccess() {
		e.logger.Error("inbox ack failed",
			zap.String("last_message_id", ackID),
			zap.Int("status", result.Status))
		return result.Err()
	}
	if err := e.cursors.Set(ctx, syncdomain.CursorInboxAck, ackID); err != nil {
		e.logger.Warn("could not record last acked event id",
			zap.String("last_message_id", ackID), zap.Error(err))
	}
	return nil
}

// withRetry runs a marketplace call, retrying rate-limited responses with a
// bounded linear backoff. Exhausting the budget aborts the run.
func (e *OrderEngine) withRetry(ctx context.Context, op string, call func() (*marketplace.Result, error)) (*marketplace.Result, error) {
	for attempt := 1; ; attempt++ {
		result, err := call()
		if err != nil {
			return nil, err
		}
		if !result.IsRateLimited() {
			return result, nil
		}
		if attempt >= maxRetryAttempts {
			e.logger.Error("retry budget exhausted",
				zap.String("operation", op),
				zap.Int("attempts", attempt))
			return nil, fmt.Errorf("%s: %w", op, result.Err())
		}

		backoff := time.Duration(2*attempt) * time.Second
		if backoff > 8*time.Second {
			backoff = 8 * time.Second
		}
		e.logger.Warn("rate limited, backing off",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))
		e.sleep(backoff)
	}
}

// ---------------------------------------------------------------------------
// Event handling
// ---------------------------------------------------------------------------

// handleEvent routes one inbox event. All failures are absorbed here so the
// rest of the page still processes.
func (e *OrderEngine) handleEvent(ctx context.Context, event *marketplace.InboxEvent, stats *InboxStats) {
	switch {
	case event.IsOrderCreated():
		e.handleOrderEvent(ctx, event, stats, false)
	case event.IsStatusChanged():
		e.handleOrderEvent(ctx, event, stats, true)
	default:
		e.logger.Debug("ignoring inbox event",
			zap.String("type", event.Type),
			zap.String("event_id", string(event.ID)))
		stats.Ignored++
	}
}

// handleOrderEvent processes orderCreated and, as a recovery path, status
// events for orders that were never imported. A status event for an already
// linked order is deliberately ignored: there is no post-creation status
// reconciliation.
func (e *OrderEngine) handleOrderEvent(ctx context.Context, event *marketplace.InboxEvent, stats *InboxStats, fromStatusEvent bool) {
	externalOrderID := string(event.Payload.ID)
	if externalOrderID == "" {
		e.logger.Warn("event without payload id",
			zap.String("type", event.Type),
			zap.String("event_id", string(event.ID)))
		stats.Ignored++
		return
	}

	exists, err := e.orderLinks.ExistsByExternalOrderID(ctx, externalOrderID)
	if err != nil {
		e.logger.Error("order link lookup failed",
			zap.String("external_order_id", externalOrderID),
			zap.Error(err))
		stats.Exceptions++
		return
	}
	if exists {
		if fromStatusEvent {
			e.logger.Debug("status event for known order, skipping",
				zap.String("external_order_id", externalOrderID))
		} else {
			e.logger.Info("order already imported, skipping",
				zap.String("external_order_id", externalOrderID))
		}
		stats.Ignored++
		return
	}

	view, err := e.fetchOrder(ctx, externalOrderID)
	if err != nil {
		e.logger.Error("order fetch failed",
			zap.String("external_order_id", externalOrderID),
			zap.Error(err))
		stats.Exceptions++
		return
	}

	orderID, err := e.createOrder(ctx, externalOrderID, view)
	if err != nil {
		e.logger.Error("order creation failed",
			zap.String("external_order_id", externalOrderID),
			zap.Error(err))
		stats.Exceptions++
		return
	}

	if err := e.orderLinks.Create(ctx, syncdomain.NewOrderLink(externalOrderID, orderID, view.Status)); err != nil {
		// The order exists but is not linked: the next event for it will
		// import a duplicate. Loud log, no rollback.
		e.logger.Error("order created but link write failed",
			zap.String("external_order_id", externalOrderID),
			zap.Int64("order_id", orderID),
			zap.Error(err))
		stats.Exceptions++
		return
	}

	if fromStatusEvent {
		e.logger.Info("order recovered from status event",
			zap.String("external_order_id", externalOrderID),
			zap.Int64("order_id", orderID))
	} else {
		e.logger.Info("order imported",
			zap.String("external_order_id", externalOrderID),
			zap.Int64("order_id", orderID))
	}
	stats.Created++
}

// fetchOrder loads and decodes the full order document
func (e *OrderEngine) fetchOrder(ctx context.Context, externalOrderID string) (*marketplace.OrderView, error) {
	result, err := e.withRetry(ctx, "fetch order", func() (*marketplace.Result, error) {
		return e.api.GetOrder(ctx, externalOrderID)
	})
	if err != nil {
		return nil, err
	}
	if !result.IsSuccess() {
		return nil, result.Err()
	}

	var view marketplace.OrderView
	if err := result.Decode(&view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ---------------------------------------------------------------------------
// Order materialization
// ---------------------------------------------------------------------------

// createOrder turns a marketplace order document into a local order:
// customer, addresses, cart, checkout, then the marketplace totals written
// over whatever the cart computed.
func (e *OrderEngine) createOrder(ctx context.Context, externalOrderID string, view *marketplace.OrderView) (int64, error) {
	customer, err := e.resolveCustomer(ctx, externalOrderID, view)
	if err != nil {
		return 0, fmt.Errorf("resolve customer: %w", err)
	}

	delivery, err := e.createAddress(ctx, customer, view.ShippingAddress(), "ERLI Delivery")
	if err != nil {
		return 0, fmt.Errorf("create delivery address: %w", err)
	}
	invoice, err := e.createAddress(ctx, customer, view.BillingAddress(), "ERLI Invoice")
	if err != nil {
		return 0, fmt.Errorf("create invoice address: %w", err)
	}

	cart := commerce.NewCart(customer.ID, delivery.ID, invoice.ID, e.config.CarrierID)
	e.fillCart(ctx, cart, view)
	if cart.IsEmpty() {
		return 0, syncdomain.NewMappingError(externalOrderID, "no resolvable order items")
	}

	marketplaceTotal, totalKnown := view.TotalCents()
	itemsTotal, itemsKnown := itemsTotalCents(view)

	var shipping decimal.Decimal
	if totalKnown && itemsKnown {
		shippingCents := marketplaceTotal - itemsTotal
		if shippingCents < 0 {
			shippingCents = 0
		}
		shipping = centsToDecimal(shippingCents)
	}

	cartTotal := cart.Total()
	finalPaid := cartTotal
	if totalKnown {
		finalPaid = centsToDecimal(marketplaceTotal)
		if finalPaid.Sub(cartTotal).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
			e.logger.Warn("marketplace total differs from cart total",
				zap.String("external_order_id", externalOrderID),
				zap.String("marketplace_total", finalPaid.String()),
				zap.String("cart_total", cartTotal.String()))
		}
	}

	totalProducts := cartTotal
	if itemsKnown {
		totalProducts = centsToDecimal(itemsTotal)
	}

	order, err := e.checkout.PlaceOrder(ctx, commerce.CheckoutInput{
		Cart:           cart,
		State:          e.config.States.ForStatus(view.Status),
		PaymentMethod:  e.config.PaymentMethod,
		TransactionID:  view.ExternalID(),
		TotalProducts:  totalProducts,
		TotalShipping:  shipping,
		TotalPaid:      finalPaid,
		AmountReceived: finalPaid,
	})
	if err != nil {
		return 0, fmt.Errorf("checkout: %w", err)
	}
	return order.ID, nil
}

// resolveCustomer finds the buyer by email or creates a new customer.
// Orders without any email get a synthetic address derived from the external
// order id, so the import never blocks on missing buyer data and two
// anonymous buyers never share a customer.
func (e *OrderEngine) resolveCustomer(ctx context.Context, externalOrderID string, view *marketplace.OrderView) (*commerce.Customer, error) {
	email, ok := view.Email()
	if !ok {
		email = fmt.Sprintf("erli-%s@example.com", strings.ToLower(externalOrderID))
	}

	customer, err := e.customers.FindByEmail(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, commerce.ErrCustomerNotFound) {
		return nil, err
	}

	fresh := commerce.NewCustomer(email, view.BuyerFirstName(), view.BuyerLastName())
	if err := e.customers.Create(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// createAddress persists one address block, tolerating a missing one
func (e *OrderEngine) createAddress(ctx context.Context, customer *commerce.Customer, view *marketplace.AddressView, alias string) (*commerce.Address, error) {
	address := &commerce.Address{
		CustomerID:  customer.ID,
		Alias:       alias,
		FirstName:   customer.FirstName,
		LastName:    customer.LastName,
		CountryCode: e.config.DefaultCountry,
	}

	if view != nil {
		if view.FirstName != "" {
			address.FirstName = view.FirstName
		}
		if view.LastName != "" {
			address.LastName = view.LastName
		}
		address.Street = view.Street()
		address.ZipCode = view.Zip()
		address.City = view.City
		address.Phone = view.Phone
		if code, ok := e.countries.Resolve(view.CountryCode()); ok {
			address.CountryCode = code
		} else {
			e.logger.Warn("unknown country, using default",
				zap.String("raw", view.CountryCode()),
				zap.String("default", e.config.DefaultCountry))
		}
	}

	if err := e.addresses.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// fillCart adds one line per resolvable item. Items whose reference cannot
// be tied to a local product are dropped with a warning, the order is still
// imported with the rest.
func (e *OrderEngine) fillCart(ctx context.Context, cart *commerce.Cart, view *marketplace.OrderView) {
	for i := range view.Items {
		item := &view.Items[i]
		ref := item.ExternalRef()
		if ref == "" {
			continue
		}

		productID, variantID, ok := e.resolveItemRef(ctx, ref)
		if !ok {
			e.logger.Warn("dropping unresolvable order item",
				zap.String("reference", ref))
			continue
		}

		cart.AddLine(productID, variantID, item.Quantity(), centsToDecimal(item.UnitPriceCents()))
	}
}

// resolveItemRef ties an item reference to a local catalog row: the link
// table first, then the identifier patterns for rows that predate it.
func (e *OrderEngine) resolveItemRef(ctx context.Context, ref string) (productID, variantID int64, ok bool) {
	link, err := e.productLinks.FindByExternalID(ctx, ref)
	if err == nil {
		return link.ProductID, link.VariantID, true
	}
	if !errors.Is(err, syncdomain.ErrLinkNotFound) {
		e.logger.Error("product link lookup failed",
			zap.String("reference", ref), zap.Error(err))
	}

	productID, variantID, perr := syncdomain.ParseExternalID(e.config.ExternalIDPrefix, ref)
	if perr != nil {
		return 0, 0, false
	}
	return productID, variantID, true
}

// itemsTotalCents sums item totals, reporting whether any item carried price
// information at all
func itemsTotalCents(view *marketplace.OrderView) (int64, bool) {
	var sum int64
	found := false
	for i := range view.Items {
		item := &view.Items[i]
		if item.TotalPriceRaw.Set || item.PriceRaw.Set {
			found = true
			sum += item.TotalCents()
		}
	}
	return sum, found
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
