package sync

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/marketplace"
)

// ---------------------------------------------------------------------------
// Catalog fakes
// ---------------------------------------------------------------------------

type fakeCatalog struct {
	products map[int64]*commerce.Product
}

func newFakeCatalog(products ...*commerce.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[int64]*commerce.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) FindProduct(_ context.Context, productID int64) (*commerce.Product, error) {
	if p, ok := c.products[productID]; ok {
		return p, nil
	}
	return nil, commerce.ErrProductNotFound
}

func (c *fakeCatalog) ListSellableIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeCategoryMap struct {
	mappings map[int64]*commerce.CategoryMapping
}

func (c *fakeCategoryMap) FindByCategoryID(_ context.Context, categoryID int64) (*commerce.CategoryMapping, error) {
	if m, ok := c.mappings[categoryID]; ok {
		return m, nil
	}
	return nil, commerce.ErrCategoryNotMapped
}

// ---------------------------------------------------------------------------
// Link and cursor fakes
// ---------------------------------------------------------------------------

type fakeLinkRepo struct {
	nextID int64
	rows   []*syncdomain.ProductLink
}

func newFakeLinkRepo() *fakeLinkRepo { return &fakeLinkRepo{} }

func (r *fakeLinkRepo) FindByID(_ context.Context, id int64) (*syncdomain.ProductLink, error) {
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, syncdomain.ErrLinkNotFound
}

func (r *fakeLinkRepo) FindByExternalID(_ context.Context, externalID string) (*syncdomain.ProductLink, error) {
	for _, row := range r.rows {
		if row.ExternalID == externalID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, syncdomain.ErrLinkNotFound
}

func (r *fakeLinkRepo) FindByCatalogRow(_ context.Context, productID, variantID int64) (*syncdomain.ProductLink, error) {
	for _, row := range r.rows {
		if row.ProductID == productID && row.VariantID == variantID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, syncdomain.ErrLinkNotFound
}

func (r *fakeLinkRepo) ListAfter(_ context.Context, cursor int64, limit int) ([]syncdomain.ProductLink, error) {
	return r.list(cursor, limit, false), nil
}

func (r *fakeLinkRepo) ListPendingAfter(_ context.Context, cursor int64, limit int) ([]syncdomain.ProductLink, error) {
	return r.list(cursor, limit, true), nil
}

func (r *fakeLinkRepo) list(cursor int64, limit int, pendingOnly bool) []syncdomain.ProductLink {
	sorted := make([]*syncdomain.ProductLink, len(r.rows))
	copy(sorted, r.rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []syncdomain.ProductLink
	for _, row := range sorted {
		if row.ID <= cursor {
			continue
		}
		if pendingOnly && row.Status == syncdomain.SyncStatusOK {
			continue
		}
		out = append(out, *row)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (r *fakeLinkRepo) CreateIfAbsent(_ context.Context, link *syncdomain.ProductLink) (bool, error) {
	for _, row := range r.rows {
		if row.ProductID == link.ProductID && row.VariantID == link.VariantID {
			return false, nil
		}
	}
	r.nextID++
	link.ID = r.nextID
	copied := *link
	r.rows = append(r.rows, &copied)
	return true, nil
}

func (r *fakeLinkRepo) Save(_ context.Context, link *syncdomain.ProductLink) error {
	for i, row := range r.rows {
		if row.ID == link.ID {
			copied := *link
			r.rows[i] = &copied
			return nil
		}
	}
	return syncdomain.ErrLinkNotFound
}

func (r *fakeLinkRepo) DeleteCatalogRow(_ context.Context, productID, variantID int64) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.ProductID == productID && row.VariantID == variantID {
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return nil
}

func (r *fakeLinkRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.rows)), nil
}

type fakeCursors struct {
	values map[string]string
}

func newFakeCursors() *fakeCursors { return &fakeCursors{values: map[string]string{}} }

func (c *fakeCursors) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return "", syncdomain.ErrCursorNotFound
}

func (c *fakeCursors) GetInt(_ context.Context, key string) (int64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *fakeCursors) Set(_ context.Context, key, value string) error {
	c.values[key] = value
	return nil
}

func (c *fakeCursors) SetInt(_ context.Context, key string, value int64) error {
	c.values[key] = strconv.FormatInt(value, 10)
	return nil
}

// ---------------------------------------------------------------------------
// Marketplace API fakes
// ---------------------------------------------------------------------------

type fakeProductAPI struct {
	// updateStatus and createStatus override the 200 default per external id
	updateStatus map[string]int
	createStatus map[string]int
	transportErr error
	updates      []string
	creates      []string
	payloads     map[string]map[string]any
}

func newFakeProductAPI() *fakeProductAPI {
	return &fakeProductAPI{
		updateStatus: map[string]int{},
		createStatus: map[string]int{},
		payloads:     map[string]map[string]any{},
	}
}

func (a *fakeProductAPI) Update(_ context.Context, externalID string, payload any) (*marketplace.Result, error) {
	if a.transportErr != nil {
		return nil, a.transportErr
	}
	a.updates = append(a.updates, externalID)
	a.payloads[externalID] = payload.(map[string]any)
	status := a.updateStatus[externalID]
	if status == 0 {
		status = 200
	}
	return &marketplace.Result{Status: status}, nil
}

func (a *fakeProductAPI) Create(_ context.Context, externalID string, payload any) (*marketplace.Result, error) {
	if a.transportErr != nil {
		return nil, a.transportErr
	}
	a.creates = append(a.creates, externalID)
	a.payloads[externalID] = payload.(map[string]any)
	status := a.createStatus[externalID]
	if status == 0 {
		status = 200
	}
	return &marketplace.Result{Status: status}, nil
}

type fakeOrderAPI struct {
	// inbox is a queue of responses; once drained, an empty page is served
	inbox []*marketplace.Result
	// ackResults is a queue of ack responses; once drained, 200 is served
	ackResults  []*marketplace.Result
	orders      map[string]*marketplace.Result
	fetchCalls  int
	orderCalls  []string
	acks        []string
}

func newFakeOrderAPI() *fakeOrderAPI {
	return &fakeOrderAPI{orders: map[string]*marketplace.Result{}}
}

func (a *fakeOrderAPI) queuePage(events ...marketplace.InboxEvent) {
	if events == nil {
		events = []marketplace.InboxEvent{}
	}
	body, _ := json.Marshal(events)
	a.inbox = append(a.inbox, &marketplace.Result{Status: 200, Raw: body})
}

func (a *fakeOrderAPI) setOrder(orderID, body string) {
	a.orders[orderID] = &marketplace.Result{Status: 200, Raw: []byte(body)}
}

func (a *fakeOrderAPI) GetInbox(_ context.Context, _ int) (*marketplace.Result, error) {
	a.fetchCalls++
	if len(a.inbox) == 0 {
		return &marketplace.Result{Status: 200, Raw: []byte("[]")}, nil
	}
	result := a.inbox[0]
	a.inbox = a.inbox[1:]
	return result, nil
}

func (a *fakeOrderAPI) AckInbox(_ context.Context, lastMessageID string) (*marketplace.Result, error) {
	a.acks = append(a.acks, lastMessageID)
	if len(a.ackResults) == 0 {
		return &marketplace.Result{Status: 200, Raw: []byte("{}")}, nil
	}
	result := a.ackResults[0]
	a.ackResults = a.ackResults[1:]
	return result, nil
}

func (a *fakeOrderAPI) GetOrder(_ context.Context, orderID string) (*marketplace.Result, error) {
	a.orderCalls = append(a.orderCalls, orderID)
	if result, ok := a.orders[orderID]; ok {
		return result, nil
	}
	return &marketplace.Result{Status: 404, Raw: []byte(`{"error":"not found"}`)}, nil
}

// ---------------------------------------------------------------------------
// Commerce fakes
// ---------------------------------------------------------------------------

type fakeOrderLinks struct {
	nextID int64
	links  map[string]*syncdomain.OrderLink
}

func newFakeOrderLinks() *fakeOrderLinks {
	return &fakeOrderLinks{links: map[string]*syncdomain.OrderLink{}}
}

func (r *fakeOrderLinks) FindByExternalOrderID(_ context.Context, externalOrderID string) (*syncdomain.OrderLink, error) {
	if link, ok := r.links[externalOrderID]; ok {
		return link, nil
	}
	return nil, syncdomain.ErrLinkNotFound
}

func (r *fakeOrderLinks) ExistsByExternalOrderID(_ context.Context, externalOrderID string) (bool, error) {
	_, ok := r.links[externalOrderID]
	return ok, nil
}

func (r *fakeOrderLinks) Create(_ context.Context, link *syncdomain.OrderLink) error {
	if _, ok := r.links[link.ExternalOrderID]; ok {
		return syncdomain.ErrLinkExists
	}
	r.nextID++
	link.ID = r.nextID
	r.links[link.ExternalOrderID] = link
	return nil
}

type fakeCustomers struct {
	nextID    int64
	customers map[string]*commerce.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{customers: map[string]*commerce.Customer{}}
}

func (r *fakeCustomers) FindByEmail(_ context.Context, email string) (*commerce.Customer, error) {
	if c, ok := r.customers[email]; ok {
		return c, nil
	}
	return nil, commerce.ErrCustomerNotFound
}

func (r *fakeCustomers) Create(_ context.Context, customer *commerce.Customer) error {
	r.nextID++
	customer.ID = r.nextID
	r.customers[customer.Email] = customer
	return nil
}

type fakeAddresses struct {
	nextID  int64
	created []*commerce.Address
}

func (r *fakeAddresses) Create(_ context.Context, address *commerce.Address) error {
	r.nextID++
	address.ID = r.nextID
	r.created = append(r.created, address)
	return nil
}

type fakeCheckout struct {
	nextID int64
	inputs []commerce.CheckoutInput
	err    error
}

func (s *fakeCheckout) PlaceOrder(_ context.Context, input commerce.CheckoutInput) (*commerce.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	s.inputs = append(s.inputs, input)
	return &commerce.Order{
		ID:            s.nextID,
		State:         input.State,
		PaymentMethod: input.PaymentMethod,
		TransactionID: input.TransactionID,
		TotalProducts: input.TotalProducts,
		TotalShipping: input.TotalShipping,
		TotalPaid:     input.TotalPaid,
		TotalPaidReal: input.AmountReceived,
	}, nil
}
