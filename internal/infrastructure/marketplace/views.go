package marketplace

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Flexible scalars
// ---------------------------------------------------------------------------

// FlexString decodes a JSON string or number into a string. The marketplace
// is not consistent about id types, so every id field uses this.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

// FlexInt decodes a JSON number or numeric string into an int64
type FlexInt struct {
	// Value is the decoded number
	Value int64
	// Set reports whether the field was present and parseable
	Set bool
}

// UnmarshalJSON implements json.Unmarshaler
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = str
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Tolerate decimal notation for integer cent amounts
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		value = int64(f)
	}
	i.Value = value
	i.Set = true
	return nil
}

// ---------------------------------------------------------------------------
// Inbox events
// ---------------------------------------------------------------------------

// InboxEvent is one entry of the marketplace inbox
type InboxEvent struct {
	// ID is the event id used for acknowledgement
	ID FlexString `json:"id"`
	// Type names the event kind (orderCreated, orderStatusChanged, ...)
	Type string `json:"type"`
	// Payload is the event-specific body
	Payload EventPayload `json:"payload"`
}

// EventPayload is the event body; order events carry the order id in it
type EventPayload struct {
	// ID is the marketplace order id the event refers to
	ID FlexString `json:"id"`
}

// Event type groups. The marketplace renamed these over time, so each
// handler accepts all spellings it has been seen to use.
var (
	orderCreatedTypes = map[string]bool{
		"orderCreated":  true,
		"ORDER_CREATED": true,
		"newOrder":      true,
	}
	statusChangedTypes = map[string]bool{
		"orderStatusChanged":       true,
		"orderSellerStatusChanged": true,
	}
)

// IsOrderCreated reports whether this event announces a new order
func (e *InboxEvent) IsOrderCreated() bool {
	return orderCreatedTypes[e.Type]
}

// IsStatusChanged reports whether this event announces a status change
func (e *InboxEvent) IsStatusChanged() bool {
	return statusChangedTypes[e.Type]
}

// LaterEventID picks the newer of two event ids for acknowledgement.
// Numeric ids compare numerically; as soon as either side is non-numeric the
// later event in batch order wins.
func LaterEventID(current, candidate string) string {
	if current == "" {
		return candidate
	}
	a, errA := strconv.ParseInt(current, 10, 64)
	b, errB := strconv.ParseInt(candidate, 10, 64)
	if errA == nil && errB == nil && a > b {
		return current
	}
	return candidate
}

// ---------------------------------------------------------------------------
// Order document
// ---------------------------------------------------------------------------

// OrderView wraps a marketplace order document. The raw document varies
// between API versions, so every accessor implements a fixed fallback chain
// instead of exposing the fields directly.
type OrderView struct {
	ID         FlexString   `json:"id"`
	OrderID    FlexString   `json:"orderId"`
	Status     string       `json:"status"`
	Buyer      *buyerDoc    `json:"buyer"`
	User       *userDoc     `json:"user"`
	Shipping   *AddressView `json:"shippingAddress"`
	Delivery   *AddressView `json:"deliveryAddress"`
	Billing    *AddressView `json:"billingAddress"`
	Invoice    *AddressView `json:"invoiceAddress"`
	Items      []ItemView   `json:"items"`
	Summary    *summaryDoc  `json:"summary"`
	TotalPrice FlexInt      `json:"totalPrice"`
}

type buyerDoc struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userDoc struct {
	Email           string       `json:"email"`
	DeliveryAddress *AddressView `json:"deliveryAddress"`
	InvoiceAddress  *AddressView `json:"invoiceAddress"`
}

type summaryDoc struct {
	Total      FlexInt `json:"total"`
	TotalToPay FlexInt `json:"totalToPay"`
}

// ExternalID returns the marketplace order id (id, else orderId)
func (v *OrderView) ExternalID() string {
	if v.ID != "" {
		return string(v.ID)
	}
	return string(v.OrderID)
}

// Email returns the buyer email: buyer.email, else user.email. The second
// return is false when neither is present.
func (v *OrderView) Email() (string, bool) {
	if v.Buyer != nil && v.Buyer.Email != "" {
		return v.Buyer.Email, true
	}
	if v.User != nil && v.User.Email != "" {
		return v.User.Email, true
	}
	return "", false
}

// BuyerFirstName returns buyer.firstName, else the delivery address first
// name, else "ERLI"
func (v *OrderView) BuyerFirstName() string {
	if v.Buyer != nil && v.Buyer.FirstName != "" {
		return v.Buyer.FirstName
	}
	if addr := v.deliveryFromUser(); addr != nil && addr.FirstName != "" {
		return addr.FirstName
	}
	return "ERLI"
}

// BuyerLastName returns buyer.lastName, else the delivery address last name,
// else "Customer"
func (v *OrderView) BuyerLastName() string {
	if v.Buyer != nil && v.Buyer.LastName != "" {
		return v.Buyer.LastName
	}
	if addr := v.deliveryFromUser(); addr != nil && addr.LastName != "" {
		return addr.LastName
	}
	return "Customer"
}

func (v *OrderView) deliveryFromUser() *AddressView {
	if v.User != nil {
		return v.User.DeliveryAddress
	}
	return nil
}

// ShippingAddress returns the delivery address: shippingAddress, else
// deliveryAddress, else user.deliveryAddress. May be nil.
func (v *OrderView) ShippingAddress() *AddressView {
	if v.Shipping != nil {
		return v.Shipping
	}
	if v.Delivery != nil {
		return v.Delivery
	}
	return v.deliveryFromUser()
}

// BillingAddress returns the invoice address: billingAddress, else
// invoiceAddress, else user.invoiceAddress, else the shipping address.
func (v *OrderView) BillingAddress() *AddressView {
	if v.Billing != nil {
		return v.Billing
	}
	if v.Invoice != nil {
		return v.Invoice
	}
	if v.User != nil && v.User.InvoiceAddress != nil {
		return v.User.InvoiceAddress
	}
	return v.ShippingAddress()
}

// TotalCents returns the order grand total in minor units:
// summary.total, else summary.totalToPay, else totalPrice.
func (v *OrderView) TotalCents() (int64, bool) {
	if v.Summary != nil {
		if v.Summary.Total.Set {
			return v.Summary.Total.Value, true
		}
		if v.Summary.TotalToPay.Set {
			return v.Summary.TotalToPay.Value, true
		}
	}
	if v.TotalPrice.Set {
		return v.TotalPrice.Value, true
	}
	return 0, false
}

// ItemsTotalCents sums the item totals in minor units. Items without any
// price information contribute nothing.
func (v *OrderView) ItemsTotalCents() int64 {
	var sum int64
	for i := range v.Items {
		sum += v.Items[i].TotalCents()
	}
	return sum
}

// ---------------------------------------------------------------------------
// Address document
// ---------------------------------------------------------------------------

// AddressView wraps a marketplace address block
type AddressView struct {
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	StreetName string     `json:"street"`
	AddressAlt string     `json:"address"`
	ZipCode    string     `json:"zipCode"`
	ZipAlt     string     `json:"zip"`
	City       string     `json:"city"`
	Phone      string     `json:"phone"`
	Country    string     `json:"countryCode"`
	CountryAlt string     `json:"country"`
	CompanyTax FlexString `json:"taxId"`
}

// Street returns street, else address
func (a *AddressView) Street() string {
	if a.StreetName != "" {
		return a.StreetName
	}
	return a.AddressAlt
}

// Zip returns zipCode, else zip
func (a *AddressView) Zip() string {
	if a.ZipCode != "" {
		return a.ZipCode
	}
	return a.ZipAlt
}

// CountryCode returns countryCode, else country, else "PL"
func (a *AddressView) CountryCode() string {
	if a.Country != "" {
		return strings.ToUpper(a.Country)
	}
	if a.CountryAlt != "" {
		return strings.ToUpper(a.CountryAlt)
	}
	return "PL"
}

// ---------------------------------------------------------------------------
// Item document
// ---------------------------------------------------------------------------

// ItemView wraps one order line from the marketplace
type ItemView struct {
	ExternalProductID FlexString `json:"externalProductId"`
	ExternalIDAlt     FlexString `json:"externalId"`
	QuantityRaw       FlexInt    `json:"quantity"`
	TotalPriceRaw     FlexInt    `json:"totalPrice"`
	PriceRaw          FlexInt    `json:"price"`
}

// ExternalRef returns externalProductId, else externalId, trimmed
func (i *ItemView) ExternalRef() string {
	if i.ExternalProductID != "" {
		return strings.TrimSpace(string(i.ExternalProductID))
	}
	return strings.TrimSpace(string(i.ExternalIDAlt))
}

// Quantity returns the ordered quantity, defaulting to one
func (i *ItemView) Quantity() int {
	if !i.QuantityRaw.Set || i.QuantityRaw.Value <= 0 {
		return 1
	}
	return int(i.QuantityRaw.Value)
}

// TotalCents returns the line total in minor units: totalPrice, else
// price times quantity, else zero.
func (i *ItemView) TotalCents() int64 {
	if i.TotalPriceRaw.Set {
		return i.TotalPriceRaw.Value
	}
	if i.PriceRaw.Set {
		return i.PriceRaw.Value * int64(i.Quantity())
	}
	return 0
}

// UnitPriceCents returns the per-unit price in minor units, derived from the
// line total when no unit price is present.
func (i *ItemView) UnitPriceCents() int64 {
	if i.PriceRaw.Set {
		return i.PriceRaw.Value
	}
	if i.TotalPriceRaw.Set {
		return i.TotalPriceRaw.Value / int64(i.Quantity())
	}
	return 0
}
