package commerce

import (
	"context"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Customer Entity
// ---------------------------------------------------------------------------

// Customer is a shop customer. Inbound marketplace orders reuse an existing
// customer when the email matches and create a guest-style one otherwise.
type Customer struct {
	// ID is the local customer id
	ID int64
	// Email is the unique lookup key
	Email string
	// FirstName and LastName come from the marketplace buyer block
	FirstName string
	LastName  string
	// CreatedAt is when the customer row was created
	CreatedAt time.Time
}

// NewCustomer creates a customer with normalized fields
func NewCustomer(email, firstName, lastName string) *Customer {
	return &Customer{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		CreatedAt: time.Now(),
	}
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	// FindByEmail finds a customer by email, or ErrCustomerNotFound
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// Create inserts a new customer and fills in its ID
	Create(ctx context.Context, customer *Customer) error
}

// ---------------------------------------------------------------------------
// Address Entity
// ---------------------------------------------------------------------------

// Address is a delivery or invoice address attached to a customer
type Address struct {
	// ID is the local address id
	ID int64
	// CustomerID is the owning customer
	CustomerID int64
	// Alias labels the address for the customer ("Delivery", "Invoice")
	Alias string
	// FirstName and LastName name the recipient
	FirstName string
	LastName  string
	// Street is the street line including house number
	Street string
	// ZipCode is the postal code
	ZipCode string
	// City is the city name
	City string
	// Phone is the contact phone, may be empty
	Phone string
	// CountryCode is the ISO 3166-1 alpha-2 country code
	CountryCode string
}

// AddressRepository defines persistence for addresses
type AddressRepository interface {
	// Create inserts a new address and fills in its ID
	Create(ctx context.Context, address *Address) error
}

// CountryResolver validates shipping countries. Resolve returns the
// normalized ISO code for a raw input, or false when the shop does not
// ship there.
type CountryResolver interface {
	Resolve(code string) (string, bool)
}
