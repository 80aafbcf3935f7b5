package commerce

import "errors"

var (
	// ErrProductNotFound indicates the catalog has no such product
	ErrProductNotFound = errors.New("commerce: product not found")
	// ErrVariantNotFound indicates the product has no such variant
	ErrVariantNotFound = errors.New("commerce: variant not found")
	// ErrCustomerNotFound indicates no customer matches the lookup
	ErrCustomerNotFound = errors.New("commerce: customer not found")
	// ErrOrderNotFound indicates no order matches the lookup
	ErrOrderNotFound = errors.New("commerce: order not found")
	// ErrCategoryNotMapped indicates a category without marketplace mapping
	ErrCategoryNotMapped = errors.New("commerce: category not mapped")
	// ErrEmptyCart indicates a checkout over a cart with no lines
	ErrEmptyCart = errors.New("commerce: cart has no lines")
	// ErrUnknownCountry indicates an ISO code outside the shipping zone
	ErrUnknownCountry = errors.New("commerce: unknown country code")
)
