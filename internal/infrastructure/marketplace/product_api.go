package marketplace

import (
	"context"
	"net/url"
)

// ProductAPI wraps the product endpoints of the shop API
type ProductAPI struct {
	client *Client
}

// NewProductAPI creates a ProductAPI on top of an existing client
func NewProductAPI(client *Client) *ProductAPI {
	return &ProductAPI{client: client}
}

// Create publishes a new product under the given external id.
// POST /products/{externalId}
func (a *ProductAPI) Create(ctx context.Context, externalID string, payload any) (*Result, error) {
	return a.client.Post(ctx, "/products/"+url.PathEscape(externalID), payload)
}

// Update modifies an already published product.
// PATCH /products/{externalId}
func (a *ProductAPI) Update(ctx context.Context, externalID string, payload any) (*Result, error) {
	return a.client.Patch(ctx, "/products/"+url.PathEscape(externalID), payload)
}

// Get fetches the marketplace copy of a product.
// GET /products/{externalId}
func (a *ProductAPI) Get(ctx context.Context, externalID string) (*Result, error) {
	return a.client.Get(ctx, "/products/"+url.PathEscape(externalID), nil)
}
