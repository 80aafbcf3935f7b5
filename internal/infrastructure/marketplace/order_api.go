package marketplace

import (
	"context"
	"net/url"
	"strconv"
)

// OrderAPI wraps the inbox and order endpoints of the shop API
type OrderAPI struct {
	client *Client
}

// NewOrderAPI creates an OrderAPI on top of an existing client
func NewOrderAPI(client *Client) *OrderAPI {
	return &OrderAPI{client: client}
}

// GetInbox fetches up to limit pending events.
// GET /inbox?limit=N
func (a *OrderAPI) GetInbox(ctx context.Context, limit int) (*Result, error) {
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}
	return a.client.Get(ctx, "/inbox", query)
}

// AckInbox acknowledges every event up to and including lastMessageID.
// POST /inbox
func (a *OrderAPI) AckInbox(ctx context.Context, lastMessageID string) (*Result, error) {
	return a.client.Post(ctx, "/inbox", map[string]string{
		"lastMessageId": lastMessageID,
	})
}

// GetOrder fetches the full order document for an inbox event.
// GET /orders/{orderId}
func (a *OrderAPI) GetOrder(ctx context.Context, orderID string) (*Result, error) {
	return a.client.Get(ctx, "/orders/"+url.PathEscape(orderID), nil)
}
