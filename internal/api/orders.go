package api

import (
	"context"
	"net/http"
	"net/url"
)

// orderUpdateRequest carries optional order mutations; omitted fields are
// left unchanged by the backend.
type orderUpdateRequest struct {
	Status  OrderStatus `json:"status,omitempty"`
	Comment string      `json:"comment,omitempty"`
}

// Orders lists client orders across all of the photographer's galleries.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.getJSON(ctx, "/api/v1/orders", &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Order fetches a single order.
func (c *Client) Order(ctx context.Context, orderID string) (*Order, error) {
	var out Order
	if err := c.getJSON(ctx, "/api/v1/orders/"+url.PathEscape(orderID), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateOrderStatus transitions an order between pending and completed.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error) {
	var out Order
	path := "/api/v1/orders/" + url.PathEscape(orderID)

	if err := c.doJSON(ctx, http.MethodPut, path, orderUpdateRequest{Status: status}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, orderID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(orderID), nil, nil, nil)
}
