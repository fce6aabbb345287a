package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/upstream"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
)

// CreateRequest is the body of POST /orders.
type CreateRequest struct {
	Items           []domain.OrderItem     `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalAmount     decimal.Decimal        `json:"totalAmount"`
}

// Client places and reads orders of the calling user.
type Client struct {
	doer    upstream.Doer
	baseURL string
}

// New creates an orders client rooted at baseURL.
func New(doer upstream.Doer, baseURL string) *Client {
	return &Client{doer: doer, baseURL: baseURL}
}

// Create places an order.
func (c *Client) Create(ctx context.Context, req CreateRequest) (domain.Order, error) {
	var order domain.Order
	if err := c.doer.JSON(ctx, http.MethodPost, c.baseURL+"/orders", upstream.Header(ctx), req, &order); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// List returns the orders of the authenticated user.
func (c *Client) List(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := c.doer.JSON(ctx, http.MethodGet, c.baseURL+"/orders", upstream.Header(ctx), nil, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order of the authenticated user.
func (c *Client) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	endpoint := c.baseURL + "/orders/" + url.PathEscape(id)
	if err := c.doer.JSON(ctx, http.MethodGet, endpoint, upstream.Header(ctx), nil, &order); err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}
