package remotecart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/upstream"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
)

// Item is a cart line in the server cart format.
type Item struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type payload struct {
	Items []Item `json:"items"`
}

// ItemsFromLines converts cart lines to the server cart format.
func ItemsFromLines(ls domain.Lines) []Item {
	items := make([]Item, len(ls))
	for i, l := range ls {
		items[i] = Item{ProductID: l.Product.ID, Quantity: l.Quantity, Price: l.Product.Price}
	}
	return items
}

// Client reads and writes the server-side cart of the authenticated user.
type Client struct {
	doer    upstream.Doer
	baseURL string
}

// New creates a remote cart client rooted at baseURL.
func New(doer upstream.Doer, baseURL string) *Client {
	return &Client{doer: doer, baseURL: baseURL}
}

// Load returns the items of the server cart. A cart without items yields an
// empty slice.
func (c *Client) Load(ctx context.Context) ([]Item, error) {
	var body payload
	if err := c.doer.JSON(ctx, http.MethodGet, c.baseURL+"/cart", upstream.Header(ctx), nil, &body); err != nil {
		return nil, fmt.Errorf("load server cart: %w", err)
	}
	if body.Items == nil {
		return []Item{}, nil
	}
	return body.Items, nil
}

// Save replaces the server cart with items.
func (c *Client) Save(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	if err := c.doer.JSON(ctx, http.MethodPost, c.baseURL+"/cart", upstream.Header(ctx), payload{Items: items}, nil); err != nil {
		return fmt.Errorf("save server cart: %w", err)
	}
	return nil
}

// Clear empties the server cart.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.doer.JSON(ctx, http.MethodDelete, c.baseURL+"/cart", upstream.Header(ctx), nil, nil); err != nil {
		return fmt.Errorf("clear server cart: %w", err)
	}
	return nil
}
