package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/upstream"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
)

// Filters narrows a product listing. Zero values are not sent.
type Filters struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice != nil && f.MinPrice.IsPositive() {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil && f.MaxPrice.IsPositive() {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	return q
}

// Client reads product snapshots from the storefront catalog.
type Client struct {
	doer    upstream.Doer
	baseURL string
}

// New creates a catalog client rooted at baseURL (e.g. http://host/api).
func New(doer upstream.Doer, baseURL string) *Client {
	return &Client{doer: doer, baseURL: baseURL}
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	endpoint := c.baseURL + "/products/" + url.PathEscape(id)
	if err := c.doer.JSON(ctx, http.MethodGet, endpoint, upstream.Header(ctx), nil, &p); err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns the products matching f.
func (c *Client) ListProducts(ctx context.Context, f Filters) ([]domain.Product, error) {
	endpoint := c.baseURL + "/products"
	if q := f.query(); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	products := []domain.Product{}
	if err := c.doer.JSON(ctx, http.MethodGet, endpoint, upstream.Header(ctx), nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Categories returns the catalog category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	if err := c.doer.JSON(ctx, http.MethodGet, c.baseURL+"/products/categories", upstream.Header(ctx), nil, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
