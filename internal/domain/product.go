package domain

import "github.com/shopspring/decimal"

// Product is a catalog product snapshot as delivered by the catalog backend.
// The cart copies it into a line and never re-fetches it.
type Product struct {
	ID            string           `json:"_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Image         string           `json:"image"`
	Category      string           `json:"category,omitempty"`
	Brand         string           `json:"brand,omitempty"`
	SKU           string           `json:"sku,omitempty"`
	Stock         int              `json:"stock"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}
