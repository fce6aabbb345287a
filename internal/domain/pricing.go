package domain

import "github.com/shopspring/decimal"

// PricingPolicy holds the checkout pricing rules applied on top of the subtotal.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFlatRate      decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricingPolicy returns free shipping above 50, a flat 10 otherwise and 10% tax.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFlatRate:      decimal.NewFromInt(10),
		TaxRate:               decimal.RequireFromString("0.1"),
	}
}

// Summary is the priced breakdown of a cart.
type Summary struct {
	ItemCount             int             `json:"item_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Summarize prices the given lines.
func (p PricingPolicy) Summarize(ls Lines) Summary {
	subtotal := ls.TotalPrice()

	shipping := p.ShippingFlatRate
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	remaining := p.FreeShippingThreshold.Sub(subtotal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	tax := subtotal.Mul(p.TaxRate).Round(2)

	return Summary{
		ItemCount:             ls.TotalItemCount(),
		Subtotal:              subtotal,
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 subtotal.Add(shipping).Add(tax),
		FreeShippingRemaining: remaining,
	}
}
