package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize_BelowFreeShipping(t *testing.T) {
	ls := Lines{
		{Product: product("A", 10, 10), Quantity: 2},
		{Product: product("B", 5, 10), Quantity: 3},
	}

	s := DefaultPricingPolicy().Summarize(ls)

	assert.Equal(t, 5, s.ItemCount)
	assert.Equal(t, "35", s.Subtotal.String())
	assert.Equal(t, "10", s.Shipping.String())
	assert.Equal(t, "3.5", s.Tax.String())
	assert.Equal(t, "48.5", s.Total.String())
	assert.Equal(t, "15", s.FreeShippingRemaining.String())
}

func TestSummarize_FreeShipping(t *testing.T) {
	ls := Lines{{Product: product("A", 60, 10), Quantity: 1}}

	s := DefaultPricingPolicy().Summarize(ls)

	assert.True(t, s.Shipping.IsZero())
	assert.Equal(t, "6", s.Tax.String())
	assert.Equal(t, "66", s.Total.String())
	assert.True(t, s.FreeShippingRemaining.IsZero())
}

func TestSummarize_ExactlyAtThresholdStillPaysShipping(t *testing.T) {
	ls := Lines{{Product: product("A", 50, 10), Quantity: 1}}

	s := DefaultPricingPolicy().Summarize(ls)

	assert.Equal(t, "10", s.Shipping.String())
	assert.True(t, s.FreeShippingRemaining.IsZero())
}

func TestSummarize_CustomPolicy(t *testing.T) {
	policy := PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingFlatRate:      decimal.RequireFromString("4.99"),
		TaxRate:               decimal.Zero,
	}
	ls := Lines{{Product: product("A", 20, 10), Quantity: 1}}

	s := policy.Summarize(ls)

	assert.Equal(t, "24.99", s.Total.String())
	assert.Equal(t, "80", s.FreeShippingRemaining.String())
}
