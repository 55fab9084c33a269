package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testPricing() Pricing {
	return Pricing{
		TaxRate: decimal.NewFromFloat(0.05),
		ShippingCosts: map[string]decimal.Decimal{
			"standard": decimal.NewFromInt(49),
			"express":  decimal.NewFromInt(99),
			"pickup":   decimal.Zero,
		},
		DefaultShippingCost: decimal.NewFromInt(49),
	}
}

func TestShippingCostTable(t *testing.T) {
	p := testPricing()
	assert.True(t, p.ShippingCost("standard").Equal(decimal.NewFromInt(49)))
	assert.True(t, p.ShippingCost("express").Equal(decimal.NewFromInt(99)))
	assert.True(t, p.ShippingCost("pickup").IsZero())
	// unrecognised methods fall back to the default rather than failing
	assert.True(t, p.ShippingCost("drone").Equal(decimal.NewFromInt(49)))
	assert.True(t, p.ShippingCost("").Equal(decimal.NewFromInt(49)))
}

func TestComputeTotals(t *testing.T) {
	p := testPricing()

	// two of A at 100 plus one of B at 50, express shipping
	got := p.Compute(decimal.NewFromInt(250), "express")
	assert.True(t, got.Subtotal.Equal(decimal.NewFromInt(250)))
	assert.True(t, got.ShippingCost.Equal(decimal.NewFromInt(99)))
	assert.True(t, got.Tax.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("361.50")))
}

func TestComputeTotalsRounding(t *testing.T) {
	p := testPricing()

	// 5% of 33.33 = 1.6665 -> 1.67
	got := p.Compute(decimal.RequireFromString("33.33"), "pickup")
	assert.True(t, got.Tax.Equal(decimal.RequireFromString("1.67")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("35.00")))
}

func TestComputeTotalsInvariant(t *testing.T) {
	p := testPricing()
	for _, subtotal := range []string{"0.01", "1", "99.99", "250", "1234.56"} {
		for _, method := range []string{"standard", "express", "pickup", "unknown"} {
			got := p.Compute(decimal.RequireFromString(subtotal), method)
			want := got.Subtotal.Add(got.ShippingCost).Add(got.Tax).Round(2)
			assert.True(t, got.Total.Equal(want), "subtotal=%s method=%s", subtotal, method)
		}
	}
}
