package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func product(price string, salePrice string) *Product {
	p := &Product{Price: decimal.RequireFromString(price)}
	if salePrice != "" {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(salePrice))
	}
	return p
}

func TestCurrentPrice(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		salePrice string
		want      string
		onSale    bool
	}{
		{"no sale price", "100", "", "100", false},
		{"sale price below list", "100", "80", "80", true},
		{"sale price equal to list", "100", "100", "100", false},
		{"sale price above list", "100", "120", "100", false},
		{"fractional sale", "12.50", "9.99", "9.99", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := product(tt.price, tt.salePrice)
			assert.True(t, CurrentPrice(p).Equal(decimal.RequireFromString(tt.want)))
			assert.Equal(t, tt.onSale, IsOnSale(p))
		})
	}
}

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, 20, DiscountPercent(product("100", "80")))
	assert.Equal(t, 0, DiscountPercent(product("100", "")))
	assert.Equal(t, 0, DiscountPercent(product("100", "120")))
	// truncates, does not round up
	assert.Equal(t, 33, DiscountPercent(product("30", "20")))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))

	reviews := []Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.InDelta(t, 4.3, AverageRating(reviews), 0.001)

	assert.Equal(t, 5.0, AverageRating([]Review{{Rating: 5}}))
}
