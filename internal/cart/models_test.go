package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodluckbakery/shop/internal/catalog"
)

func productWithPrice(price string, sale string, stock int) *catalog.Product {
	p := &catalog.Product{Price: decimal.RequireFromString(price), Stock: stock}
	if sale != "" {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(sale))
	}
	return p
}

func TestCartTotals(t *testing.T) {
	c := &Cart{Items: []Item{
		{Quantity: 2, Product: productWithPrice("100", "", 10)},
		{Quantity: 1, Product: productWithPrice("50", "", 10)},
		{Quantity: 3, Product: productWithPrice("20", "15", 10)}, // on sale
	}}

	assert.Equal(t, 6, c.TotalItems())
	// 2*100 + 1*50 + 3*15 = 295
	assert.True(t, c.TotalPrice().Equal(decimal.NewFromInt(295)))
	assert.False(t, c.IsEmpty())
}

func TestCartTotalsEmpty(t *testing.T) {
	c := &Cart{}
	assert.Equal(t, 0, c.TotalItems())
	assert.True(t, c.TotalPrice().IsZero())
	assert.True(t, c.IsEmpty())
}

func TestItemSubtotalUsesCurrentPrice(t *testing.T) {
	it := Item{Quantity: 4, Product: productWithPrice("12.50", "9.99", 10)}
	assert.True(t, it.Subtotal().Equal(decimal.RequireFromString("39.96")))

	// subtotal follows a price change on the next read
	it.Product.SalePrice = decimal.NullDecimal{}
	assert.True(t, it.Subtotal().Equal(decimal.RequireFromString("50")))
}

func TestValidateQuantity(t *testing.T) {
	require.NoError(t, ValidateQuantity(1, 5))
	require.NoError(t, ValidateQuantity(5, 5))

	assert.ErrorIs(t, ValidateQuantity(6, 5), ErrInsufficientStock)
	assert.ErrorIs(t, ValidateQuantity(0, 5), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(-1, 5), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(100, 500), ErrInvalidQuantity)
}
