package catalog

import "github.com/shopspring/decimal"

// CurrentPrice is the price a product is sold at right now: the sale price
// when one is set and strictly below the list price, otherwise the list
// price. Every price shown or charged goes through this one function so cart
// and order amounts cannot drift apart.
func CurrentPrice(p *Product) decimal.Decimal {
	if IsOnSale(p) {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func IsOnSale(p *Product) bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.Price)
}

// DiscountPercent reports the sale discount as a whole percentage, 0 when
// not on sale.
func DiscountPercent(p *Product) int {
	if !IsOnSale(p) {
		return 0
	}
	diff := p.Price.Sub(p.SalePrice.Decimal)
	return int(diff.Div(p.Price).Mul(decimal.NewFromInt(100)).IntPart())
}

// AverageRating rounds to one decimal place; 0 when there are no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews))))
	f, _ := avg.Round(1).Float64()
	return f
}
