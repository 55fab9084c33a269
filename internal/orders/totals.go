package orders

import "github.com/shopspring/decimal"

// Pricing is the explicit cost policy handed to the order repo at
// construction time: shipping rates per method and the tax rate.
type Pricing struct {
	TaxRate       decimal.Decimal
	ShippingCosts map[string]decimal.Decimal
	// Unrecognised shipping methods fall back to this instead of being
	// rejected. Deliberate policy, inherited from the storefront.
	DefaultShippingCost decimal.Decimal
}

type Totals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

func (p Pricing) ShippingCost(method string) decimal.Decimal {
	if cost, ok := p.ShippingCosts[method]; ok {
		return cost
	}
	return p.DefaultShippingCost
}

// Compute derives order totals from a subtotal and shipping method.
// Tax and total are rounded to 2 decimal places.
func (p Pricing) Compute(subtotal decimal.Decimal, shippingMethod string) Totals {
	shipping := p.ShippingCost(shippingMethod)
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax).Round(2),
	}
}
