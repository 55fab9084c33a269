package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	CategoryType string // cakes | pastries | breads | cookies | custom_cakes
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID               string
	CategoryID       string
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	SalePrice        decimal.NullDecimal
	Stock            int
	IsActive         bool
	IsFeatured       bool
	Weight           string
	Ingredients      string
	Allergens        string
	Views            int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Product) InStock() bool { return p.Stock > 0 }

type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Title     string
	Comment   string
	IsActive  bool
	CreatedAt time.Time
}
