package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("orders: not found")
	ErrEmptyCart     = errors.New("orders: cart has no items")
	ErrAlreadyPaid   = errors.New("orders: payment already recorded")
	ErrInvalidStatus = errors.New("orders: unknown status")
)

// Order is an immutable snapshot of a checkout. Customer and shipping fields
// are copied from the submitted form, not joined from the user row, so the
// record survives later profile edits. Only the status fields and their
// timestamps change after creation.
type Order struct {
	ID            string
	OrderNumber   string
	UserID        string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentID     string
	PaymentMethod string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ShippingAddress    string
	ShippingCity       string
	ShippingState      string
	ShippingPostalCode string
	ShippingMethod     string
	ShippingCost       decimal.Decimal

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal

	Notes string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time

	Items []OrderItem
}

// OrderItem snapshots a cart line at order creation. ProductID goes nil
// when the product is later deleted; the textual and price snapshot stays.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   *string
	ProductName string
	ProductSlug string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
}

func (o *Order) ItemCount() int {
	var n int
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
