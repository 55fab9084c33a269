package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goodluckbakery/shop/internal/catalog"
)

// Quantity bounds per cart line.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

var (
	ErrNotFound          = errors.New("cart: item not found")
	ErrInsufficientStock = errors.New("cart: requested quantity exceeds available stock")
	ErrInvalidQuantity   = errors.New("cart: quantity out of range")
	ErrMaxStock          = errors.New("cart: maximum stock reached")
	ErrMinQuantity       = errors.New("cart: minimum quantity is 1")
	ErrUnknownAction     = errors.New("cart: unknown action")
)

type Action string

const (
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionRemove   Action = "remove"
)

// Cart holds one user's pending selection. Exactly one exists per user,
// created lazily on first access.
type Cart struct {
	ID        string
	UserID    string
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Item struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time

	Product *catalog.Product
}

// Subtotal prices the line at the product's current price. Never persisted:
// a price change is reflected on the next read, up until checkout snapshots
// the line into an order.
func (i *Item) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return catalog.CurrentPrice(i.Product).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) TotalItems() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is computed fresh on every call; callers needing a stable
// figure must snapshot once.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// ValidateQuantity checks a prospective line quantity against stock and the
// per-line cap. Validation happens before any state is touched, so a failed
// add leaves the existing line untouched.
func ValidateQuantity(quantity, stock int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if quantity > stock {
		return ErrInsufficientStock
	}
	return nil
}
