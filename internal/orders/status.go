package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusBaking     Status = "baking"
	StatusReady      Status = "ready"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusBaking:     true,
	StatusReady:      true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
	StatusRefunded:   true,
}

// Valid reports whether s is a known order status. Transitions themselves
// are not constrained: staff may move an order between any two statuses,
// including straight to cancelled or refunded.
func (s Status) Valid() bool { return validStatuses[s] }
