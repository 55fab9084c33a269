package orders

const (
	TopicOrderCreated = "order.created"
	TopicOrderPaid    = "order.paid"
)

// Partition key = order id, so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
