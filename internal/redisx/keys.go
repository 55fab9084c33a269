package redisx

import "time"

const (
	// Cache order status for storefront polling, keyed by owner so a
	// cache hit never crosses users: order_status:{user_id}:{order_number}
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup processed payment-provider events: dedup:webhook:{event_id}
	KeyWebhookDedup = "dedup:webhook:%s"

	// Dedup consumed order events per worker: dedup:{consumer}:{event_id}
	KeyEventDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
