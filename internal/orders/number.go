package orders

import (
	"fmt"
	"math/rand"
	"time"
)

const orderNumberPrefix = "GLB"

// NewOrderNumber builds an order number like GLB-20240131154502-4821.
// Timestamp plus a 4-digit random suffix keeps collisions unlikely but not
// impossible; the insert path retries on a unique-constraint hit.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", orderNumberPrefix, now.Format("20060102150405"), 1000+rand.Intn(9000))
}
