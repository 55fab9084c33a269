package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/goodluckbakery/shop/internal/kafka"
	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/redisx"
)

// Service follows the order event stream for the bakery's back office:
// it keeps the storefront's status cache warm and leaves an audit trail of
// orders entering the fulfillment queue.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderEvent is installed as the consumer handler for both order
// topics. Requeued deliveries are dropped via the Redis event dedup key.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyEventDedup, "fulfillment", env.EventID)
	if won, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup); err == nil && !won {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.UserID, p.OrderNumber, orders.StatusPending, orders.PaymentPending)
		log.Info().
			Str("order_number", p.OrderNumber).
			Int("item_count", p.ItemCount).
			Str("total", p.Total.String()).
			Msg("order created, awaiting payment")

	case orders.EventOrderPaid:
		p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.UserID, p.OrderNumber, orders.StatusConfirmed, orders.PaymentPaid)
		log.Info().
			Str("order_number", p.OrderNumber).
			Str("payment_ref", p.PaymentRef).
			Msg("payment confirmed, order queued for fulfillment")

	default:
		// other producers may share these topics later
	}
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, userID, orderNumber string, st orders.Status, ps orders.PaymentStatus) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, userID, orderNumber)
	body, _ := json.Marshal(map[string]any{"status": st, "payment_status": ps})
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}
