package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/goodluckbakery/shop/internal/kafka"
	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/payment"
	"github.com/goodluckbakery/shop/internal/redisx"
)

const maxWebhookBody = 64 << 10

// OrderConfirmer records a confirmed payment against an order, at most once.
type OrderConfirmer interface {
	MarkPaid(ctx context.Context, orderID, paymentRef string) (*orders.Order, error)
}

// WebhookHandler is the processor-facing endpoint: server-to-server, no
// session, no CSRF. Authentication is the payload signature.
type WebhookHandler struct {
	Orders   OrderConfirmer
	Payments *payment.Adapter
	Producer *kafkax.Producer // order.paid
	Redis    *redis.Client
	Service  string
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/stripe", h.handleStripe)
}

func (h *WebhookHandler) handleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ev, err := h.Payments.VerifyEvent(body, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, payment.ErrInvalidSignature) {
		log.Warn().Msg("webhook rejected: invalid signature")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if err != nil {
		log.Warn().Msg("webhook rejected: malformed payload")
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if ev.Type != payment.EventPaymentSucceeded {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if ev.OrderID == "" {
		log.Warn().Str("event_id", ev.ID).Msg("payment event without order metadata")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Fast-path dedup on the processor's event id. Only a hint: the key is
	// written after successful processing, and the database CAS below stays
	// authoritative either way.
	dkey := fmt.Sprintf(redisx.KeyWebhookDedup, ev.ID)
	if n, err := h.Redis.Exists(ctx, dkey).Result(); err == nil && n > 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	o, err := h.Orders.MarkPaid(ctx, ev.OrderID, ev.IntentID)
	if errors.Is(err, orders.ErrAlreadyPaid) {
		// Processor retry after a delivery we already handled. Ack so the
		// retries stop.
		_ = h.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}
	if errors.Is(err, orders.ErrNotFound) {
		// Signed event for an order we no longer have (e.g. rolled back
		// after an intent failure). Ack to stop retries, keep a trace.
		log.Warn().Str("order_id", ev.OrderID).Msg("payment event for unknown order")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("order_id", ev.OrderID).Msg("mark paid failed")
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	_ = h.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.UserID, o.OrderNumber)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"confirmed","payment_status":"paid"}`, redisx.TTLStatusCache).Err()

	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: o.OrderNumber,
		Payload: kafkax.MustMarshal(orders.OrderPaidPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			PaymentRef:  ev.IntentID,
			Total:       o.Total,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPaid)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
