package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/goodluckbakery/shop/internal/kafka"
	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/payment"
	"github.com/goodluckbakery/shop/internal/redisx"
)

type CheckoutHandler struct {
	Orders   *orders.Repo
	Payments *payment.Adapter
	Producer *kafkax.Producer // order.created
	Redis    *redis.Client
	Service  string
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
}

type checkoutReq struct {
	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	CustomerPhone      string `json:"customer_phone"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingState      string `json:"shipping_state"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingMethod     string `json:"shipping_method"`
	Notes              string `json:"notes"`
}

func (req *checkoutReq) validate() string {
	switch {
	case req.CustomerName == "":
		return "customer_name is required"
	case req.CustomerEmail == "":
		return "customer_email is required"
	case req.CustomerPhone == "":
		return "customer_phone is required"
	case req.ShippingAddress == "":
		return "shipping_address is required"
	case req.ShippingCity == "":
		return "shipping_city is required"
	case req.ShippingState == "":
		return "shipping_state is required"
	case req.ShippingPostalCode == "":
		return "shipping_postal_code is required"
	}
	return ""
}

type checkoutResp struct {
	OrderNumber  string          `json:"order_number"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	ClientSecret string          `json:"client_secret"`
}

// checkout snapshots the cart into a pending order and obtains a payment
// intent from the processor. If the processor refuses, the just-created
// order is deleted again: a pending order with no payment handle is
// unrecoverable from the storefront.
func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.ShippingMethod == "" {
		req.ShippingMethod = "standard"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Orders.CreateFromCart(ctx, uid, orders.CheckoutInput{
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingState:      req.ShippingState,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingMethod:     req.ShippingMethod,
		Notes:              req.Notes,
	})
	if errors.Is(err, orders.ErrEmptyCart) {
		writeError(w, http.StatusBadRequest, "your cart is empty")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	intent, err := h.Payments.CreateIntent(ctx, o)
	if err != nil {
		log.Error().Err(err).Str("order_number", o.OrderNumber).Msg("payment intent failed, rolling back order")
		if delErr := h.Orders.Delete(ctx, o.ID); delErr != nil {
			log.Error().Err(delErr).Str("order_number", o.OrderNumber).Msg("order rollback failed")
		}
		writeError(w, http.StatusBadGateway, "payment could not be initiated, please try again")
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.UserID, o.OrderNumber)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"pending","payment_status":"pending"}`, redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: o.OrderNumber,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			ItemCount:   o.ItemCount(),
			Total:       o.Total,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusCreated, checkoutResp{
		OrderNumber:  o.OrderNumber,
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Tax:          o.Tax,
		Total:        o.Total,
		ClientSecret: intent.ClientSecret,
	})
}
