package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/redisx"
)

// OrderReader is the slice of the order repository the read endpoints use.
type OrderReader interface {
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	GetByNumber(ctx context.Context, userID, orderNumber string) (*orders.Order, error)
}

type OrdersHandler struct {
	Repo  OrderReader
	Redis *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{number}", h.getOrder)
	r.Get("/orders/{number}/status", h.getOrderStatus)
}

type orderItemView struct {
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderView struct {
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	ShippingMethod string          `json:"shipping_method"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Tax            decimal.Decimal `json:"tax"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	Items          []orderItemView `json:"items,omitempty"`
}

func toOrderView(o *orders.Order) orderView {
	v := orderView{
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		ShippingMethod: o.ShippingMethod,
		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		Tax:            o.Tax,
		Discount:       o.Discount,
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
		ConfirmedAt:    o.ConfirmedAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return v
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.ListByUser(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetByNumber(ctx, uid, chi.URLParam(r, "number"))
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// getOrderStatus serves the storefront's payment-progress polling. Cache
// first, database as fallback.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	number := chi.URLParam(r, "number")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, uid, number)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Repo.GetByNumber(ctx, uid, number)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	body := map[string]any{"status": o.Status, "payment_status": o.PaymentStatus}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, json.RawMessage(b))
}
