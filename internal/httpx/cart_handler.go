package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/goodluckbakery/shop/internal/cart"
	"github.com/goodluckbakery/shop/internal/catalog"
)

type CartHandler struct {
	Carts   *cart.Repo
	Catalog *catalog.Repo
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Post("/cart/items/{id}", h.updateItem)
	r.Delete("/cart/items/{id}", h.removeItem)
}

type cartItemView struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSlug  string          `json:"product_slug"`
	Quantity     int             `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items      []cartItemView  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func toCartView(c *cart.Cart) cartView {
	v := cartView{
		Items:      make([]cartItemView, 0, len(c.Items)),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
	for i := range c.Items {
		it := &c.Items[i]
		v.Items = append(v.Items, cartItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.Product.Name,
			ProductSlug:  it.Product.Slug,
			Quantity:     it.Quantity,
			CurrentPrice: catalog.CurrentPrice(it.Product),
			Subtotal:     it.Subtotal(),
		})
	}
	return v
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.GetOrCreate(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, toCartView(c))
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	c, err := h.Carts.GetOrCreate(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	switch err := h.Carts.AddItem(ctx, c.ID, p, req.Quantity); {
	case errors.Is(err, cart.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "requested quantity exceeds available stock")
		return
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "quantity out of range")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	c, err = h.Carts.GetOrCreate(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, toCartView(c))
}

type updateItemReq struct {
	Action string `json:"action"` // increase | decrease | remove
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var warning string
	switch err := h.Carts.UpdateItem(ctx, uid, chi.URLParam(r, "id"), cart.Action(req.Action)); {
	case errors.Is(err, cart.ErrMaxStock):
		warning = "maximum stock reached"
	case errors.Is(err, cart.ErrMinQuantity):
		warning = "minimum quantity is 1"
	case errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	case errors.Is(err, cart.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	c, err := h.Carts.GetOrCreate(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	resp := map[string]any{"cart": toCartView(c)}
	if warning != "" {
		resp["warning"] = warning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Carts.RemoveItem(ctx, uid, chi.URLParam(r, "id"))
	if errors.Is(err, cart.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
