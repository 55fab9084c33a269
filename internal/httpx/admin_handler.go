package httpx

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goodluckbakery/shop/internal/orders"
)

// AdminHandler covers the back-office override: move an order to any status.
type AdminHandler struct {
	Repo  *orders.Repo
	Token string
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Post("/admin/orders/{number}/status", h.advanceStatus)
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.Token == "" {
		return false
	}
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) == 1
}

type advanceStatusReq struct {
	Status string `json:"status"`
}

func (h *AdminHandler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req advanceStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Repo.AdvanceStatus(ctx, chi.URLParam(r, "number"), orders.Status(req.Status))
	if errors.Is(err, orders.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
