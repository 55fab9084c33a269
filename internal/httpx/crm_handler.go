package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goodluckbakery/shop/internal/crm"
)

type CRMHandler struct {
	Repo *crm.Repo
}

func (h *CRMHandler) Register(r *chi.Mux) {
	r.Post("/newsletter/subscribe", h.subscribe)
	r.Post("/contact", h.contact)
}

type subscribeReq struct {
	Email string `json:"email"`
}

func (h *CRMHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	created, err := h.Repo.Subscribe(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "subscription failed")
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "already subscribed"})
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *CRMHandler) contact(w http.ResponseWriter, r *http.Request) {
	var req contactReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || !strings.Contains(req.Email, "@") || req.Subject == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "name, email, subject and message are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	msg := &crm.ContactMessage{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: r.RemoteAddr,
	}
	if err := h.Repo.CreateContactMessage(ctx, msg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": msg.ID})
}
