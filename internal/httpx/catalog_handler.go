package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/goodluckbakery/shop/internal/catalog"
)

type CatalogHandler struct {
	Repo *catalog.Repo
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/categories", h.listCategories)
	r.Get("/products", h.listProducts)
	r.Get("/products/featured", h.listFeatured)
	r.Get("/products/{slug}", h.getProduct)
	r.Post("/products/{slug}/reviews", h.addReview)
}

type productView struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	ShortDescription string           `json:"short_description"`
	Price            decimal.Decimal  `json:"price"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	CurrentPrice     decimal.Decimal  `json:"current_price"`
	IsOnSale         bool             `json:"is_on_sale"`
	DiscountPercent  int              `json:"discount_percent"`
	Stock            int              `json:"stock"`
	InStock          bool             `json:"in_stock"`
	IsFeatured       bool             `json:"is_featured"`
	Weight           string           `json:"weight,omitempty"`
}

func toProductView(p *catalog.Product) productView {
	v := productView{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		CurrentPrice:     catalog.CurrentPrice(p),
		IsOnSale:         catalog.IsOnSale(p),
		DiscountPercent:  catalog.DiscountPercent(p),
		Stock:            p.Stock,
		InStock:          p.InStock(),
		IsFeatured:       p.IsFeatured,
		Weight:           p.Weight,
	}
	if p.SalePrice.Valid {
		v.SalePrice = &p.SalePrice.Decimal
	}
	return v
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cats, err := h.Repo.ListCategories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	f := catalog.Filter{
		CategorySlug: r.URL.Query().Get("category"),
		Query:        r.URL.Query().Get("q"),
		Sort:         r.URL.Query().Get("sort"),
	}
	products, err := h.Repo.ListProducts(ctx, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	out := make([]productView, 0, len(products))
	for i := range products {
		out = append(out, toProductView(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) listFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Repo.ListFeatured(ctx, 8)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	out := make([]productView, 0, len(products))
	for i := range products {
		out = append(out, toProductView(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	h.Repo.RecordView(ctx, p.ID)

	reviews, err := h.Repo.ListReviews(ctx, p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reviews")
		return
	}
	related, err := h.Repo.RelatedProducts(ctx, p.CategoryID, p.ID, 4)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load related products")
		return
	}

	relatedViews := make([]productView, 0, len(related))
	for i := range related {
		relatedViews = append(relatedViews, toProductView(&related[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product":        toProductView(p),
		"description":    p.Description,
		"ingredients":    p.Ingredients,
		"allergens":      p.Allergens,
		"reviews":        reviews,
		"review_count":   len(reviews),
		"average_rating": catalog.AverageRating(reviews),
		"related":        relatedViews,
	})
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *CatalogHandler) addReview(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.Title == "" || req.Comment == "" {
		writeError(w, http.StatusBadRequest, "title and comment are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	rev := &catalog.Review{
		ProductID: p.ID,
		UserID:    uid,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}
	err = h.Repo.CreateReview(ctx, rev)
	if errors.Is(err, catalog.ErrAlreadyReviewed) {
		writeError(w, http.StatusConflict, "you have already reviewed this product")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save review")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": rev.ID})
}
