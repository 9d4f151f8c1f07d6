package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/eshop-api/internal/domain/product"
)

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type productResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	RichDescription string            `json:"richDescription,omitempty"`
	Image           string            `json:"image,omitempty"`
	Brand           string            `json:"brand,omitempty"`
	Price           float64           `json:"price"`
	Category        *categoryResponse `json:"category,omitempty"`
	CountInStock    int               `json:"countInStock"`
	Rating          int               `json:"rating,omitempty"`
	NumReviews      int               `json:"numReviews,omitempty"`
	IsFeatured      bool              `json:"isFeatured"`
	DateCreated     time.Time         `json:"dateCreated"`
}

func toCategoryResponse(c product.Category) categoryResponse {
	return categoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Icon:  c.Icon,
		Color: c.Color,
	}
}

// toProductResponse renders a product with its category resolved when
// available; an unresolved category falls back to a bare ID reference.
func toProductResponse(p product.Product, cat *categoryResponse) productResponse {
	resp := productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		RichDescription: p.RichDescription,
		Image:           p.Image,
		Brand:           p.Brand,
		Price:           p.Price.InexactFloat64(),
		Category:        cat,
		CountInStock:    p.CountInStock,
		Rating:          p.Rating,
		NumReviews:      p.NumReviews,
		IsFeatured:      p.IsFeatured,
		DateCreated:     p.DateCreated,
	}
	if resp.Category == nil && p.CategoryID != "" {
		resp.Category = &categoryResponse{ID: p.CategoryID}
	}
	return resp
}

// categoriesByID returns a lookup of category responses. Lookup failures fall
// back to bare ID references rather than failing the read.
func (h *Handler) categoriesByID(r *http.Request, ids []string) map[string]*categoryResponse {
	out := make(map[string]*categoryResponse)
	if len(ids) == 0 {
		return out
	}

	list, err := h.categories.ListCategories(r.Context())
	if err != nil {
		zctx.From(r.Context()).Warn("Category expansion skipped", zap.Error(err))
		return out
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, c := range list {
		if wanted[c.ID] {
			resp := toCategoryResponse(c)
			out[c.ID] = &resp
		}
	}
	return out
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var categoryIDs []string
	if raw := r.URL.Query().Get("category"); raw != "" {
		categoryIDs = strings.Split(raw, ",")
	}

	list, err := h.products.List(r.Context(), categoryIDs)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ids := make([]string, 0, len(list))
	for _, p := range list {
		if p.CategoryID != "" {
			ids = append(ids, p.CategoryID)
		}
	}
	categories := h.categoriesByID(r, ids)

	out := make([]productResponse, len(list))
	for i, p := range list {
		out[i] = toProductResponse(p, categories[p.CategoryID])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	var cat *categoryResponse
	if p.CategoryID != "" {
		if c, err := h.categories.GetCategoryByID(r.Context(), p.CategoryID); err == nil {
			resp := toCategoryResponse(*c)
			cat = &resp
		}
	}
	respondJSON(w, http.StatusOK, toProductResponse(*p, cat))
}

func (h *Handler) productCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.products.Count(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"productCount": n})
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("count"))
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid count")
		return
	}

	list, err := h.products.ListFeatured(r.Context(), limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(list))
	for i, p := range list {
		out[i] = toProductResponse(p, nil)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(list))
	for i, c := range list {
		out[i] = toCategoryResponse(c)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetCategoryByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoryResponse(*c))
}
