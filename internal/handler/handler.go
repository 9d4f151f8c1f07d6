// Package handler exposes the storefront API over HTTP and hosts the
// authorization gateway guarding it.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/eshop-api/internal/domain/order"
	"github.com/xenking/eshop-api/internal/domain/product"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	orders     *order.Service
	stats      *order.Stats
	products   product.Repository
	categories product.CategoryRepository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	stats *order.Stats,
	products product.Repository,
	categories product.CategoryRepository,
) *Handler {
	return &Handler{
		orders:     orders,
		stats:      stats,
		products:   products,
		categories: categories,
	}
}

// Routes returns a mux with every API route registered under prefix.
func (h *Handler) Routes(prefix string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+prefix+"/orders", h.listOrders)
	mux.HandleFunc("POST "+prefix+"/orders", h.createOrder)
	mux.HandleFunc("GET "+prefix+"/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT "+prefix+"/orders/{id}", h.updateOrderStatus)
	mux.HandleFunc("DELETE "+prefix+"/orders/{id}", h.deleteOrder)
	mux.HandleFunc("GET "+prefix+"/orders/get/totalsales", h.totalSales)
	mux.HandleFunc("GET "+prefix+"/orders/get/count", h.orderCount)
	mux.HandleFunc("GET "+prefix+"/orders/get/userorders/{userId}", h.userOrders)

	mux.HandleFunc("GET "+prefix+"/products", h.listProducts)
	mux.HandleFunc("GET "+prefix+"/products/{id}", h.getProduct)
	mux.HandleFunc("GET "+prefix+"/products/get/count", h.productCount)
	mux.HandleFunc("GET "+prefix+"/products/get/featured/{count}", h.featuredProducts)

	mux.HandleFunc("GET "+prefix+"/categories", h.listCategories)
	mux.HandleFunc("GET "+prefix+"/categories/{id}", h.getCategory)

	return mux
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors to client-facing statuses. Anything
// unrecognized is logged and reported as an opaque 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, "order items required")
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, product.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "category not found")
	default:
		var (
			qtyErr      *order.InvalidQuantityError
			statusErr   *order.UnknownStatusError
			prodErr     *order.ProductNotFoundError
			lineItemErr *order.LineItemNotFoundError
			userErr     *order.InvalidUserError
		)
		switch {
		case errors.As(err, &qtyErr):
			respondError(w, http.StatusUnprocessableEntity, qtyErr.Error())
		case errors.As(err, &statusErr):
			respondError(w, http.StatusBadRequest, statusErr.Error())
		case errors.As(err, &prodErr):
			respondError(w, http.StatusUnprocessableEntity, prodErr.Error())
		case errors.As(err, &lineItemErr):
			respondError(w, http.StatusUnprocessableEntity, lineItemErr.Error())
		case errors.As(err, &userErr):
			respondError(w, http.StatusUnprocessableEntity, userErr.Error())
		default:
			zctx.From(r.Context()).Error("Request failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
	}
}
