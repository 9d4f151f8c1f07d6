package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/xenking/eshop-api/internal/domain/order"
)

// createOrderRequest mirrors the order creation body.
type createOrderRequest struct {
	OrderItems []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"orderItems"`
	ShippingAddress1 string `json:"shippingAddress1"`
	ShippingAddress2 string `json:"shippingAddress2"`
	City             string `json:"city"`
	Zip              string `json:"zip"`
	Country          string `json:"country"`
	Phone            string `json:"phone"`
	Status           string `json:"status"`
	User             string `json:"user"`
}

// orderResponse is the persisted order as returned from creation and status
// updates, with line items as references.
type orderResponse struct {
	ID               string    `json:"id"`
	OrderItems       []string  `json:"orderItems"`
	ShippingAddress1 string    `json:"shippingAddress1"`
	ShippingAddress2 string    `json:"shippingAddress2,omitempty"`
	City             string    `json:"city"`
	Zip              string    `json:"zip"`
	Country          string    `json:"country"`
	Phone            string    `json:"phone"`
	Status           string    `json:"status"`
	TotalPrice       float64   `json:"totalPrice"`
	User             string    `json:"user,omitempty"`
	DateOrdered      time.Time `json:"dateOrdered"`
}

// expandedOrderResponse is the read view with line items, products, and the
// user projection resolved.
type expandedOrderResponse struct {
	ID               string                 `json:"id"`
	OrderItems       []expandedItemResponse `json:"orderItems"`
	ShippingAddress1 string                 `json:"shippingAddress1"`
	ShippingAddress2 string                 `json:"shippingAddress2,omitempty"`
	City             string                 `json:"city"`
	Zip              string                 `json:"zip"`
	Country          string                 `json:"country"`
	Phone            string                 `json:"phone"`
	Status           string                 `json:"status"`
	TotalPrice       float64                `json:"totalPrice"`
	User             *userSummaryResponse   `json:"user,omitempty"`
	DateOrdered      time.Time              `json:"dateOrdered"`
}

type expandedItemResponse struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Product  *productResponse `json:"product,omitempty"`
}

type userSummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		OrderItems:       o.ItemIDs,
		ShippingAddress1: o.ShippingAddress1,
		ShippingAddress2: o.ShippingAddress2,
		City:             o.City,
		Zip:              o.Zip,
		Country:          o.Country,
		Phone:            o.Phone,
		Status:           string(o.Status),
		TotalPrice:       o.TotalPrice.InexactFloat64(),
		User:             o.UserID,
		DateOrdered:      o.DateOrdered,
	}
}

func (h *Handler) toExpandedResponses(r *http.Request, views []order.ExpandedOrder) []expandedOrderResponse {
	// Resolve category objects for all products in one pass, mirroring what
	// the read expansion does for products themselves.
	categoryIDs := make([]string, 0, len(views))
	for _, v := range views {
		for _, item := range v.Items {
			if item.Product != nil && item.Product.CategoryID != "" {
				categoryIDs = append(categoryIDs, item.Product.CategoryID)
			}
		}
	}
	categories := h.categoriesByID(r, categoryIDs)

	out := make([]expandedOrderResponse, len(views))
	for i, v := range views {
		items := make([]expandedItemResponse, len(v.Items))
		for j, item := range v.Items {
			resp := expandedItemResponse{
				ID:       item.ID,
				Quantity: item.Quantity,
			}
			if item.Product != nil {
				p := toProductResponse(*item.Product, categories[item.Product.CategoryID])
				resp.Product = &p
			}
			items[j] = resp
		}

		out[i] = expandedOrderResponse{
			ID:               v.ID,
			OrderItems:       items,
			ShippingAddress1: v.ShippingAddress1,
			ShippingAddress2: v.ShippingAddress2,
			City:             v.City,
			Zip:              v.Zip,
			Country:          v.Country,
			Phone:            v.Phone,
			Status:           string(v.Status),
			TotalPrice:       v.TotalPrice.InexactFloat64(),
			DateOrdered:      v.DateOrdered,
		}
		if v.User != nil {
			out[i].User = &userSummaryResponse{ID: v.User.ID, Name: v.User.Name}
		}
	}
	return out
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.orders.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toExpandedResponses(r, views))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toExpandedResponses(r, []order.ExpandedOrder{*view})[0])
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entries := make([]order.CartEntry, len(req.OrderItems))
	for i, item := range req.OrderItems {
		entries[i] = order.CartEntry{
			ProductID: item.Product,
			Quantity:  item.Quantity,
		}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		Items:            entries,
		ShippingAddress1: req.ShippingAddress1,
		ShippingAddress2: req.ShippingAddress2,
		City:             req.City,
		Zip:              req.Zip,
		Country:          req.Country,
		Phone:            req.Phone,
		Status:           req.Status,
		UserID:           req.User,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *Handler) totalSales(w http.ResponseWriter, r *http.Request) {
	total, err := h.stats.TotalSales(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"totalSales": total.InexactFloat64()})
}

func (h *Handler) orderCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.stats.Count(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"orderCount": n})
}

func (h *Handler) userOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.stats.OrdersForUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toExpandedResponses(r, views))
}
