// Package order implements the order fulfillment workflow: materializing cart
// entries into owned line items, aggregating their prices into an order total,
// and managing the order lifecycle including cascading deletion.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("order items required")
)

// InvalidQuantityError indicates a cart entry has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a referenced product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidUserError indicates a user reference that can never resolve to a
// stored user document.
type InvalidUserError struct {
	UserID string
}

func (e *InvalidUserError) Error() string {
	return fmt.Sprintf("invalid user reference %q", e.UserID)
}

// LineItemNotFoundError indicates a referenced line item does not exist.
type LineItemNotFoundError struct {
	LineItemID string
}

func (e *LineItemNotFoundError) Error() string {
	return fmt.Sprintf("line item %s not found", e.LineItemID)
}

// UnknownStatusError indicates a status value outside the closed enumeration.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown order status %q", e.Status)
}

// Status is the closed set of order lifecycle states. Values outside the
// enumeration are rejected at the boundary rather than stored verbatim.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a raw status value against the enumeration.
// An empty value defaults to StatusPending.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case "":
		return StatusPending, nil
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return s, nil
	default:
		return "", &UnknownStatusError{Status: raw}
	}
}

// LineItem is one product+quantity entry within an order, persisted as its
// own document. A line item is owned exclusively by the order that created it
// and is destroyed together with it.
type LineItem struct {
	ID        string
	ProductID string
	Quantity  int
}

// Order represents a placed customer order. TotalPrice is derived once at
// creation from the resolved line item prices and never recomputed.
type Order struct {
	ID               string
	ItemIDs          []string
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
	Status           Status
	TotalPrice       decimal.Decimal
	UserID           string
	DateOrdered      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	Delete(ctx context.Context, id string) error

	// ListByUser returns a user's orders sorted by DateOrdered descending,
	// with a stable secondary order for equal timestamps.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Count(ctx context.Context) (int64, error)
	// TotalSales sums TotalPrice across all orders. An empty store yields zero.
	TotalSales(ctx context.Context) (decimal.Decimal, error)
}

// LineItemRepository defines persistence operations for order line items.
type LineItemRepository interface {
	Create(ctx context.Context, item *LineItem) error
	GetByIDs(ctx context.Context, ids []string) ([]LineItem, error)
	Delete(ctx context.Context, id string) error
}
