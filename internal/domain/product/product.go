package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID              string
	Name            string
	Description     string
	RichDescription string
	Image           string
	Brand           string
	Price           decimal.Decimal
	CategoryID      string
	CountInStock    int
	Rating          int
	NumReviews      int
	IsFeatured      bool
	DateCreated     time.Time
}

// Repository defines read operations for the product catalog.
//
// The order workflow only ever reads products; catalog writes happen through
// the admin surface, which is outside this service.
type Repository interface {
	// List returns catalog products, optionally restricted to the given
	// category IDs. An empty filter returns everything.
	List(ctx context.Context, categoryIDs []string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Count(ctx context.Context) (int64, error)
	ListFeatured(ctx context.Context, limit int) ([]Product, error)
}
