package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrCategoryNotFound is returned when a requested category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// Category groups catalog products for browsing.
type Category struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

// CategoryRepository defines read operations for product categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id string) (*Category, error)
}
