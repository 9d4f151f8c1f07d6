package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Stats provides read-only sales and usage reporting over persisted orders.
type Stats struct {
	orders  Repository
	service *Service
}

// NewStats creates a Stats reader. The service is used to expand per-user
// order history the same way Get does.
func NewStats(orders Repository, service *Service) *Stats {
	return &Stats{
		orders:  orders,
		service: service,
	}
}

// Count returns the number of persisted orders.
func (s *Stats) Count(ctx context.Context) (int64, error) {
	n, err := s.orders.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

// TotalSales returns the sum of TotalPrice across all orders. An empty store
// yields zero, not an error.
func (s *Stats) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.orders.TotalSales(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "total sales")
	}
	return total, nil
}

// OrdersForUser returns a user's orders newest first, each expanded with line
// items, products, and the user projection.
func (s *Stats) OrdersForUser(ctx context.Context, userID string) ([]ExpandedOrder, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	return s.service.expandAll(ctx, list)
}
