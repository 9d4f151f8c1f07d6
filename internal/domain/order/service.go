package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/eshop-api/internal/domain/product"
	"github.com/xenking/eshop-api/internal/domain/user"
)

// CartEntry is a requested product+quantity pair from the order creation body.
type CartEntry struct {
	ProductID string
	Quantity  int
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Items            []CartEntry
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
	Status           string
	UserID           string
}

// UserSummary is the minimal projection of the ordering user attached to
// expanded order views.
type UserSummary struct {
	ID   string
	Name string
}

// ExpandedLineItem is a line item with its product resolved. Product is nil
// when the referenced product no longer exists.
type ExpandedLineItem struct {
	LineItem
	Product *product.Product
}

// ExpandedOrder is the read-time view of an order with line items, products,
// and the user projection resolved.
type ExpandedOrder struct {
	Order
	Items []ExpandedLineItem
	User  *UserSummary
}

// Service orchestrates the order lifecycle: creation via the materializer and
// price aggregator, expanded reads, status transitions, and cascading deletes.
type Service struct {
	materializer *Materializer
	pricer       *PriceAggregator
	orders       Repository
	items        LineItemRepository
	products     product.Repository
	users        user.Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	orders Repository,
	items LineItemRepository,
	products product.Repository,
	users user.Repository,
) *Service {
	return &Service{
		materializer: NewMaterializer(items),
		pricer:       NewPriceAggregator(items, products),
		orders:       orders,
		items:        items,
		products:     products,
		users:        users,
	}
}

// Create places an order: it validates the cart, materializes one line item
// per entry, aggregates their prices into the order total, and persists the
// order. Any failure aborts the whole operation; line items already written
// are removed again so no orphans outlive a failed creation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, entry := range req.Items {
		if entry.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: entry.ProductID}
		}
	}

	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	itemIDs, err := s.materializer.MaterializeAll(ctx, req.Items)
	if err != nil {
		s.compensate(ctx, itemIDs)
		return nil, errors.Wrap(err, "materialize line items")
	}

	total, err := s.pricer.TotalFor(ctx, itemIDs)
	if err != nil {
		s.compensate(ctx, itemIDs)
		return nil, errors.Wrap(err, "aggregate total price")
	}

	o := &Order{
		ItemIDs:          itemIDs,
		ShippingAddress1: req.ShippingAddress1,
		ShippingAddress2: req.ShippingAddress2,
		City:             req.City,
		Zip:              req.Zip,
		Country:          req.Country,
		Phone:            req.Phone,
		Status:           status,
		TotalPrice:       total,
		UserID:           req.UserID,
		DateOrdered:      time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		s.compensate(ctx, itemIDs)
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// compensate removes line items written by a creation attempt that did not
// reach a persisted order. Deletion failures are logged and not retried.
func (s *Service) compensate(ctx context.Context, itemIDs []string) {
	lg := zctx.From(ctx)
	for _, id := range itemIDs {
		if err := s.items.Delete(ctx, id); err != nil {
			lg.Warn("Orphaned line item not cleaned up",
				zap.String("line_item_id", id),
				zap.Error(err),
			)
		}
	}
}

// Get returns one order with line items, products, and user resolved.
func (s *Service) Get(ctx context.Context, id string) (*ExpandedOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expanded, err := s.expandAll(ctx, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &expanded[0], nil
}

// List returns all orders, expanded as in Get.
func (s *Service) List(ctx context.Context) ([]ExpandedOrder, error) {
	list, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return s.expandAll(ctx, list)
}

// UpdateStatus transitions an order's status. The total price and line items
// are left untouched.
func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string) (*Order, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	return s.orders.UpdateStatus(ctx, id, status)
}

// Delete removes an order and cascades to its owned line items. The order
// document gates the cascade: when its removal fails the line items are left
// in place. Individual line item deletion failures are logged and the cascade
// continues; missing items are eventually cleaned up, not rolled back.
func (s *Service) Delete(ctx context.Context, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}

	lg := zctx.From(ctx)
	for _, itemID := range o.ItemIDs {
		if err := s.items.Delete(ctx, itemID); err != nil {
			lg.Warn("Cascade delete of line item failed",
				zap.String("order_id", id),
				zap.String("line_item_id", itemID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// expandAll resolves line items, products, and users for a batch of orders
// with one repository round-trip per collection, then assembles the views.
func (s *Service) expandAll(ctx context.Context, list []Order) ([]ExpandedOrder, error) {
	itemIDs := make([]string, 0, len(list))
	for _, o := range list {
		itemIDs = append(itemIDs, o.ItemIDs...)
	}

	itemsByID := make(map[string]LineItem, len(itemIDs))
	productsByID := make(map[string]*product.Product)
	if len(itemIDs) > 0 {
		items, err := s.items.GetByIDs(ctx, itemIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get line items")
		}
		productIDs := make([]string, 0, len(items))
		for _, item := range items {
			itemsByID[item.ID] = item
			productIDs = append(productIDs, item.ProductID)
		}

		fetched, err := s.products.GetByIDs(ctx, productIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get products")
		}
		for i := range fetched {
			productsByID[fetched[i].ID] = &fetched[i]
		}
	}

	usersByID := make(map[string]*UserSummary)
	for _, o := range list {
		if o.UserID == "" {
			continue
		}
		if _, ok := usersByID[o.UserID]; ok {
			continue
		}
		u, err := s.users.GetByID(ctx, o.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(err, "get user")
		}
		usersByID[o.UserID] = &UserSummary{ID: u.ID, Name: u.Name}
	}

	out := make([]ExpandedOrder, len(list))
	for i, o := range list {
		out[i] = assembleView(o, itemsByID, productsByID, usersByID[o.UserID])
	}
	return out, nil
}

// assembleView is the pure record-to-view join: it attaches resolved line
// items, products, and the user projection to an order. References that no
// longer resolve are simply absent from the view; a concurrent cascade delete
// may legitimately leave partial state behind.
func assembleView(
	o Order,
	items map[string]LineItem,
	products map[string]*product.Product,
	usr *UserSummary,
) ExpandedOrder {
	view := ExpandedOrder{
		Order: o,
		Items: make([]ExpandedLineItem, 0, len(o.ItemIDs)),
		User:  usr,
	}
	for _, id := range o.ItemIDs {
		item, ok := items[id]
		if !ok {
			continue
		}
		view.Items = append(view.Items, ExpandedLineItem{
			LineItem: item,
			Product:  products[item.ProductID],
		})
	}
	return view
}
