package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/eshop-api/internal/domain/product"
)

// PriceAggregator resolves persisted line items to their products' unit
// prices and computes order totals.
type PriceAggregator struct {
	items    LineItemRepository
	products product.Repository
}

// NewPriceAggregator creates a PriceAggregator over the given repositories.
func NewPriceAggregator(items LineItemRepository, products product.Repository) *PriceAggregator {
	return &PriceAggregator{
		items:    items,
		products: products,
	}
}

// TotalFor computes the total price for an ordered sequence of line item IDs
// as the sum of unit price times quantity. Every line item and its referenced
// product must resolve, otherwise a typed not-found error is returned.
func (a *PriceAggregator) TotalFor(ctx context.Context, itemIDs []string) (decimal.Decimal, error) {
	fetched, err := a.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get line items")
	}

	itemsByID := make(map[string]LineItem, len(fetched))
	for _, item := range fetched {
		itemsByID[item.ID] = item
	}

	productIDs := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := itemsByID[id]
		if !ok {
			return decimal.Zero, &LineItemNotFoundError{LineItemID: id}
		}
		productIDs = append(productIDs, item.ProductID)
	}

	prices, err := a.unitPrices(ctx, productIDs)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, id := range itemIDs {
		item := itemsByID[id]
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(prices[item.ProductID].Mul(qty))
	}
	return total, nil
}

// unitPrices batch-fetches products and maps product ID to unit price.
func (a *PriceAggregator) unitPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	fetched, err := a.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	prices := make(map[string]decimal.Decimal, len(fetched))
	for _, p := range fetched {
		prices[p.ID] = p.Price
	}
	for _, id := range productIDs {
		if _, ok := prices[id]; !ok {
			return nil, &ProductNotFoundError{ProductID: id}
		}
	}
	return prices, nil
}
