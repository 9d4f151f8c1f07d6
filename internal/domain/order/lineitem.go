package order

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// materializeLimit bounds the fan-out of concurrent line item writes during
// order creation.
const materializeLimit = 4

// Materializer converts requested cart entries into persisted line item
// documents. Product existence is not checked here; the price aggregation
// step enforces it before any order is written.
type Materializer struct {
	items LineItemRepository
}

// NewMaterializer creates a Materializer over the given line item repository.
func NewMaterializer(items LineItemRepository) *Materializer {
	return &Materializer{items: items}
}

// Materialize persists a single line item and returns its generated ID.
func (m *Materializer) Materialize(ctx context.Context, productID string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", &InvalidQuantityError{ProductID: productID}
	}

	item := &LineItem{
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := m.items.Create(ctx, item); err != nil {
		return "", errors.Wrapf(err, "persist line item for product %s", productID)
	}
	return item.ID, nil
}

// MaterializeAll persists one line item per cart entry concurrently,
// preserving the entry order in the returned ID sequence. On failure it
// returns the IDs that were written so the caller can compensate.
func (m *Materializer) MaterializeAll(ctx context.Context, entries []CartEntry) ([]string, error) {
	ids := make([]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(materializeLimit)
	for i, entry := range entries {
		g.Go(func() error {
			id, err := m.Materialize(gctx, entry.ProductID, entry.Quantity)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}

	err := g.Wait()

	written := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			written = append(written, id)
		}
	}
	if err != nil {
		return written, err
	}
	return ids, nil
}
