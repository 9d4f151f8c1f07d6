package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/eshop-api/internal/domain/product"
	"github.com/xenking/eshop-api/internal/domain/user"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]product.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockProductRepo) ListFeatured(_ context.Context, _ int) ([]product.Product, error) {
	return nil, nil
}

type mockLineItemRepo struct {
	mu        sync.Mutex
	nextID    int
	byID      map[string]LineItem
	deleted   []string
	createErr map[string]error // keyed by product ID
	deleteErr error
}

func newLineItemRepo() *mockLineItemRepo {
	return &mockLineItemRepo{
		byID:      make(map[string]LineItem),
		createErr: make(map[string]error),
	}
}

func (m *mockLineItemRepo) Create(_ context.Context, item *LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.createErr[item.ProductID]; err != nil {
		return err
	}
	m.nextID++
	item.ID = fmt.Sprintf("li%d", m.nextID)
	m.byID[item.ID] = *item
	return nil
}

func (m *mockLineItemRepo) GetByIDs(_ context.Context, ids []string) ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]LineItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := m.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockLineItemRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockLineItemRepo) stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type mockOrderRepo struct {
	nextID    int
	byID      map[string]*Order
	createErr error
	listErr   error
	byUser    map[string][]Order
	total     decimal.Decimal
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		byID:   make(map[string]*Order),
		byUser: make(map[string][]Order),
		total:  decimal.Zero,
	}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	o.ID = fmt.Sprintf("o%d", m.nextID)
	stored := *o
	m.byID[o.ID] = &stored
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	return m.byUser[userID], nil
}

func (m *mockOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockOrderRepo) TotalSales(_ context.Context) (decimal.Decimal, error) {
	return m.total, nil
}

type mockUserRepo struct {
	byID map[string]*user.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

// --- Helpers ---

func newTestProduct(id, name string, price decimal.Decimal) product.Product {
	return product.Product{
		ID:    id,
		Name:  name,
		Price: price,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

type testEnv struct {
	svc      *Service
	orders   *mockOrderRepo
	items    *mockLineItemRepo
	products *mockProductRepo
	users    *mockUserRepo
}

func newTestEnv(products ...product.Product) *testEnv {
	env := &testEnv{
		orders:   newOrderRepo(),
		items:    newLineItemRepo(),
		products: newProductRepo(products...),
		users:    &mockUserRepo{byID: make(map[string]*user.User)},
	}
	env.svc = NewService(env.orders, env.items, env.products, env.users)
	return env
}

// --- Tests ---

func TestCreate_EmptyItems(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Create(context.Background(), CreateRequest{})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	_, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{{ProductID: "p1", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
	assert.Zero(t, env.items.stored(), "no line items may be written for an invalid cart")
}

func TestCreate_UnknownStatus(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	_, err := env.svc.Create(context.Background(), CreateRequest{
		Items:  []CartEntry{{ProductID: "p1", Quantity: 1}},
		Status: "teleported",
	})

	var usErr *UnknownStatusError
	require.ErrorAs(t, err, &usErr)
	assert.Equal(t, "teleported", usErr.Status)
	assert.Zero(t, env.items.stored())
}

func TestCreate_TotalPrice(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"))
	p2 := newTestProduct("p2", "Gadget", decimal.RequireFromString("5.00"))
	env := newTestEnv(p1, p2)

	o, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("25.00").Equal(o.TotalPrice),
		"total should be 25.00, got %s", o.TotalPrice)
	assert.Equal(t, StatusPending, o.Status, "empty status defaults to pending")
	assert.Len(t, o.ItemIDs, 2)
	assert.False(t, o.DateOrdered.IsZero())
	assert.Equal(t, 2, env.items.stored())
}

func TestCreate_ProductNotFound_Compensates(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	_, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "ghost", Quantity: 3},
		},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "ghost", pnfErr.ProductID)

	// Both line items were materialized before pricing failed; the
	// compensation pass must remove them again.
	assert.Zero(t, env.items.stored(), "failed creation must not leave line items behind")
	assert.Empty(t, env.orders.byID)
}

func TestCreate_MaterializeFailure_CompensatesWritten(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	p2 := newTestProduct("p2", "Gadget", decimal.NewFromInt(5))
	env := newTestEnv(p1, p2)
	env.items.createErr["p2"] = errors.New("write refused")

	_, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})

	require.Error(t, err)
	assert.Zero(t, env.items.stored())
}

func TestCreate_OrderWriteFailure_Compensates(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)
	env.orders.createErr = errors.New("insert failed")

	_, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{{ProductID: "p1", Quantity: 1}},
	})

	require.Error(t, err)
	assert.Zero(t, env.items.stored())
}

func TestGet_ExpandsItemsAndUser(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"))
	env := newTestEnv(p1)
	env.users.byID["u1"] = &user.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items:  []CartEntry{{ProductID: "p1", Quantity: 2}},
		UserID: "u1",
	})
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Widget", got.Items[0].Product.Name)

	require.NotNil(t, got.User)
	assert.Equal(t, "Alice", got.User.Name)
}

func TestGet_MissingUserTolerated(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items:  []CartEntry{{ProductID: "p1", Quantity: 1}},
		UserID: "gone",
	})
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.User)
}

func TestGet_DanglingItemSkipped(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	// Simulate a partially completed cascade: the line item document is gone
	// but the order still references it.
	require.NoError(t, env.items.Delete(context.Background(), created.ItemIDs[0]))

	got, err := env.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := env.svc.UpdateStatus(context.Background(), created.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.True(t, created.TotalPrice.Equal(updated.TotalPrice), "status change must not touch the total")
}

func TestUpdateStatus_Unknown(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.UpdateStatus(context.Background(), "o1", "lost")
	var usErr *UnknownStatusError
	require.ErrorAs(t, err, &usErr)
}

func TestDelete_CascadesToLineItems(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	p2 := newTestProduct("p2", "Gadget", decimal.NewFromInt(5))
	env := newTestEnv(p1, p2)

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, env.items.stored())

	require.NoError(t, env.svc.Delete(context.Background(), created.ID))

	assert.Zero(t, env.items.stored(), "owned line items must be destroyed with the order")

	_, err = env.svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv()

	err := env.svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, env.items.deleted)
}

func TestDelete_ItemFailureDoesNotFailDelete(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10))
	env := newTestEnv(p1)

	created, err := env.svc.Create(context.Background(), CreateRequest{
		Items: []CartEntry{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	env.items.deleteErr = errors.New("store unavailable")

	// The order removal gates the cascade; item failures are logged, not fatal.
	require.NoError(t, env.svc.Delete(context.Background(), created.ID))
	_, err = env.svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s)

	s, err = ParseStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("Pending")
	var usErr *UnknownStatusError
	require.ErrorAs(t, err, &usErr)
	assert.Equal(t, "Pending", usErr.Status)
}
