package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Collaborator mocks
// =====================

type IdentityClientMock struct{ mock.Mock }

func (m *IdentityClientMock) GetUser(ctx context.Context, userID int64) (model.UserSnapshot, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.UserSnapshot)
	return u, args.Error(1)
}

// fakeCatalog は在庫を持つ catalog の代わり。
// failAdjustOn に商品IDを入れると、その商品の AdjustStock が失敗する。
type fakeCatalog struct {
	mu           sync.Mutex
	products     map[int64]model.ProductSnapshot
	adjustments  []adjustCall
	getErr       error
	failAdjustOn map[int64]error
}

type adjustCall struct {
	ProductID int64
	Delta     int64
}

func newFakeCatalog(products ...model.ProductSnapshot) *fakeCatalog {
	c := &fakeCatalog{
		products:     map[int64]model.ProductSnapshot{},
		failAdjustOn: map[int64]error{},
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return model.ProductSnapshot{}, c.getErr
	}
	p, ok := c.products[productID]
	if !ok {
		return model.ProductSnapshot{}, fmt.Errorf("%w: product %d", usecase.ErrRemoteNotFound, productID)
	}
	return p, nil
}

func (c *fakeCatalog) AdjustStock(ctx context.Context, productID int64, delta int64) (model.ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failAdjustOn[productID]; ok {
		return model.ProductSnapshot{}, err
	}
	p, ok := c.products[productID]
	if !ok {
		return model.ProductSnapshot{}, fmt.Errorf("%w: product %d", usecase.ErrRemoteNotFound, productID)
	}
	if p.AvailableStock+delta < 0 {
		return model.ProductSnapshot{}, fmt.Errorf("%w: available %d", usecase.ErrInvalidAdjustment, p.AvailableStock)
	}
	p.AvailableStock += delta
	c.products[productID] = p
	c.adjustments = append(c.adjustments, adjustCall{ProductID: productID, Delta: delta})
	return p, nil
}

func (c *fakeCatalog) stock(productID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[productID].AvailableStock
}

// =====================
// Repository fakes / mocks
// =====================

// memOrderRepo は id を採番するだけのインメモリ注文ストア
type memOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	nextItem  int64
	orders    map[int64]model.Order
	insertErr error
	updateErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[int64]model.Order{}}
}

var _ repo.OrderRepository = (*memOrderRepo)(nil)

func (r *memOrderRepo) Insert(ctx context.Context, o model.Order) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return model.Order{}, r.insertErr
	}
	r.nextID++
	o.ID = r.nextID
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o.CreatedAt, o.UpdatedAt = now, now
	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		r.nextItem++
		it.ID = r.nextItem
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	r.orders[o.ID] = o
	return o, nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id int64) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) FindByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for id := int64(1); id <= r.nextID; id++ {
		if o, ok := r.orders[id]; ok && o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for id := int64(1); id <= r.nextID; id++ {
		if o, ok := r.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) Update(ctx context.Context, o model.Order) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return model.Order{}, r.updateErr
	}
	cur, ok := r.orders[o.ID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	cur.Status = o.Status
	cur.ShippingAddress = o.ShippingAddress
	cur.UpdatedAt = cur.UpdatedAt.Add(time.Minute)
	r.orders[o.ID] = cur
	return cur, nil
}

func (r *memOrderRepo) put(o model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID > r.nextID {
		r.nextID = o.ID
	}
	r.orders[o.ID] = o
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) ListByResource(ctx context.Context, resource model.AuditResourceType, resourceID int64, page repo.Page) ([]model.AuditLog, error) {
	args := m.Called(ctx, resource, resourceID, page)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type EventPublisherMock struct{ mock.Mock }

func (m *EventPublisherMock) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type IdempotencyStoreMock struct{ mock.Mock }

func (m *IdempotencyStoreMock) Reserve(ctx context.Context, key string) (int64, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *IdempotencyStoreMock) Remember(ctx context.Context, key string, orderID int64) error {
	args := m.Called(ctx, key, orderID)
	return args.Error(0)
}

func (m *IdempotencyStoreMock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, want, he.Status)
	}
}
