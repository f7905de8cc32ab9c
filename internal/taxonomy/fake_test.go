package taxonomy

import (
	"context"
	"fmt"
	"sync"

	"asindir/client/internal/client"
	"asindir/client/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockAPI is a mock implementation of API
type MockAPI struct {
	mock.Mock
}

var _ API = (*MockAPI)(nil)

func (m *MockAPI) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockAPI) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockAPI) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) ListRanges(ctx context.Context, categoryID string) ([]domain.Range, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]domain.Range), args.Error(1)
}

func (m *MockAPI) CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error) {
	args := m.Called(ctx, name, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Range), args.Error(1)
}

func (m *MockAPI) DeleteRange(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) ListProducts(ctx context.Context, rangeID string) ([]domain.Product, error) {
	args := m.Called(ctx, rangeID)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockAPI) CreateProduct(ctx context.Context, name, rangeID, categoryID string) (*domain.Product, error) {
	args := m.Called(ctx, name, rangeID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockAPI) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) MoveAsins(ctx context.Context, asinIDs []string, productID string) error {
	return m.Called(ctx, asinIDs, productID).Error(0)
}

// fakeBackend keeps the tree in memory and applies the backend's cascade
// rules. Lists come back in insertion order, not sorted.
type fakeBackend struct {
	mu         sync.Mutex
	nextID     int
	categories []domain.Category
	ranges     []domain.Range
	products   []domain.Product
	assigned   map[string]string // asin id -> product id

	// rangeGate, when set for a category id, holds ListRanges until the
	// channel is closed. entered is signalled once the call is waiting.
	rangeGate    map[string]chan struct{}
	entered      chan string
	ignoreCancel bool
	calls        map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		assigned:  make(map[string]string),
		rangeGate: make(map[string]chan struct{}),
		entered:   make(chan string, 4),
		calls:     make(map[string]int),
	}
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	f.count("ListCategories")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Category(nil), f.categories...), nil
}

func (f *fakeBackend) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	f.count("CreateCategory")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return nil, &client.APIError{StatusCode: 409, Message: "Category name already exists"}
		}
	}
	c := domain.Category{ID: f.id("c"), Name: name}
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeBackend) DeleteCategory(ctx context.Context, id string) error {
	f.count("DeleteCategory")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = filter(f.categories, func(c domain.Category) bool { return c.ID != id })
	for _, r := range f.ranges {
		if r.CategoryID == id {
			f.deleteRangeLocked(r.ID)
		}
	}
	return nil
}

func (f *fakeBackend) ListRanges(ctx context.Context, categoryID string) ([]domain.Range, error) {
	f.count("ListRanges")
	f.mu.Lock()
	gate := f.rangeGate[categoryID]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- categoryID
		if f.ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return filter(f.ranges, func(r domain.Range) bool { return r.CategoryID == categoryID }), nil
}

func (f *fakeBackend) CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error) {
	f.count("CreateRange")
	f.mu.Lock()
	defer f.mu.Unlock()
	r := domain.Range{ID: f.id("r"), Name: name, CategoryID: categoryID}
	f.ranges = append(f.ranges, r)
	return &r, nil
}

func (f *fakeBackend) DeleteRange(ctx context.Context, id string) error {
	f.count("DeleteRange")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteRangeLocked(id)
	return nil
}

func (f *fakeBackend) deleteRangeLocked(id string) {
	f.ranges = filter(f.ranges, func(r domain.Range) bool { return r.ID != id })
	for _, p := range f.products {
		if p.RangeID == id {
			f.deleteProductLocked(p.ID)
		}
	}
}

func (f *fakeBackend) ListProducts(ctx context.Context, rangeID string) ([]domain.Product, error) {
	f.count("ListProducts")
	f.mu.Lock()
	defer f.mu.Unlock()
	return filter(f.products, func(p domain.Product) bool { return p.RangeID == rangeID }), nil
}

func (f *fakeBackend) CreateProduct(ctx context.Context, name, rangeID, categoryID string) (*domain.Product, error) {
	f.count("CreateProduct")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := domain.Product{ID: f.id("p"), Name: name, RangeID: rangeID, CategoryID: categoryID}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeBackend) DeleteProduct(ctx context.Context, id string) error {
	f.count("DeleteProduct")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteProductLocked(id)
	return nil
}

func (f *fakeBackend) deleteProductLocked(id string) {
	f.products = filter(f.products, func(p domain.Product) bool { return p.ID != id })
	for asinID, productID := range f.assigned {
		if productID == id {
			delete(f.assigned, asinID)
		}
	}
}

func (f *fakeBackend) MoveAsins(ctx context.Context, asinIDs []string, productID string) error {
	f.count("MoveAsins")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range asinIDs {
		f.assigned[id] = productID
	}
	return nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func names[T domain.Node](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.NodeName())
	}
	return out
}
