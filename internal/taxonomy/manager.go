// Package taxonomy keeps a client-side view of the Category → Range → Product
// tree, coordinates its mutations with the directory backend and files ASIN
// records onto products.
package taxonomy

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"asindir/client/internal/client"
	"asindir/client/internal/domain"

	log "github.com/sirupsen/logrus"
)

// API is the part of the directory backend the manager talks to.
// client.DirectoryClient satisfies it.
type API interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListRanges(ctx context.Context, categoryID string) ([]domain.Range, error)
	CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error)
	DeleteRange(ctx context.Context, id string) error

	ListProducts(ctx context.Context, rangeID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, name, rangeID, categoryID string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	MoveAsins(ctx context.Context, asinIDs []string, productID string) error
}

var _ API = client.DirectoryClient(nil)

// fetchSlot tracks the latest list request of one level. A response is only
// applied if its generation is still the slot's generation.
type fetchSlot struct {
	gen    uint64
	cancel context.CancelFunc
}

// Manager is safe for concurrent use. Network calls run outside the lock; the
// lists and cursor only change once a call has succeeded.
type Manager struct {
	api API

	life    context.Context
	closeFn context.CancelFunc

	mu         sync.Mutex
	closed     bool
	selection  Selection
	categories []domain.Category
	ranges     []domain.Range
	products   []domain.Product
	creating   domain.Level
	pending    *PendingDelete
	alert      string
	inFlight   map[string]struct{}
	fetches    map[domain.Level]*fetchSlot
}

func NewManager(api API) *Manager {
	life, closeFn := context.WithCancel(context.Background())
	m := &Manager{
		api:       api,
		life:      life,
		closeFn:   closeFn,
		selection: Idle{},
		inFlight:  make(map[string]struct{}),
		fetches:   make(map[domain.Level]*fetchSlot, len(domain.Levels)),
	}
	for _, level := range domain.Levels {
		m.fetches[level] = &fetchSlot{}
	}
	return m
}

// Close cancels every request still in flight and makes further calls fail
// with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.closeFn()
}

func (m *Manager) Selection() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

func (m *Manager) Categories() []domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.categories)
}

func (m *Manager) Ranges() []domain.Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ranges)
}

func (m *Manager) Products() []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.products)
}

// Alert is the message of the last failed backend call, until dismissed.
func (m *Manager) Alert() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alert
}

func (m *Manager) DismissAlert() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alert = ""
}

func (m *Manager) fail(err error, fallback string) error {
	m.mu.Lock()
	m.alert = client.Message(err, fallback)
	m.mu.Unlock()
	return err
}

// bind derives a context that ends with either ctx or the manager.
func (m *Manager) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// beginFetch must be called with mu held.
func (m *Manager) beginFetch(ctx context.Context, level domain.Level) (context.Context, uint64) {
	slot := m.fetches[level]
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	fctx, cancel := m.bind(ctx)
	slot.cancel = cancel
	return fctx, slot.gen
}

// endFetch must be called with mu held. It reports whether gen is still the
// latest request of level.
func (m *Manager) endFetch(level domain.Level, gen uint64) bool {
	slot := m.fetches[level]
	if slot.gen != gen || m.closed {
		return false
	}
	if slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
	return true
}

// invalidate must be called with mu held. Any response still on its way for
// level is dropped.
func (m *Manager) invalidate(level domain.Level) {
	slot := m.fetches[level]
	if slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
	slot.gen++
}

// acquire marks key as in flight. The returned func releases it.
func (m *Manager) acquire(key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if _, busy := m.inFlight[key]; busy {
		return nil, fmt.Errorf("%s: %w", key, ErrBusy)
	}
	m.inFlight[key] = struct{}{}
	return func() {
		m.mu.Lock()
		delete(m.inFlight, key)
		m.mu.Unlock()
	}, nil
}

// Load fetches the category list. It is the first call a fresh manager needs.
func (m *Manager) Load(ctx context.Context) error {
	if err := m.reloadCategories(ctx); err != nil {
		return m.fail(err, "Failed to load categories")
	}
	return nil
}

// SelectCategory moves the cursor to id, drops everything below it and loads
// the ranges of id. An empty id returns to Idle without a request.
func (m *Manager) SelectCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	m.ranges = nil
	m.products = nil
	m.invalidate(domain.LevelProduct)
	m.resetBelow(domain.LevelCategory)

	if id == "" {
		m.selection = Idle{}
		m.invalidate(domain.LevelRange)
		m.mu.Unlock()
		return nil
	}

	m.selection = CategorySelected{CategoryID: id}
	fctx, gen := m.beginFetch(ctx, domain.LevelRange)
	m.mu.Unlock()

	ranges, err := m.api.ListRanges(fctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.endFetch(domain.LevelRange, gen) {
		log.Debugf("Discarding stale ranges of category %s", id)
		return nil
	}
	if err != nil {
		m.alert = client.Message(err, "Failed to load ranges")
		return err
	}

	sortNodes(ranges)
	m.ranges = ranges
	return nil
}

// SelectRange moves the range cursor to id and loads its products. An empty id
// steps back to the category.
func (m *Manager) SelectRange(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	categoryID, _, _ := Cursor(m.selection)
	if categoryID == "" {
		m.mu.Unlock()
		return ErrNoCategorySelected
	}

	m.products = nil
	m.resetBelow(domain.LevelRange)

	if id == "" {
		m.selection = CategorySelected{CategoryID: categoryID}
		m.invalidate(domain.LevelProduct)
		m.mu.Unlock()
		return nil
	}

	m.selection = RangeSelected{CategoryID: categoryID, RangeID: id}
	fctx, gen := m.beginFetch(ctx, domain.LevelProduct)
	m.mu.Unlock()

	products, err := m.api.ListProducts(fctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.endFetch(domain.LevelProduct, gen) {
		log.Debugf("Discarding stale products of range %s", id)
		return nil
	}
	if err != nil {
		m.alert = client.Message(err, "Failed to load products")
		return err
	}

	sortNodes(products)
	m.products = products
	return nil
}

// SelectProduct sets the leaf cursor. An empty id steps back to the range.
func (m *Manager) SelectProduct(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	categoryID, rangeID, _ := Cursor(m.selection)
	if rangeID == "" {
		return ErrNoRangeSelected
	}

	if id == "" {
		m.selection = RangeSelected{CategoryID: categoryID, RangeID: rangeID}
		return nil
	}
	m.selection = ProductSelected{CategoryID: categoryID, RangeID: rangeID, ProductID: id}
	return nil
}

// Restore replays a saved selection: categories, then each level down to the
// deepest id in sel.
func (m *Manager) Restore(ctx context.Context, sel Selection) error {
	if err := m.Load(ctx); err != nil {
		return err
	}

	categoryID, rangeID, productID := Cursor(sel)
	if categoryID == "" {
		return nil
	}
	if err := m.SelectCategory(ctx, categoryID); err != nil {
		return err
	}
	if rangeID == "" {
		return nil
	}
	if err := m.SelectRange(ctx, rangeID); err != nil {
		return err
	}
	if productID == "" {
		return nil
	}
	return m.SelectProduct(productID)
}

// Refresh reloads every list the current cursor shows.
func (m *Manager) Refresh(ctx context.Context) error {
	if err := m.reloadCategories(ctx); err != nil {
		return m.fail(err, "Failed to load categories")
	}

	categoryID, rangeID, _ := Cursor(m.Selection())
	if categoryID != "" {
		if err := m.reloadRanges(ctx, categoryID); err != nil {
			return m.fail(err, "Failed to load ranges")
		}
	}
	if rangeID != "" {
		if err := m.reloadProducts(ctx, rangeID); err != nil {
			return m.fail(err, "Failed to load products")
		}
	}
	return nil
}

func (m *Manager) reloadCategories(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	fctx, gen := m.beginFetch(ctx, domain.LevelCategory)
	m.mu.Unlock()

	categories, err := m.api.ListCategories(fctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.endFetch(domain.LevelCategory, gen) {
		log.Debug("Discarding stale category list")
		return nil
	}
	if err != nil {
		return err
	}

	sortNodes(categories)
	m.categories = categories
	return nil
}

// reloadRanges refetches the range list without touching the cursor. It does
// nothing once categoryID is no longer selected.
func (m *Manager) reloadRanges(ctx context.Context, categoryID string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if current, _, _ := Cursor(m.selection); current != categoryID {
		m.mu.Unlock()
		return nil
	}
	fctx, gen := m.beginFetch(ctx, domain.LevelRange)
	m.mu.Unlock()

	ranges, err := m.api.ListRanges(fctx, categoryID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.endFetch(domain.LevelRange, gen) {
		return nil
	}
	if err != nil {
		return err
	}
	if current, _, _ := Cursor(m.selection); current != categoryID {
		return nil
	}

	sortNodes(ranges)
	m.ranges = ranges
	return nil
}

// reloadProducts refetches the product list without touching the cursor.
func (m *Manager) reloadProducts(ctx context.Context, rangeID string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, current, _ := Cursor(m.selection); current != rangeID {
		m.mu.Unlock()
		return nil
	}
	fctx, gen := m.beginFetch(ctx, domain.LevelProduct)
	m.mu.Unlock()

	products, err := m.api.ListProducts(fctx, rangeID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.endFetch(domain.LevelProduct, gen) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, current, _ := Cursor(m.selection); current != rangeID {
		return nil
	}

	sortNodes(products)
	m.products = products
	return nil
}

// revalidate refetches a level after a successful write. A failure keeps the
// locally patched list.
func (m *Manager) revalidate(ctx context.Context, level domain.Level, scopeID string) {
	var err error
	switch level {
	case domain.LevelCategory:
		err = m.reloadCategories(ctx)
	case domain.LevelRange:
		err = m.reloadRanges(ctx, scopeID)
	case domain.LevelProduct:
		err = m.reloadProducts(ctx, scopeID)
	}
	if err != nil {
		log.Warnf("⚠️ Could not refresh %s list after write, keeping local copy: %v", level, err)
	}
}

func (m *Manager) finishCreating(level domain.Level) {
	if m.creating == level {
		m.creating = ""
	}
}

// CreateCategory creates a category and returns it so the caller can select it.
func (m *Manager) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	release, err := m.acquire("create:category:" + strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	created, err := m.api.CreateCategory(cctx, name)
	if err != nil {
		return nil, m.fail(err, "Failed to create category")
	}

	m.mu.Lock()
	m.categories = insertSorted(m.categories, *created)
	m.finishCreating(domain.LevelCategory)
	m.mu.Unlock()

	log.Infof("✅ Created category %q (%s)", created.Name, created.ID)
	m.revalidate(ctx, domain.LevelCategory, "")
	return created, nil
}

// CreateRange creates a range under categoryID. The local list only changes
// when categoryID is the selected category.
func (m *Manager) CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error) {
	name = strings.TrimSpace(name)
	if categoryID == "" {
		return nil, ErrNoCategorySelected
	}
	if name == "" {
		return nil, ErrEmptyName
	}

	release, err := m.acquire("create:range:" + categoryID + ":" + strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	created, err := m.api.CreateRange(cctx, name, categoryID)
	if err != nil {
		return nil, m.fail(err, "Failed to create range")
	}

	m.mu.Lock()
	current, _, _ := Cursor(m.selection)
	visible := current == categoryID
	if visible {
		m.ranges = insertSorted(m.ranges, *created)
	}
	m.finishCreating(domain.LevelRange)
	m.mu.Unlock()

	log.Infof("✅ Created range %q (%s) in category %s", created.Name, created.ID, categoryID)
	if visible {
		m.revalidate(ctx, domain.LevelRange, categoryID)
	}
	return created, nil
}

// CreateProduct creates a product under rangeID. Its category comes from the
// loaded Range when known, and from the category cursor otherwise.
func (m *Manager) CreateProduct(ctx context.Context, name, rangeID string) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if rangeID == "" {
		return nil, ErrNoRangeSelected
	}
	if name == "" {
		return nil, ErrEmptyName
	}

	categoryID := m.categoryOfRange(rangeID)
	if categoryID == "" {
		return nil, ErrNoCategorySelected
	}

	release, err := m.acquire("create:product:" + rangeID + ":" + strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	created, err := m.api.CreateProduct(cctx, name, rangeID, categoryID)
	if err != nil {
		return nil, m.fail(err, "Failed to create product")
	}

	m.mu.Lock()
	_, current, _ := Cursor(m.selection)
	visible := current == rangeID
	if visible {
		m.products = insertSorted(m.products, *created)
	}
	m.finishCreating(domain.LevelProduct)
	m.mu.Unlock()

	log.Infof("✅ Created product %q (%s) in range %s", created.Name, created.ID, rangeID)
	if visible {
		m.revalidate(ctx, domain.LevelProduct, rangeID)
	}
	return created, nil
}

func (m *Manager) categoryOfRange(rangeID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := findNode(m.ranges, rangeID); ok && r.CategoryID != "" {
		return r.CategoryID
	}
	categoryID, _, _ := Cursor(m.selection)
	return categoryID
}

// DeleteCategory deletes the category on the backend, which also deletes its
// ranges and products. Local state changes only after the backend agrees.
func (m *Manager) DeleteCategory(ctx context.Context, id string) error {
	release, err := m.acquire("category:" + id)
	if err != nil {
		return err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	if err := m.api.DeleteCategory(cctx, id); err != nil {
		return m.fail(err, "Failed to delete category")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = removeNode(m.categories, id)
	if categoryID, _, _ := Cursor(m.selection); categoryID == id {
		m.selection = Idle{}
		m.ranges = nil
		m.products = nil
		m.invalidate(domain.LevelRange)
		m.invalidate(domain.LevelProduct)
		m.resetBelow(domain.LevelCategory)
	}
	m.clearPending(domain.LevelCategory, id)

	log.Infof("🗑️ Deleted category %s", id)
	return nil
}

// DeleteRange deletes the range and, on the backend, its products.
func (m *Manager) DeleteRange(ctx context.Context, id string) error {
	release, err := m.acquire("range:" + id)
	if err != nil {
		return err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	if err := m.api.DeleteRange(cctx, id); err != nil {
		return m.fail(err, "Failed to delete range")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ranges = removeNode(m.ranges, id)
	if categoryID, rangeID, _ := Cursor(m.selection); rangeID == id {
		m.selection = CategorySelected{CategoryID: categoryID}
		m.products = nil
		m.invalidate(domain.LevelProduct)
		m.resetBelow(domain.LevelRange)
	}
	m.clearPending(domain.LevelRange, id)

	log.Infof("🗑️ Deleted range %s", id)
	return nil
}

// DeleteProduct deletes the product; records filed under it become unassigned.
func (m *Manager) DeleteProduct(ctx context.Context, id string) error {
	release, err := m.acquire("product:" + id)
	if err != nil {
		return err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	if err := m.api.DeleteProduct(cctx, id); err != nil {
		return m.fail(err, "Failed to delete product")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = removeNode(m.products, id)
	if sel, ok := m.selection.(ProductSelected); ok && sel.ProductID == id {
		m.selection = RangeSelected{CategoryID: sel.CategoryID, RangeID: sel.RangeID}
	}
	m.clearPending(domain.LevelProduct, id)

	log.Infof("🗑️ Deleted product %s", id)
	return nil
}

// MoveAsinsToProduct files asinIDs under productID in one request. The result
// is all or nothing; the tree itself is never modified.
func (m *Manager) MoveAsinsToProduct(ctx context.Context, asinIDs []string, productID string) error {
	if len(asinIDs) == 0 {
		return ErrNoAsinsSelected
	}
	if productID == "" {
		return ErrNoProductSelected
	}

	release, err := m.acquire("move")
	if err != nil {
		return err
	}
	defer release()

	cctx, cancel := m.bind(ctx)
	defer cancel()

	if err := m.api.MoveAsins(cctx, asinIDs, productID); err != nil {
		return m.fail(err, "Failed to move ASINs")
	}

	log.Infof("✅ Moved %d ASINs to product %s", len(asinIDs), productID)
	return nil
}

// MoveSelected moves asinIDs to the selected product.
func (m *Manager) MoveSelected(ctx context.Context, asinIDs []string) error {
	sel, ok := m.Selection().(ProductSelected)
	if !ok {
		return ErrNoProductSelected
	}
	return m.MoveAsinsToProduct(ctx, asinIDs, sel.ProductID)
}
