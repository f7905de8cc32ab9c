package taxonomy

import (
	"context"
	"fmt"

	"asindir/client/internal/domain"
)

// PendingDelete is a delete waiting for the user's confirmation. Warning names
// what else the backend will remove or unassign.
type PendingDelete struct {
	Level   domain.Level
	Item    domain.Node
	Warning string
}

func deleteWarning(level domain.Level, name string) string {
	switch level {
	case domain.LevelCategory:
		return fmt.Sprintf("Delete category %q? This will also delete its Ranges and Products and unassign any ASINs filed under them.", name)
	case domain.LevelRange:
		return fmt.Sprintf("Delete range %q? This will also delete its Products and unassign any ASINs filed under them.", name)
	default:
		return fmt.Sprintf("Delete product %q? Any ASINs filed under it will be unassigned.", name)
	}
}

// RequestDelete stages a delete of an item from the currently loaded lists.
// Nothing is sent until ConfirmDelete.
func (m *Manager) RequestDelete(level domain.Level, id string) (*PendingDelete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		item  domain.Node
		found bool
	)
	switch level {
	case domain.LevelCategory:
		item, found = findNode(m.categories, id)
	case domain.LevelRange:
		item, found = findNode(m.ranges, id)
	case domain.LevelProduct:
		item, found = findNode(m.products, id)
	default:
		return nil, fmt.Errorf("unknown taxonomy level %q", level)
	}
	if !found {
		return nil, fmt.Errorf("%s %s: %w", level, id, ErrNotFound)
	}

	m.pending = &PendingDelete{
		Level:   level,
		Item:    item,
		Warning: deleteWarning(level, item.NodeName()),
	}
	pending := *m.pending
	return &pending, nil
}

// PendingDelete returns the staged delete, or nil.
func (m *Manager) PendingDelete() *PendingDelete {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return nil
	}
	pending := *m.pending
	return &pending
}

func (m *Manager) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}

// ConfirmDelete runs the staged delete. On failure it stays staged so the user
// can retry or cancel.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	pending := m.PendingDelete()
	if pending == nil {
		return ErrNothingPending
	}

	id := pending.Item.NodeID()
	switch pending.Level {
	case domain.LevelCategory:
		return m.DeleteCategory(ctx, id)
	case domain.LevelRange:
		return m.DeleteRange(ctx, id)
	default:
		return m.DeleteProduct(ctx, id)
	}
}

// clearPending must be called with mu held.
func (m *Manager) clearPending(level domain.Level, id string) {
	if m.pending != nil && m.pending.Level == level && m.pending.Item.NodeID() == id {
		m.pending = nil
	}
}
