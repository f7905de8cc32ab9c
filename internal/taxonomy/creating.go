package taxonomy

import (
	"fmt"
	"slices"

	"asindir/client/internal/domain"
)

// StartCreating switches level from its list to a name input. Ranges need a
// selected category and products a selected range.
func (m *Manager) StartCreating(level domain.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	categoryID, rangeID, _ := Cursor(m.selection)
	switch level {
	case domain.LevelCategory:
	case domain.LevelRange:
		if categoryID == "" {
			return ErrNoCategorySelected
		}
	case domain.LevelProduct:
		if rangeID == "" {
			return ErrNoRangeSelected
		}
	default:
		return fmt.Errorf("unknown taxonomy level %q", level)
	}

	m.creating = level
	return nil
}

// CancelCreating returns to the list without creating anything.
func (m *Manager) CancelCreating() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creating = ""
}

// Creating reports which level, if any, shows a name input.
func (m *Manager) Creating() (domain.Level, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creating, m.creating != ""
}

// resetBelow must be called with mu held. It drops create and delete
// sub-states of levels deeper than level.
func (m *Manager) resetBelow(level domain.Level) {
	depth := slices.Index(domain.Levels, level)
	below := func(l domain.Level) bool {
		return slices.Index(domain.Levels, l) > depth
	}

	if m.creating != "" && below(m.creating) {
		m.creating = ""
	}
	if m.pending != nil && below(m.pending.Level) {
		m.pending = nil
	}
}
