package taxonomy

import (
	"slices"
	"strings"
	"sync"

	"asindir/client/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Names are ordered by the root Unicode collation. Case only decides between
// names that are otherwise equal, lowercase first.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

func compareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

func compareNodes[T domain.Node](a, b T) int {
	if c := compareNames(a.NodeName(), b.NodeName()); c != 0 {
		return c
	}
	return strings.Compare(a.NodeID(), b.NodeID())
}

func sortNodes[T domain.Node](items []T) {
	slices.SortStableFunc(items, compareNodes[T])
}

// insertSorted replaces an entry with the same id or inserts item at its
// sorted position.
func insertSorted[T domain.Node](items []T, item T) []T {
	items = removeNode(items, item.NodeID())
	i, _ := slices.BinarySearchFunc(items, item, compareNodes[T])
	return slices.Insert(items, i, item)
}

func removeNode[T domain.Node](items []T, id string) []T {
	return slices.DeleteFunc(items, func(n T) bool { return n.NodeID() == id })
}

func findNode[T domain.Node](items []T, id string) (T, bool) {
	i := slices.IndexFunc(items, func(n T) bool { return n.NodeID() == id })
	if i < 0 {
		var zero T
		return zero, false
	}
	return items[i], true
}
