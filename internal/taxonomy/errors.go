package taxonomy

import "errors"

var (
	ErrEmptyName          = errors.New("name is required")
	ErrNoCategorySelected = errors.New("select a category first")
	ErrNoRangeSelected    = errors.New("select a range first")
	ErrNoProductSelected  = errors.New("select a product first")
	ErrNoAsinsSelected    = errors.New("no ASINs selected")
	ErrBusy               = errors.New("another request for this item is still in flight")
	ErrNotFound           = errors.New("item is not in the current list")
	ErrNothingPending     = errors.New("no delete is awaiting confirmation")
	ErrClosed             = errors.New("taxonomy manager is closed")
)
