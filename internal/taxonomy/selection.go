package taxonomy

// Selection is the cursor into the taxonomy tree. Exactly one of Idle,
// CategorySelected, RangeSelected or ProductSelected; a range cursor without a
// category cursor cannot be expressed.
type Selection interface {
	selection()
}

type Idle struct{}

type CategorySelected struct {
	CategoryID string
}

type RangeSelected struct {
	CategoryID string
	RangeID    string
}

// ProductSelected is the only state from which a move can be issued.
type ProductSelected struct {
	CategoryID string
	RangeID    string
	ProductID  string
}

func (Idle) selection()             {}
func (CategorySelected) selection() {}
func (RangeSelected) selection()    {}
func (ProductSelected) selection()  {}

// Cursor flattens a selection into its three ids; unset levels are empty.
func Cursor(s Selection) (categoryID, rangeID, productID string) {
	switch v := s.(type) {
	case CategorySelected:
		return v.CategoryID, "", ""
	case RangeSelected:
		return v.CategoryID, v.RangeID, ""
	case ProductSelected:
		return v.CategoryID, v.RangeID, v.ProductID
	default:
		return "", "", ""
	}
}

// FromCursor is the inverse of Cursor. Ids below the first empty level are
// dropped.
func FromCursor(categoryID, rangeID, productID string) Selection {
	switch {
	case categoryID == "":
		return Idle{}
	case rangeID == "":
		return CategorySelected{CategoryID: categoryID}
	case productID == "":
		return RangeSelected{CategoryID: categoryID, RangeID: rangeID}
	default:
		return ProductSelected{CategoryID: categoryID, RangeID: rangeID, ProductID: productID}
	}
}
