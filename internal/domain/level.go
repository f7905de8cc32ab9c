package domain

// Level identifies a tier of the taxonomy tree.
type Level string

func (l Level) String() string {
	return string(l)
}

const (
	LevelCategory Level = "category"
	LevelRange    Level = "range"
	LevelProduct  Level = "product"
)

var Levels = []Level{
	LevelCategory,
	LevelRange,
	LevelProduct,
}

// GetLevelName returns the display name used in prompts and log lines.
func (l Level) GetLevelName() string {
	switch l {
	case LevelCategory:
		return "Category"
	case LevelRange:
		return "Range"
	case LevelProduct:
		return "Product"
	default:
		return "Unknown"
	}
}

// ParseLevel accepts singular and plural forms ("range", "ranges").
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "category", "categories":
		return LevelCategory, true
	case "range", "ranges":
		return LevelRange, true
	case "product", "products":
		return LevelProduct, true
	default:
		return "", false
	}
}
