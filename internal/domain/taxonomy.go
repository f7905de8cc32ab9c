package domain

// Category is the root of the taxonomy.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Range belongs to exactly one Category.
type Range struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// Product is the leaf onto which ASIN records are filed. CategoryID is a
// denormalized copy of the owning Range's category.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RangeID    string `json:"rangeId"`
	CategoryID string `json:"categoryId"`
}

// Node is implemented by every taxonomy entity so list maintenance can be shared.
type Node interface {
	NodeID() string
	NodeName() string
}

func (c Category) NodeID() string   { return c.ID }
func (c Category) NodeName() string { return c.Name }
func (r Range) NodeID() string      { return r.ID }
func (r Range) NodeName() string    { return r.Name }
func (p Product) NodeID() string    { return p.ID }
func (p Product) NodeName() string  { return p.Name }
