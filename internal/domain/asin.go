package domain

import "time"

// AsinRecord is a single entry of the ASIN directory. Taxonomy fields are nil
// when the record has not been filed or its node was deleted.
type AsinRecord struct {
	ID          string     `json:"id"`
	ASIN        string     `json:"asin"`
	Title       *string    `json:"title,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Brand       *string    `json:"brand,omitempty"`
	Images      []string   `json:"images"`
	Scraped     bool       `json:"scraped"`
	ScrapeError *string    `json:"scrapeError,omitempty"`
	AddedAt     time.Time  `json:"addedAt"`
	ScrapedAt   *time.Time `json:"scrapedAt,omitempty"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	RangeID     *string    `json:"rangeId,omitempty"`
	ProductID   *string    `json:"productId,omitempty"`
}

// Filed reports whether the record is assigned to a product.
func (r AsinRecord) Filed() bool {
	return r.ProductID != nil && *r.ProductID != ""
}

// DirectoryPage is one page of GET /asin-directory.
type DirectoryPage struct {
	PageNumber int          `json:"-"`
	Asins      []AsinRecord `json:"asins"`
	Total      int          `json:"total"`
}

// DirectoryResults collects every page of a full directory walk.
type DirectoryResults struct {
	Search     string           `json:"search"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Pages      []*DirectoryPage `json:"pages"`
}
