package domain

import "time"

// ProductDetails is what a single ASIN lookup extracts from a product page.
type ProductDetails struct {
	ASIN         string    `json:"asin"`
	Title        string    `json:"title,omitempty"`
	Price        string    `json:"price,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Availability string    `json:"availability,omitempty"`
	Images       []string  `json:"images,omitempty"`
	URL          string    `json:"url"`
	FetchedAt    time.Time `json:"fetched_at"`
}
