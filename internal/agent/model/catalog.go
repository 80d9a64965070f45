package model

import "context"

// ProductRow is a full catalog record as returned by lookup queries.
type ProductRow struct {
	ID                   int            `json:"id"`
	Title                string         `json:"title"`
	Description          string         `json:"description,omitempty"`
	Category             string         `json:"category,omitempty"`
	Price                float64        `json:"price"`
	Rating               float64        `json:"rating"`
	Stock                int            `json:"stock"`
	Brand                string         `json:"brand,omitempty"`
	SKU                  string         `json:"sku,omitempty"`
	AvailabilityStatus   string         `json:"availability_status,omitempty"`
	ShippingInformation  string         `json:"shipping_information,omitempty"`
	ReturnPolicy         string         `json:"return_policy,omitempty"`
	WarrantyInformation  string         `json:"warranty_information,omitempty"`
	Dimensions           map[string]any `json:"dimensions,omitempty"`
	Weight               int            `json:"weight,omitempty"`
	MinimumOrderQuantity int            `json:"minimum_order_quantity,omitempty"`
	AvgRating            float64        `json:"avg_rating,omitempty"`
	ReviewCount          int            `json:"review_count,omitempty"`
	ExactTitleMatch      bool           `json:"exact_title_match,omitempty"`
}

// CategoryProductRow is the lightweight shape for category listings.
type CategoryProductRow struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// ReviewRow is one customer review of a product.
type ReviewRow struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Date         string `json:"date,omitempty"`
	ReviewerName string `json:"reviewer_name,omitempty"`
}

// Catalog is the relational product store collaborator. All queries are
// read-only and parameterized; implementations live in internal/agent/repo.
type Catalog interface {
	// SearchHybrid combines exact/substring matching with keyword ranking.
	SearchHybrid(ctx context.Context, query string, limit int) ([]ProductRow, error)

	// GetByTitle returns products whose title matches exactly (case-insensitive).
	GetByTitle(ctx context.Context, title string, limit int) ([]ProductRow, error)

	// GetByCategory lists products of a category ordered by title.
	GetByCategory(ctx context.Context, category string, limit int) ([]CategoryProductRow, error)

	// GetReviews returns the newest reviews for a product.
	GetReviews(ctx context.Context, productID int, limit int) ([]ReviewRow, error)

	// ListCategories returns the distinct category names in the catalog.
	ListCategories(ctx context.Context) ([]string, error)
}
