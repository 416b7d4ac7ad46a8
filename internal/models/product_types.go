package models

import "time"

// Product is a raw-material listing owned by one supplier.
// Only verified products appear in public search.
// Invariant: Verified and VerifiedDate are always written together.
type Product struct {
	ID         int64 `json:"id" db:"id"`
	SupplierID int64 `json:"supplierId" db:"supplier_id"`

	Name        string  `json:"name" db:"name"`
	Slug        string  `json:"slug" db:"slug"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
	ImageURL    *string `json:"imageUrl,omitempty" db:"image_url"`

	Verified     bool       `json:"verified" db:"verified"`
	VerifiedDate *time.Time `json:"verifiedDate,omitempty" db:"verified_date"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Join fields, populated by detail/search queries.
	SupplierName  string   `json:"supplierName,omitempty" db:"-"`
	AverageRating *float64 `json:"averageRating,omitempty" db:"-"`
	RatingCount   int      `json:"ratingCount,omitempty" db:"-"`
}
