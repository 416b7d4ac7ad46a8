package models

import "time"

// Supplier is a seller profile attached 1:1 to a User.
// A supplier is only allowed to list products once an admin has verified it.
// Invariant: Verified and VerifiedDate are always written together.
type Supplier struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"userId" db:"user_id"`

	BusinessName        string  `json:"businessName" db:"business_name"`
	BusinessDocumentURL *string `json:"businessDocumentUrl,omitempty" db:"business_document_url"`

	// Pickup / storefront location. Free-text addresses are resolved to
	// coordinates through the geocoding proxy at application time.
	LocationName string   `json:"locationName" db:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64 `json:"longitude,omitempty" db:"longitude"`

	Verified     bool       `json:"verified" db:"verified"`
	VerifiedDate *time.Time `json:"verifiedDate,omitempty" db:"verified_date"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
