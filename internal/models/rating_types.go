package models

import "time"

// Rating is one user's score for one product (1-5 plus optional comment).
// One rating per (user, product) - a repeat POST updates the existing row.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Value     int       `json:"value" db:"value"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joined reviewer name for product detail pages.
	UserName string `json:"userName,omitempty" db:"-"`
}
