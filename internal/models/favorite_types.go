package models

import "time"

// Favorite links a user to a saved product.
// Unique per (user, product) - enforced in the handler, not the schema.
type Favorite struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Joined product, populated on list reads.
	Product *Product `json:"product,omitempty" db:"-"`
}

// Album is a user-named collection of favorites.
type Album struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	Favorites []*Favorite `json:"favorites,omitempty" db:"-"`
}

// AlbumFavorite is the join row placing a favorite inside an album.
type AlbumFavorite struct {
	ID         int64 `json:"id" db:"id"`
	AlbumID    int64 `json:"albumId" db:"album_id"`
	FavoriteID int64 `json:"favoriteId" db:"favorite_id"`
}
