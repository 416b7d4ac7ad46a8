package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Favorites ---
//

type AddFavoriteInput struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// AddFavorite is the handler for POST /v1/favorites.
// A favorite is unique per (user, product); checked here, not in the schema.
func (h *Handlers) AddFavorite(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input AddFavoriteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 1. --- Product Must Exist and Be Verified ---
	var exists int
	err := h.DB.QueryRow("SELECT COUNT(*) FROM products WHERE id = ? AND verified = TRUE", input.ProductID).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking product"})
		return
	}
	if exists == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found"})
		return
	}

	// 2. --- Uniqueness Check ---
	var duplicate int
	err = h.DB.QueryRow("SELECT COUNT(*) FROM favorites WHERE user_id = ? AND product_id = ?", userID, input.ProductID).Scan(&duplicate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking favorite"})
		return
	}
	if duplicate > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product is already in your favorites"})
		return
	}

	// 3. --- Insert ---
	result, err := h.DB.Exec("INSERT INTO favorites (user_id, product_id, created_at) VALUES (?, ?, ?)", userID, input.ProductID, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to add favorite"})
		return
	}
	favoriteID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"favoriteId": favoriteID})
}

// RemoveFavorite is the handler for DELETE /v1/favorites/:product_id.
// Album memberships of the favorite go with it.
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	productIDStr := c.Param("product_id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var favoriteID int64
	err = tx.QueryRow("SELECT id FROM favorites WHERE user_id = ? AND product_id = ?", userID, productIDStr).Scan(&favoriteID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Favorite not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking favorite"})
		return
	}

	if _, err := tx.Exec("DELETE FROM album_favorites WHERE favorite_id = ?", favoriteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to remove favorite from albums"})
		return
	}
	if _, err := tx.Exec("DELETE FROM favorites WHERE id = ?", favoriteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to remove favorite"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// GetMyFavorites is the handler for GET /v1/favorites.
// Returns favorites with their joined products, newest first.
func (h *Handlers) GetMyFavorites(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT f.id, f.user_id, f.product_id, f.created_at,
			p.id, p.supplier_id, p.name, p.slug, p.description, p.price, p.image_url,
			p.verified, p.verified_date, p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON f.product_id = p.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	favorites := []*models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		var p models.Product
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt,
			&p.ID, &p.SupplierID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.ImageURL,
			&p.Verified, &p.VerifiedDate, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan favorite row"})
			return
		}
		f.Product = &p
		favorites = append(favorites, &f)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating favorite rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

//
// --- Albums ---
//

type CreateAlbumInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CreateAlbum is the handler for POST /v1/albums.
func (h *Handlers) CreateAlbum(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input CreateAlbumInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	result, err := h.DB.Exec("INSERT INTO albums (user_id, name, description, created_at) VALUES (?, ?, ?, ?)",
		userID, input.Name, input.Description, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create album"})
		return
	}
	albumID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"albumId": albumID})
}

// GetMyAlbums is the handler for GET /v1/albums.
func (h *Handlers) GetMyAlbums(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	rows, err := h.DB.Query("SELECT id, user_id, name, description, created_at FROM albums WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	albums := []*models.Album{}
	for rows.Next() {
		var a models.Album
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.CreatedAt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan album row"})
			return
		}
		albums = append(albums, &a)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating album rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"albums": albums})
}

// GetAlbum is the handler for GET /v1/albums/:id.
// Returns the album with its favorites and their products.
func (h *Handlers) GetAlbum(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	albumIDStr := c.Param("id")

	var album models.Album
	err := h.DB.QueryRow("SELECT id, user_id, name, description, created_at FROM albums WHERE id = ? AND user_id = ?", albumIDStr, userID).
		Scan(&album.ID, &album.UserID, &album.Name, &album.Description, &album.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Album not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error"})
		return
	}

	query := `
		SELECT f.id, f.user_id, f.product_id, f.created_at,
			p.id, p.supplier_id, p.name, p.slug, p.description, p.price, p.image_url,
			p.verified, p.verified_date, p.created_at, p.updated_at
		FROM album_favorites af
		JOIN favorites f ON af.favorite_id = f.id
		JOIN products p ON f.product_id = p.id
		WHERE af.album_id = ?
		ORDER BY f.created_at DESC`

	rows, err := h.DB.Query(query, album.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	album.Favorites = []*models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		var p models.Product
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt,
			&p.ID, &p.SupplierID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.ImageURL,
			&p.Verified, &p.VerifiedDate, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan album favorite row"})
			return
		}
		f.Product = &p
		album.Favorites = append(album.Favorites, &f)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating album favorite rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"album": album})
}

// DeleteAlbum is the handler for DELETE /v1/albums/:id.
// Favorites themselves survive; only the collection is removed.
func (h *Handlers) DeleteAlbum(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	albumIDStr := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// Child rows first, scoped through the album's owner.
	if _, err := tx.Exec(`
		DELETE af FROM album_favorites af
		JOIN albums a ON af.album_id = a.id
		WHERE af.album_id = ? AND a.user_id = ?`, albumIDStr, userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to clear album contents"})
		return
	}

	result, err := tx.Exec("DELETE FROM albums WHERE id = ? AND user_id = ?", albumIDStr, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to delete album"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Album not found"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Album deleted"})
}

type AddAlbumFavoriteInput struct {
	FavoriteID int64 `json:"favoriteId" binding:"required"`
}

// AddAlbumFavorite is the handler for POST /v1/albums/:id/favorites.
// Both the album and the favorite must belong to the caller.
func (h *Handlers) AddAlbumFavorite(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	albumIDStr := c.Param("id")

	var input AddAlbumFavoriteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 1. --- Ownership Checks ---
	var ownsAlbum int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM albums WHERE id = ? AND user_id = ?", albumIDStr, userID).Scan(&ownsAlbum); err != nil || ownsAlbum == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Album not found"})
		return
	}
	var ownsFavorite int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM favorites WHERE id = ? AND user_id = ?", input.FavoriteID, userID).Scan(&ownsFavorite); err != nil || ownsFavorite == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Favorite not found"})
		return
	}

	// 2. --- No Duplicates in an Album ---
	var duplicate int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM album_favorites WHERE album_id = ? AND favorite_id = ?", albumIDStr, input.FavoriteID).Scan(&duplicate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking album"})
		return
	}
	if duplicate > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Favorite is already in this album"})
		return
	}

	if _, err := h.DB.Exec("INSERT INTO album_favorites (album_id, favorite_id) VALUES (?, ?)", albumIDStr, input.FavoriteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to add favorite to album"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Favorite added to album"})
}

// RemoveAlbumFavorite is the handler for DELETE /v1/albums/:id/favorites/:favorite_id.
func (h *Handlers) RemoveAlbumFavorite(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	albumIDStr := c.Param("id")
	favoriteIDStr := c.Param("favorite_id")

	// Scope the delete through the album's owner.
	query := `
		DELETE af FROM album_favorites af
		JOIN albums a ON af.album_id = a.id
		WHERE af.album_id = ? AND af.favorite_id = ? AND a.user_id = ?`
	result, err := h.DB.Exec(query, albumIDStr, favoriteIDStr, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to remove favorite from album"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Favorite not found in this album"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed from album"})
}
