package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Ratings ---
//

// getRatingSummary returns the average value and count of ratings for a
// product. Works in and out of a transaction via the Querier interface.
func (h *Handlers) getRatingSummary(q Querier, productID int64) (*float64, int, error) {
	var avg sql.NullFloat64
	var count int

	err := q.QueryRow("SELECT AVG(value), COUNT(*) FROM ratings WHERE product_id = ?", productID).Scan(&avg, &count)
	if err != nil {
		return nil, 0, err
	}
	if !avg.Valid {
		// AVG over zero rows is NULL - an unrated product, not an error.
		return nil, 0, nil
	}
	return &avg.Float64, count, nil
}

type RateProductInput struct {
	ProductID int64   `json:"productId" binding:"required"`
	Value     int     `json:"value" binding:"required,min=1,max=5"`
	Comment   *string `json:"comment"`
}

// RateProduct is the handler for POST /v1/ratings.
// One rating per (user, product): a repeat POST updates the existing row.
func (h *Handlers) RateProduct(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input RateProductInput
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

	// 2. --- Create or Update ---
	now := time.Now()
	var ratingID int64
	err = h.DB.QueryRow("SELECT id FROM ratings WHERE user_id = ? AND product_id = ?", userID, input.ProductID).Scan(&ratingID)
	switch {
	case err == sql.ErrNoRows:
		result, err := h.DB.Exec(`
			INSERT INTO ratings (user_id, product_id, value, comment, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, input.ProductID, input.Value, input.Comment, now, now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to save rating"})
			return
		}
		ratingID, _ = result.LastInsertId()
		c.JSON(http.StatusCreated, gin.H{"ratingId": ratingID})
		return

	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking rating"})
		return
	}

	if _, err := h.DB.Exec("UPDATE ratings SET value = ?, comment = ?, updated_at = ? WHERE id = ?",
		input.Value, input.Comment, now, ratingID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to update rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratingId": ratingID})
}

// RemoveRating is the handler for DELETE /v1/ratings/:product_id.
// Removes the caller's own rating for that product.
func (h *Handlers) RemoveRating(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	productIDStr := c.Param("product_id")

	result, err := h.DB.Exec("DELETE FROM ratings WHERE user_id = ? AND product_id = ?", userID, productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to remove rating"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You have not rated this product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating removed"})
}

// GetProductRatings is the handler for GET /v1/products/:id/ratings (public).
// Returns the rating list with reviewer names, newest first.
func (h *Handlers) GetProductRatings(c *gin.Context) {
	productIDStr := c.Param("id")

	query := `
		SELECT r.id, r.user_id, r.product_id, r.value, r.comment, r.created_at, r.updated_at,
			u.display_name
		FROM ratings r
		JOIN users u ON r.user_id = u.id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC`

	rows, err := h.DB.Query(query, productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	ratings := []*models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.ProductID,
			&r.Value,
			&r.Comment,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.UserName,
		); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan rating row"})
			return
		}
		ratings = append(ratings, &r)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating rating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
