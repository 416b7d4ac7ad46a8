package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/images"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

//
// --- Supplier: Product CRUD ---
//

// CreateProductInput carries the multipart form fields for POST /v1/supplier/products.
// The product image arrives as the "image" file field.
type CreateProductInput struct {
	Name        string  `form:"name" binding:"required"`
	Description string  `form:"description" binding:"required"`
	Price       float64 `form:"price" binding:"required,gt=0"`
}

// uniqueProductSlug builds a slug for the product name, suffixed with a
// counter when the name is already taken.
func (h *Handlers) uniqueProductSlug(q Querier, name string) (string, error) {
	base := slug.Make(name)

	var count int
	if err := q.QueryRow("SELECT COUNT(*) FROM products WHERE slug = ? OR slug LIKE ?", base, base+"-%").Scan(&count); err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}

// CreateProduct is the handler for POST /v1/supplier/products.
// The uploaded image is resized to 800px width / JPEG q80 before storage.
// New products start unverified and wait for an admin.
func (h *Handlers) CreateProduct(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)

	// 1. --- Bind Form Fields ---
	var input CreateProductInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 2. --- Image Pipeline ---
	var imageURL *string
	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to read image"})
			return
		}
		defer src.Close()

		resized, err := images.ResizeForUpload(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Uploaded file is not a valid image"})
			return
		}

		url, err := h.Storage.Save(resized, ".jpg")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to store image"})
			return
		}
		imageURL = &url
	}

	// 3. --- Insert Product ---
	productSlug, err := h.uniqueProductSlug(h.DB, input.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to build product slug"})
		return
	}

	now := time.Now()
	query := `
		INSERT INTO products
		(supplier_id, name, slug, description, price, image_url, verified, verified_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, NULL, ?, ?)`
	result, err := h.DB.Exec(query, supplierID, input.Name, productSlug, input.Description, input.Price, imageURL, now, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to insert product"})
		return
	}
	productID, _ := result.LastInsertId()

	// 4. --- Search Index Sync (best effort) ---
	product := &models.Product{
		ID:          productID,
		SupplierID:  supplierID,
		Name:        input.Name,
		Slug:        productSlug,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Search.Upsert(c.Request.Context(), product); err != nil {
		log.Printf("search sync failed for product %d: %v", productID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Product submitted and pending verification",
		"productId": productID,
	})
}

// UpdateProductInput uses pointers so only the provided fields are updated.
type UpdateProductInput struct {
	Name        *string  `form:"name"`
	Description *string  `form:"description"`
	Price       *float64 `form:"price" binding:"omitempty,gt=0"`
}

// UpdateProduct is the handler for PATCH /v1/supplier/products/:id.
// An optional new "image" file re-runs the resize pipeline.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)
	productIDStr := c.Param("id")

	// 1. --- Ownership Check ---
	var productID int64
	err := h.DB.QueryRow("SELECT id FROM products WHERE id = ? AND supplier_id = ?", productIDStr, supplierID).Scan(&productID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found or you do not have permission to edit it"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking ownership"})
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 2. --- Optional New Image ---
	var imageURL *string
	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to read image"})
			return
		}
		defer src.Close()

		resized, err := images.ResizeForUpload(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Uploaded file is not a valid image"})
			return
		}
		url, err := h.Storage.Save(resized, ".jpg")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to store image"})
			return
		}
		imageURL = &url
	}

	// 3. --- Dynamically Build UPDATE Query ---
	querySet := "updated_at = ?"
	queryArgs := []interface{}{time.Now()}

	if input.Name != nil {
		querySet += ", name = ?"
		queryArgs = append(queryArgs, *input.Name)
	}
	if input.Description != nil {
		querySet += ", description = ?"
		queryArgs = append(queryArgs, *input.Description)
	}
	if input.Price != nil {
		querySet += ", price = ?"
		queryArgs = append(queryArgs, *input.Price)
	}
	if imageURL != nil {
		querySet += ", image_url = ?"
		queryArgs = append(queryArgs, *imageURL)
	}

	queryArgs = append(queryArgs, productID)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", querySet)

	if _, err := h.DB.Exec(query, queryArgs...); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to update product"})
		return
	}

	// 4. --- Re-sync the Search Index (best effort) ---
	if product, err := h.getProductByID(h.DB, productID); err == nil {
		if err := h.Search.Upsert(c.Request.Context(), product); err != nil {
			log.Printf("search sync failed for product %d: %v", productID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully"})
}

// DeleteProduct is the handler for DELETE /v1/supplier/products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)
	productIDStr := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM products WHERE id = ? AND supplier_id = ?", productIDStr, supplierID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to delete product"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found or you do not have permission to delete it"})
		return
	}

	productID, _ := strconv.ParseInt(productIDStr, 10, 64)
	if err := h.Search.Delete(c.Request.Context(), productID); err != nil {
		log.Printf("search sync delete failed for product %s: %v", productIDStr, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetMyProducts is the handler for GET /v1/supplier/products.
// Suppliers see their own products in every verification state.
func (h *Handlers) GetMyProducts(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)

	query := `
		SELECT id, supplier_id, name, slug, description, price, image_url,
			verified, verified_date, created_at, updated_at
		FROM products
		WHERE supplier_id = ?
		ORDER BY created_at DESC`

	products, err := h.scanProducts(h.DB.Query(query, supplierID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

//
// --- Public: Search & Detail ---
//

// SearchProducts is the handler for GET /v1/products/search (public).
// Only verified products are visible.
func (h *Handlers) SearchProducts(c *gin.Context) {
	q := c.Query("q")
	supplierID := c.Query("supplier")
	minPrice := c.Query("min_price")
	maxPrice := c.Query("max_price")

	var queryBuilder strings.Builder
	var args []interface{}

	queryBuilder.WriteString(`
		SELECT p.id, p.supplier_id, p.name, p.slug, p.description, p.price, p.image_url,
			p.verified, p.verified_date, p.created_at, p.updated_at
		FROM products p
		WHERE p.verified = TRUE`)

	if supplierID != "" {
		queryBuilder.WriteString(" AND p.supplier_id = ?")
		args = append(args, supplierID)
	}
	if minPrice != "" {
		queryBuilder.WriteString(" AND p.price >= ?")
		args = append(args, minPrice)
	}
	if maxPrice != "" {
		queryBuilder.WriteString(" AND p.price <= ?")
		args = append(args, maxPrice)
	}
	if q != "" {
		queryBuilder.WriteString(" AND (p.name LIKE ? OR p.description LIKE ?)")
		searchTerm := "%" + q + "%"
		args = append(args, searchTerm, searchTerm)
	}

	queryBuilder.WriteString(" ORDER BY p.created_at DESC")

	products, err := h.scanProducts(h.DB.Query(queryBuilder.String(), args...))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct is the handler for GET /v1/products/:id (public).
// Joins the supplier name and attaches the rating summary.
func (h *Handlers) GetProduct(c *gin.Context) {
	productIDStr := c.Param("id")

	var p models.Product
	query := `
		SELECT p.id, p.supplier_id, p.name, p.slug, p.description, p.price, p.image_url,
			p.verified, p.verified_date, p.created_at, p.updated_at,
			s.business_name
		FROM products p
		JOIN suppliers s ON p.supplier_id = s.id
		WHERE p.id = ?`
	err := h.DB.QueryRow(query, productIDStr).Scan(
		&p.ID,
		&p.SupplierID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Verified,
		&p.VerifiedDate,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.SupplierName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error"})
		return
	}

	avg, count, err := h.getRatingSummary(h.DB, p.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to load rating summary"})
		return
	}
	p.AverageRating = avg
	p.RatingCount = count

	c.JSON(http.StatusOK, gin.H{"product": p})
}

//
// --- Admin: Product Verification ---
//

// GetPendingProducts is the handler for GET /v1/admin/products/pending.
func (h *Handlers) GetPendingProducts(c *gin.Context) {
	query := `
		SELECT id, supplier_id, name, slug, description, price, image_url,
			verified, verified_date, created_at, updated_at
		FROM products
		WHERE verified = FALSE
		ORDER BY created_at ASC`

	products, err := h.scanProducts(h.DB.Query(query))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// VerifyProduct is the handler for PATCH /v1/admin/products/:id/verify.
// verified and verified_date are always set in the same UPDATE.
func (h *Handlers) VerifyProduct(c *gin.Context) {
	productIDStr := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE products
		SET verified = TRUE, verified_date = ?, updated_at = ?
		WHERE id = ? AND verified = FALSE`
	result, err := tx.Exec(query, now, now, productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to verify product"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found or already verified"})
		return
	}

	// Notify the supplier's user inside the same transaction.
	var ownerID int64
	var productName string
	err = tx.QueryRow(`
		SELECT s.user_id, p.name
		FROM products p
		JOIN suppliers s ON p.supplier_id = s.id
		WHERE p.id = ?`, productIDStr).Scan(&ownerID, &productName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to find product owner"})
		return
	}
	link := "/products/" + productIDStr
	if err := h.AddNotification(tx, ownerID, fmt.Sprintf("Your product %q is now live.", productName), link); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product verified successfully"})
}

// RejectProductInput carries the rejection reason.
type RejectProductInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectProduct is the handler for PATCH /v1/admin/products/:id/reject.
// The listing is removed and the supplier is told why.
func (h *Handlers) RejectProduct(c *gin.Context) {
	productIDStr := c.Param("id")

	var input RejectProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var ownerID int64
	var productName string
	err = tx.QueryRow(`
		SELECT s.user_id, p.name
		FROM products p
		JOIN suppliers s ON p.supplier_id = s.id
		WHERE p.id = ? AND p.verified = FALSE`, productIDStr).Scan(&ownerID, &productName)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found or already verified"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking product"})
		return
	}

	if _, err := tx.Exec("DELETE FROM products WHERE id = ?", productIDStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to reject product"})
		return
	}

	message := fmt.Sprintf("Your product %q was rejected: %s", productName, input.Reason)
	if err := h.AddNotification(tx, ownerID, message, ""); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product rejected"})
}

//
// --- Image Crop ---
//

// CropImageInput describes the crop rectangle (in rotated-canvas pixels)
// and the rotation in degrees.
type CropImageInput struct {
	X      int     `json:"x" binding:"gte=0"`
	Y      int     `json:"y" binding:"gte=0"`
	Width  int     `json:"width" binding:"required,gt=0"`
	Height int     `json:"height" binding:"required,gt=0"`
	Angle  float64 `json:"angle"`
}

// CropProductImage is the handler for POST /v1/supplier/products/:id/crop.
// It rewrites the stored product image with the cropped/rotated version.
func (h *Handlers) CropProductImage(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)
	productIDStr := c.Param("id")

	var input CropImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 1. --- Ownership Check & Current Image ---
	var productID int64
	var imageURL sql.NullString
	err := h.DB.QueryRow("SELECT id, image_url FROM products WHERE id = ? AND supplier_id = ?", productIDStr, supplierID).Scan(&productID, &imageURL)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product not found or you do not have permission to edit it"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking ownership"})
		return
	}
	if !imageURL.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Product has no image to crop"})
		return
	}

	// 2. --- Transform ---
	original, err := h.Storage.Read(imageURL.String)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to load stored image"})
		return
	}

	rect := image.Rect(input.X, input.Y, input.X+input.Width, input.Y+input.Height)
	cropped, err := images.CropRotate(bytes.NewReader(original), rect, input.Angle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	newURL, err := h.Storage.Save(cropped, ".jpg")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to store cropped image"})
		return
	}

	// 3. --- Persist the New URL ---
	if _, err := h.DB.Exec("UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?", newURL, time.Now(), productID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to update product image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": newURL})
}

//
// --- Shared Product Helpers ---
//

// getProductByID loads one product row with its supplier name.
func (h *Handlers) getProductByID(q Querier, productID int64) (*models.Product, error) {
	var p models.Product
	query := `
		SELECT p.id, p.supplier_id, p.name, p.slug, p.description, p.price, p.image_url,
			p.verified, p.verified_date, p.created_at, p.updated_at,
			s.business_name
		FROM products p
		JOIN suppliers s ON p.supplier_id = s.id
		WHERE p.id = ?`
	err := q.QueryRow(query, productID).Scan(
		&p.ID,
		&p.SupplierID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Verified,
		&p.VerifiedDate,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.SupplierName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanProducts drains a product rowset using the standard column order.
func (h *Handlers) scanProducts(rows *sql.Rows, queryErr error) ([]*models.Product, error) {
	if queryErr != nil {
		return nil, queryErr
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID,
			&p.SupplierID,
			&p.Name,
			&p.Slug,
			&p.Description,
			&p.Price,
			&p.ImageURL,
			&p.Verified,
			&p.VerifiedDate,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
