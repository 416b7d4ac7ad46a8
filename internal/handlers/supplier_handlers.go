package handlers

import (
	"database/sql"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Supplier Application ---
//

// getSupplierByUserID loads the supplier row for a user.
// Returns sql.ErrNoRows when the user never applied.
func (h *Handlers) getSupplierByUserID(q Querier, userID int64) (*models.Supplier, error) {
	var s models.Supplier
	query := `
		SELECT id, user_id, business_name, business_document_url, location_name,
			latitude, longitude, verified, verified_date, created_at, updated_at
		FROM suppliers
		WHERE user_id = ?`
	err := q.QueryRow(query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.BusinessName,
		&s.BusinessDocumentURL,
		&s.LocationName,
		&s.Latitude,
		&s.Longitude,
		&s.Verified,
		&s.VerifiedDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// parseCoord parses the string coordinates the geocoder returns.
func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ApplySupplierInput carries the multipart form fields for POST /v1/supplier/apply.
// The business document arrives as the "document" file field.
type ApplySupplierInput struct {
	BusinessName string   `form:"businessName" binding:"required"`
	LocationName string   `form:"locationName" binding:"required"`
	Latitude     *float64 `form:"latitude"`
	Longitude    *float64 `form:"longitude"`
}

// ApplySupplier is the handler for POST /v1/supplier/apply.
// The new supplier starts unverified and waits for an admin.
func (h *Handlers) ApplySupplier(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	// 1. --- Bind Form Fields ---
	var input ApplySupplierInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 2. --- One Application per User ---
	if _, err := h.getSupplierByUserID(h.DB, userID); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You have already applied as a supplier"})
		return
	} else if err != sql.ErrNoRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking application"})
		return
	}

	// 3. --- Resolve Coordinates ---
	// When the client sends no coordinates, resolve the free-text location
	// through the geocoding proxy. Best effort: an unresolvable address is
	// stored without coordinates, it does not block the application.
	lat, lng := input.Latitude, input.Longitude
	if (lat == nil || lng == nil) && h.Geo != nil {
		if places, err := h.Geo.Search(c.Request.Context(), input.LocationName); err == nil && len(places) > 0 {
			if p, errLat := parseCoord(places[0].Lat); errLat == nil {
				lat = &p
			}
			if p, errLon := parseCoord(places[0].Lon); errLon == nil {
				lng = &p
			}
		}
	}

	// 4. --- Store the Business Document ---
	var documentURL *string
	if file, err := c.FormFile("document"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to read document"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to read document"})
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		url, err := h.Storage.Save(data, ext)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to store document"})
			return
		}
		documentURL = &url
	}

	// 5. --- Insert the Pending Supplier ---
	now := time.Now()
	query := `
		INSERT INTO suppliers
		(user_id, business_name, business_document_url, location_name, latitude, longitude,
		 verified, verified_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, NULL, ?, ?)`
	result, err := h.DB.Exec(query, userID, input.BusinessName, documentURL, input.LocationName, lat, lng, now, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create supplier application"})
		return
	}
	supplierID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Application submitted and pending verification",
		"supplierId": supplierID,
	})
}

//
// --- Admin: Supplier Verification ---
//

// GetPendingSuppliers is the handler for GET /v1/admin/suppliers/pending.
func (h *Handlers) GetPendingSuppliers(c *gin.Context) {
	query := `
		SELECT id, user_id, business_name, business_document_url, location_name,
			latitude, longitude, verified, verified_date, created_at, updated_at
		FROM suppliers
		WHERE verified = FALSE
		ORDER BY created_at ASC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.BusinessName,
			&s.BusinessDocumentURL,
			&s.LocationName,
			&s.Latitude,
			&s.Longitude,
			&s.Verified,
			&s.VerifiedDate,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan supplier row"})
			return
		}
		suppliers = append(suppliers, &s)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating supplier rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

// VerifySupplier is the handler for PATCH /v1/admin/suppliers/:id/verify.
// verified and verified_date are always set in the same UPDATE.
func (h *Handlers) VerifySupplier(c *gin.Context) {
	supplierIDStr := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE suppliers
		SET verified = TRUE, verified_date = ?, updated_at = ?
		WHERE id = ? AND verified = FALSE`
	result, err := tx.Exec(query, now, now, supplierIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to verify supplier"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Supplier not found or already verified"})
		return
	}

	// Notify the owner inside the same transaction.
	var ownerID int64
	if err := tx.QueryRow("SELECT user_id FROM suppliers WHERE id = ?", supplierIDStr).Scan(&ownerID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to find supplier owner"})
		return
	}
	if err := h.AddNotification(tx, ownerID, "Your supplier application has been approved. You can now list products.", "/supplier/dashboard"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Supplier verified successfully"})
}

// RejectSupplierInput carries the rejection reason.
type RejectSupplierInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectSupplier is the handler for PATCH /v1/admin/suppliers/:id/reject.
// The application row is removed so the user can re-apply.
func (h *Handlers) RejectSupplier(c *gin.Context) {
	supplierIDStr := c.Param("id")

	var input RejectSupplierInput
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
	err = tx.QueryRow("SELECT user_id FROM suppliers WHERE id = ? AND verified = FALSE", supplierIDStr).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Supplier not found or already verified"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking supplier"})
		return
	}

	if _, err := tx.Exec("DELETE FROM suppliers WHERE id = ?", supplierIDStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to reject supplier"})
		return
	}

	if err := h.AddNotification(tx, ownerID, "Your supplier application was rejected: "+input.Reason, ""); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Supplier application rejected"})
}
