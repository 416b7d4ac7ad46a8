package handlers

import (
	"database/sql"
	"math"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Sales Reports (Supplier) ---
//

type SalesReportItemInput struct {
	ProductID  int64   `json:"productId" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice  float64 `json:"unitPrice" binding:"required,gt=0"`
	TotalPrice float64 `json:"totalPrice" binding:"required,gt=0"`
}

type CreateSalesReportInput struct {
	ReportDate  string                 `json:"reportDate" binding:"required"` // YYYY-MM-DD
	TotalAmount float64                `json:"totalAmount" binding:"required,gt=0"`
	Items       []SalesReportItemInput `json:"items" binding:"required,min=1,dive"`
}

const moneyEpsilon = 0.005 // half a centavo; line math is done client-side in floats

// validateReportTotals checks every line's TotalPrice against its quantity and
// unit price, and the report total against the sum of lines.
func validateReportTotals(totalAmount float64, items []SalesReportItemInput) string {
	var sum float64
	for _, item := range items {
		expected := float64(item.Quantity) * item.UnitPrice
		if math.Abs(item.TotalPrice-expected) > moneyEpsilon {
			return "Item total does not match quantity times unit price"
		}
		sum += item.TotalPrice
	}
	if math.Abs(totalAmount-sum) > moneyEpsilon {
		return "Report total does not match the sum of its items"
	}
	return ""
}

// CreateSalesReport is the handler for POST /v1/supplier/sales-reports.
func (h *Handlers) CreateSalesReport(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)

	// 1. --- Bind & Validate JSON ---
	var input CreateSalesReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	reportDate, err := time.Parse("2006-01-02", input.ReportDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid report date, expected YYYY-MM-DD"})
		return
	}

	if msg := validateReportTotals(input.TotalAmount, input.Items); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": msg})
		return
	}

	// 2. --- Every Line Must Reference One of Our Products ---
	for _, item := range input.Items {
		var count int
		err := h.DB.QueryRow("SELECT COUNT(*) FROM products WHERE id = ? AND supplier_id = ?", item.ProductID, supplierID).Scan(&count)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking products"})
			return
		}
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Report references a product that is not yours"})
			return
		}
	}

	// 3. --- Insert Report + Items in One Transaction ---
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO sales_reports (supplier_id, report_date, total_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		supplierID, reportDate, input.TotalAmount, now, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create sales report"})
		return
	}
	reportID, _ := result.LastInsertId()

	if err := insertReportItems(tx, reportID, input.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to save report items"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reportId": reportID})
}

func insertReportItems(tx *sql.Tx, reportID int64, items []SalesReportItemInput) error {
	for _, item := range items {
		_, err := tx.Exec(`
			INSERT INTO sales_report_items (sales_report_id, product_id, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?)`,
			reportID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

type UpdateSalesReportInput struct {
	ReportDate  string                 `json:"reportDate" binding:"required"`
	TotalAmount float64                `json:"totalAmount" binding:"required,gt=0"`
	Items       []SalesReportItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateSalesReport is the handler for PATCH /v1/supplier/sales-reports/:id.
// Items are replaced wholesale, not merged.
func (h *Handlers) UpdateSalesReport(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)
	reportIDStr := c.Param("id")

	var input UpdateSalesReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	reportDate, err := time.Parse("2006-01-02", input.ReportDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid report date, expected YYYY-MM-DD"})
		return
	}

	if msg := validateReportTotals(input.TotalAmount, input.Items); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": msg})
		return
	}

	var reportID int64
	err = h.DB.QueryRow("SELECT id FROM sales_reports WHERE id = ? AND supplier_id = ?", reportIDStr, supplierID).Scan(&reportID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Sales report not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error"})
		return
	}

	for _, item := range input.Items {
		var count int
		err := h.DB.QueryRow("SELECT COUNT(*) FROM products WHERE id = ? AND supplier_id = ?", item.ProductID, supplierID).Scan(&count)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking products"})
			return
		}
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Report references a product that is not yours"})
			return
		}
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec("UPDATE sales_reports SET report_date = ?, total_amount = ?, updated_at = ? WHERE id = ?",
		reportDate, input.TotalAmount, time.Now(), reportID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to update sales report"})
		return
	}

	if _, err := tx.Exec("DELETE FROM sales_report_items WHERE sales_report_id = ?", reportID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to clear report items"})
		return
	}

	if err := insertReportItems(tx, reportID, input.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to save report items"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sales report updated"})
}

// DeleteSalesReport is the handler for DELETE /v1/supplier/sales-reports/:id.
func (h *Handlers) DeleteSalesReport(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)
	reportIDStr := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE i FROM sales_report_items i
		JOIN sales_reports r ON i.sales_report_id = r.id
		WHERE r.id = ? AND r.supplier_id = ?`, reportIDStr, supplierID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to delete report items"})
		return
	}

	result, err := tx.Exec("DELETE FROM sales_reports WHERE id = ? AND supplier_id = ?", reportIDStr, supplierID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to delete sales report"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Sales report not found"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sales report deleted"})
}

// GetMySalesReports is the handler for GET /v1/supplier/sales-reports.
// Reports come back newest-dated first with their items joined in.
func (h *Handlers) GetMySalesReports(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)

	rows, err := h.DB.Query(`
		SELECT id, supplier_id, report_date, total_amount, created_at, updated_at
		FROM sales_reports
		WHERE supplier_id = ?
		ORDER BY report_date DESC`, supplierID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	reports := []*models.SalesReport{}
	for rows.Next() {
		var r models.SalesReport
		if err := rows.Scan(&r.ID, &r.SupplierID, &r.ReportDate, &r.TotalAmount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan report row"})
			return
		}
		reports = append(reports, &r)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating report rows"})
		return
	}

	for _, r := range reports {
		items, err := h.getReportItems(r.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to load report items"})
			return
		}
		r.Items = items
	}

	c.JSON(http.StatusOK, gin.H{"salesReports": reports})
}

func (h *Handlers) getReportItems(reportID int64) ([]*models.SalesReportItem, error) {
	rows, err := h.DB.Query(`
		SELECT i.id, i.sales_report_id, i.product_id, i.quantity, i.unit_price, i.total_price, p.name
		FROM sales_report_items i
		JOIN products p ON i.product_id = p.id
		WHERE i.sales_report_id = ?
		ORDER BY i.id ASC`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.SalesReportItem{}
	for rows.Next() {
		var item models.SalesReportItem
		if err := rows.Scan(&item.ID, &item.SalesReportID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.ProductName); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
