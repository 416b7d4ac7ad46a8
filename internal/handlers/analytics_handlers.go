package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/analytics"
	"github.com/gin-gonic/gin"
)

//
// --- Analytics (Supplier & Admin) ---
//

// GetMySalesAnalytics is the handler for GET /v1/supplier/sales-analytics.
// Every sales report of the supplier becomes one record dated at its report
// date, bucketed into daily, weekly, monthly and yearly series.
func (h *Handlers) GetMySalesAnalytics(c *gin.Context) {
	supplierIDRaw, _ := c.Get("supplierID")
	supplierID := supplierIDRaw.(int64)

	rows, err := h.DB.Query("SELECT report_date, total_amount FROM sales_reports WHERE supplier_id = ?", supplierID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	records := []analytics.Record{}
	for rows.Next() {
		var rec analytics.Record
		if err := rows.Scan(&rec.Date, &rec.Amount); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan report row"})
			return
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating report rows"})
		return
	}

	series := analytics.BucketAll(records)
	c.JSON(http.StatusOK, gin.H{
		"daily":   series.Daily,
		"weekly":  series.Weekly,
		"monthly": series.Monthly,
		"yearly":  series.Yearly,
	})
}

// parseRange reads the ?range=<from>,<to> query parameter (YYYY-MM-DD dates,
// inclusive). A missing parameter defaults to the last 30 days.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	rangeParam := c.Query("range")
	if rangeParam == "" {
		to := time.Now()
		return to.AddDate(0, 0, -30), to, true
	}

	parts := strings.SplitN(rangeParam, ",", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	// Make the end of the range inclusive of the whole day.
	to = to.AddDate(0, 0, 1).Add(-time.Second)
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// dailyCounts buckets creation timestamps from the given table into daily
// buckets where the amount is the row count.
func (h *Handlers) dailyCounts(c *gin.Context, table string) {
	from, to, ok := parseRange(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid range, expected range=YYYY-MM-DD,YYYY-MM-DD"})
		return
	}

	rows, err := h.DB.Query("SELECT created_at FROM "+table+" WHERE created_at BETWEEN ? AND ?", from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	records := []analytics.Record{}
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan row"})
			return
		}
		records = append(records, analytics.Record{Date: createdAt, Amount: 1})
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily": analytics.BucketDaily(records)})
}

// GetNewUserAnalytics is the handler for GET /v1/admin/analytics/new-users.
func (h *Handlers) GetNewUserAnalytics(c *gin.Context) {
	h.dailyCounts(c, "users")
}

// GetNewSupplierAnalytics is the handler for GET /v1/admin/analytics/new-suppliers.
func (h *Handlers) GetNewSupplierAnalytics(c *gin.Context) {
	h.dailyCounts(c, "suppliers")
}

// GetNewProductAnalytics is the handler for GET /v1/admin/analytics/new-products.
func (h *Handlers) GetNewProductAnalytics(c *gin.Context) {
	h.dailyCounts(c, "products")
}

type topSupplierRow struct {
	SupplierID   int64   `json:"supplierId"`
	BusinessName string  `json:"businessName"`
	TotalSales   float64 `json:"totalSales"`
	ReportCount  int     `json:"reportCount"`
}

// GetTopSuppliers is the handler for GET /v1/admin/analytics/top-suppliers.
// Suppliers are ranked by the sales total they reported inside the range.
func (h *Handlers) GetTopSuppliers(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid range, expected range=YYYY-MM-DD,YYYY-MM-DD"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT s.id, s.business_name, COALESCE(SUM(r.total_amount), 0), COUNT(r.id)
		FROM suppliers s
		JOIN sales_reports r ON r.supplier_id = s.id
		WHERE r.report_date BETWEEN ? AND ?
		GROUP BY s.id, s.business_name
		ORDER BY SUM(r.total_amount) DESC
		LIMIT 10`, from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	top := []topSupplierRow{}
	for rows.Next() {
		var row topSupplierRow
		if err := rows.Scan(&row.SupplierID, &row.BusinessName, &row.TotalSales, &row.ReportCount); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan supplier row"})
			return
		}
		top = append(top, row)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating supplier rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"topSuppliers": top})
}
