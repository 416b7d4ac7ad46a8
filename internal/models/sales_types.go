package models

import "time"

// SalesReport is a supplier-submitted batch of sales.
// Invariant: TotalAmount equals the sum of its items' TotalPrice.
type SalesReport struct {
	ID          int64     `json:"id" db:"id"`
	SupplierID  int64     `json:"supplierId" db:"supplier_id"`
	ReportDate  time.Time `json:"reportDate" db:"report_date"`
	TotalAmount float64   `json:"totalAmount" db:"total_amount"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Items []*SalesReportItem `json:"items,omitempty" db:"-"`
}

// SalesReportItem is one product line inside a sales report.
// Invariant: TotalPrice == Quantity * UnitPrice.
type SalesReportItem struct {
	ID            int64   `json:"id" db:"id"`
	SalesReportID int64   `json:"salesReportId" db:"sales_report_id"`
	ProductID     int64   `json:"productId" db:"product_id"`
	Quantity      int     `json:"quantity" db:"quantity"`
	UnitPrice     float64 `json:"unitPrice" db:"unit_price"`
	TotalPrice    float64 `json:"totalPrice" db:"total_price"`

	ProductName string `json:"productName,omitempty" db:"-"`
}
