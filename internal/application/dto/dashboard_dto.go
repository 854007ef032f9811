package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard.
type DashboardSummaryDTO struct {
	TotalSales       int             `json:"total_sales"`
	CompletedRevenue decimal.Decimal `json:"completed_revenue"`
	TotalProducts    int             `json:"total_products"`
	TotalCustomers   int             `json:"total_customers"`
	StockUnits       int             `json:"stock_units"`
	StockByStatus    map[string]int  `json:"stock_by_status"` // out, low, watch, ok
	TopProducts      []TopProductDTO `json:"top_products"`
}

// TopProductDTO producto más vendido (solo ventas completadas).
type TopProductDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}
