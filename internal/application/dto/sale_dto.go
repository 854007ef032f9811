package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest una línea de venta. UnitPrice omitido usa el precio de lista.
type SaleLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest venta de varias líneas. CustomerID vacío = consumidor final.
type CreateSaleRequest struct {
	CustomerID string            `json:"customer_id"`
	Lines      []SaleLineRequest `json:"lines" validate:"dive"`
}

// QuickSaleRequest venta rápida de un solo producto al precio de lista.
type QuickSaleRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse cabecera de venta; Items solo en el detalle.
type SaleResponse struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id,omitempty"`
	SoldAt     time.Time          `json:"sold_at"`
	Total      decimal.Decimal    `json:"total"`
	Status     string             `json:"status"`
	Type       string             `json:"type"`
	Items      []SaleItemResponse `json:"items,omitempty"`
}
