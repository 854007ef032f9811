package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Tipos de venta.
const (
	SaleTypeNormal = "normal"
	SaleTypeQuick  = "quick" // una sola línea, sin cliente
)

// Sale representa la cabecera de una venta.
// Para ventas completadas Total es igual a la suma exacta de los Subtotal de sus ítems.
type Sale struct {
	Meta
	CustomerID string // vacío = venta sin cliente
	SoldAt     time.Time
	Total      decimal.Decimal
	Status     string
	Type       string
}
