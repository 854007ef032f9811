package entity

import "github.com/shopspring/decimal"

// SaleItem representa una línea de una venta. Inmutable una vez creada.
type SaleItem struct {
	Meta
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal // Quantity × UnitPrice
}

// ComputeSubtotal devuelve Quantity × UnitPrice.
func (i *SaleItem) ComputeSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
