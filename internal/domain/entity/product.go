package entity

import "github.com/shopspring/decimal"

// Product representa un producto del catálogo. El stock vive en StockEntry (uno por producto).
type Product struct {
	Meta
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta, >= 0
	CategoryID  string          // vacío si no tiene categoría
	Barcode     string
	ImageRef    string
}
