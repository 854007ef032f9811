package entity

// StockEntry representa el stock actual de un producto (a lo sumo uno por producto).
// La ausencia de registro equivale a cantidad 0.
type StockEntry struct {
	Meta
	ProductID       string
	Quantity        int // nunca negativo
	MinimumQuantity int // umbral de stock bajo, >= 0
	Location        string
}
