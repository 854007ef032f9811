package dto

import "time"

// SetStockRequest fija cantidad y mínimo absolutos.
type SetStockRequest struct {
	Quantity        int    `json:"quantity" validate:"min=0"`
	MinimumQuantity int    `json:"minimum_quantity" validate:"min=0"`
	Location        string `json:"location" validate:"max=100"`
}

// AdjustStockRequest suma Delta (positivo o negativo) a la cantidad actual.
type AdjustStockRequest struct {
	Delta           int     `json:"delta" validate:"ne=0"`
	MinimumQuantity *int    `json:"minimum_quantity" validate:"omitempty,min=0"`
	Location        *string `json:"location" validate:"omitempty,max=100"`
}

// StockCategoryDTO datos de presentación de la categoría en el listado de stock.
type StockCategoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// StockResponse estado de stock de un producto. Category y UnitsSold solo vienen en el listado.
type StockResponse struct {
	ProductID       string            `json:"product_id"`
	ProductName     string            `json:"product_name,omitempty"`
	Category        *StockCategoryDTO `json:"category,omitempty"`
	Quantity        int               `json:"quantity"`
	MinimumQuantity int               `json:"minimum_quantity"`
	Location        string            `json:"location,omitempty"`
	Status          string            `json:"status"`
	StatusLabel     string            `json:"status_label"`
	UnitsSold       int               `json:"units_sold"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"` // nil si el producto no tiene registro
}
