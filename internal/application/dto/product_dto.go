package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El registro de stock se crea en la misma transacción.
type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      string          `json:"category_id"`
	Barcode         string          `json:"barcode" validate:"max=64"`
	ImageRef        string          `json:"image_ref"`
	InitialQuantity int             `json:"initial_quantity" validate:"min=0"`
	MinimumQuantity int             `json:"minimum_quantity" validate:"min=0"`
	Location        string          `json:"location" validate:"max=100"`
}

// UpdateProductRequest entrada para actualizar un producto (el stock se maneja en /api/stock).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=64"`
	ImageRef    *string          `json:"image_ref"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	ImageRef    string          `json:"image_ref,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
