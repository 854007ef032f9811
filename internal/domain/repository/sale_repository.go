package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale.
type SaleRepository interface {
	Store[*entity.Sale]
}

// SaleItemRepository define el puerto de persistencia para las líneas de venta.
type SaleItemRepository interface {
	Store[*entity.SaleItem]
	ListBySale(ctx context.Context, saleID string) ([]*entity.SaleItem, error)
}
