package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el stock por producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Store[*entity.StockEntry]
	// GetByProductID devuelve nil, nil si el producto no tiene registro de stock.
	GetByProductID(ctx context.Context, productID string) (*entity.StockEntry, error)
	// GetByProductIDForUpdate igual que GetByProductID pero bloquea la fila (SELECT FOR UPDATE) dentro de una tx.
	GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.StockEntry, error)
}
