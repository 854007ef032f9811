package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Store[*entity.Product]
	ListByCategory(ctx context.Context, categoryID string) ([]*entity.Product, error)
}
