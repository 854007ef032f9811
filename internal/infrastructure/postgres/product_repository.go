package postgres

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

var productTable = tableDef[entity.Product]{
	name: "products",
	cols: []string{"name", "description", "price", "category_id", "barcode", "image_ref"},
	fields: func(p *entity.Product) []any {
		return []any{&p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Barcode, &p.ImageRef}
	},
	values: func(p *entity.Product) []any {
		return []any{p.Name, p.Description, p.Price, p.CategoryID, p.Barcode, p.ImageRef}
	},
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	recordTable[entity.Product, *entity.Product]
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{newRecordTable[entity.Product, *entity.Product](q, productTable)}
}

// ListByCategory productos activos de una categoría.
func (r *ProductRepo) ListByCategory(ctx context.Context, categoryID string) ([]*entity.Product, error) {
	return r.query(ctx, "list products by category", " WHERE active AND category_id = $1 ORDER BY created_at, id", categoryID)
}
