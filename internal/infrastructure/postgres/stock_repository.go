package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

var stockTable = tableDef[entity.StockEntry]{
	name: "stock",
	cols: []string{"product_id", "quantity", "minimum_quantity", "location"},
	fields: func(s *entity.StockEntry) []any {
		return []any{&s.ProductID, &s.Quantity, &s.MinimumQuantity, &s.Location}
	},
	values: func(s *entity.StockEntry) []any {
		return []any{s.ProductID, s.Quantity, s.MinimumQuantity, s.Location}
	},
}

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	recordTable[entity.StockEntry, *entity.StockEntry]
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{newRecordTable[entity.StockEntry, *entity.StockEntry](q, stockTable)}
}

// GetByProductID obtiene el stock de un producto; nil, nil si no tiene registro.
func (r *StockRepo) GetByProductID(ctx context.Context, productID string) (*entity.StockEntry, error) {
	return r.getByProduct(ctx, productID, "")
}

// GetByProductIDForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.StockEntry, error) {
	return r.getByProduct(ctx, productID, " FOR UPDATE")
}

func (r *StockRepo) getByProduct(ctx context.Context, productID, suffix string) (*entity.StockEntry, error) {
	row := r.q.QueryRow(ctx, r.def.selectSQL()+" WHERE product_id = $1"+suffix, productID)
	s, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock", err)
	}
	return s, nil
}
