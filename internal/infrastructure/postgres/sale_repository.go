package postgres

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository     = (*SaleRepo)(nil)
	_ repository.SaleItemRepository = (*SaleItemRepo)(nil)
)

var saleTable = tableDef[entity.Sale]{
	name: "sales",
	cols: []string{"customer_id", "sold_at", "total", "status", "type"},
	fields: func(s *entity.Sale) []any {
		return []any{&s.CustomerID, &s.SoldAt, &s.Total, &s.Status, &s.Type}
	},
	values: func(s *entity.Sale) []any {
		return []any{s.CustomerID, s.SoldAt, s.Total, s.Status, s.Type}
	},
}

var saleItemTable = tableDef[entity.SaleItem]{
	name: "sale_items",
	cols: []string{"sale_id", "product_id", "quantity", "unit_price", "subtotal"},
	fields: func(i *entity.SaleItem) []any {
		return []any{&i.SaleID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.Subtotal}
	},
	values: func(i *entity.SaleItem) []any {
		return []any{i.SaleID, i.ProductID, i.Quantity, i.UnitPrice, i.Subtotal}
	},
}

// SaleRepo cabeceras de venta.
type SaleRepo struct {
	recordTable[entity.Sale, *entity.Sale]
}

func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{newRecordTable[entity.Sale, *entity.Sale](q, saleTable)}
}

// SaleItemRepo líneas de venta.
type SaleItemRepo struct {
	recordTable[entity.SaleItem, *entity.SaleItem]
}

func NewSaleItemRepository(q Querier) *SaleItemRepo {
	return &SaleItemRepo{newRecordTable[entity.SaleItem, *entity.SaleItem](q, saleItemTable)}
}

// ListBySale líneas de una venta en orden de creación.
func (r *SaleItemRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	return r.query(ctx, "list sale items", " WHERE sale_id = $1 ORDER BY created_at, id", saleID)
}
