package postgres

import (
	"context"
	"strings"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

var customerTable = tableDef[entity.Customer]{
	name: "customers",
	cols: []string{"name", "email", "phone", "document", "address", "city", "state", "zip_code"},
	fields: func(c *entity.Customer) []any {
		return []any{&c.Name, &c.Email, &c.Phone, &c.Document, &c.Address, &c.City, &c.State, &c.ZipCode}
	},
	values: func(c *entity.Customer) []any {
		return []any{c.Name, c.Email, c.Phone, c.Document, c.Address, c.City, c.State, c.ZipCode}
	},
}

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	recordTable[entity.Customer, *entity.Customer]
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{newRecordTable[entity.Customer, *entity.Customer](q, customerTable)}
}

// SearchByName busca clientes activos por nombre (sin distinguir mayúsculas).
func (r *CustomerRepo) SearchByName(ctx context.Context, q string) ([]*entity.Customer, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	return r.query(ctx, "search customers", " WHERE active AND name ILIKE $1 ORDER BY name, id", pattern)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
