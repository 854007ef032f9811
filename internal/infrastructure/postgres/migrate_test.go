package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

func TestMigrations_Restricciones(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/00001_create_records.sql")
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"-- +goose Up",
		"product_id       TEXT NOT NULL UNIQUE",
		"CHECK (quantity >= 0)",
		"CHECK (quantity > 0)",
		"REFERENCES sales(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS stock",
	} {
		assert.True(t, strings.Contains(content, sub), "falta %q", sub)
	}
}

func TestTableDefs_ColumnasYValoresAlineados(t *testing.T) {
	assert.Len(t, customerTable.fields(new(entity.Customer)), len(customerTable.cols))
	assert.Len(t, customerTable.values(new(entity.Customer)), len(customerTable.cols))
	assert.Len(t, categoryTable.fields(new(entity.Category)), len(categoryTable.cols))
	assert.Len(t, productTable.fields(new(entity.Product)), len(productTable.cols))
	assert.Len(t, productTable.values(new(entity.Product)), len(productTable.cols))
	assert.Len(t, stockTable.fields(new(entity.StockEntry)), len(stockTable.cols))
	assert.Len(t, saleTable.fields(new(entity.Sale)), len(saleTable.cols))
	assert.Len(t, saleItemTable.values(new(entity.SaleItem)), len(saleItemTable.cols))
}

func TestSelectSQL(t *testing.T) {
	assert.Equal(t,
		"SELECT id, created_at, updated_at, active, product_id, quantity, minimum_quantity, location FROM stock",
		stockTable.selectSQL())
	assert.Equal(t, "$3, $4, $5", placeholders(3, 3))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x`, escapeLike("50% _x"))
}
