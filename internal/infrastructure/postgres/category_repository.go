package postgres

import (
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

var categoryTable = tableDef[entity.Category]{
	name: "categories",
	cols: []string{"name", "description", "color", "icon"},
	fields: func(c *entity.Category) []any {
		return []any{&c.Name, &c.Description, &c.Color, &c.Icon}
	},
	values: func(c *entity.Category) []any {
		return []any{c.Name, c.Description, c.Color, c.Icon}
	},
}

type CategoryRepo struct {
	recordTable[entity.Category, *entity.Category]
}

func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{newRecordTable[entity.Category, *entity.Category](q, categoryTable)}
}
