package repository

import "github.com/jhoicas/ventas-api/internal/domain/entity"

// CategoryRepository define el puerto de persistencia para Category.
type CategoryRepository interface {
	Store[*entity.Category]
}
