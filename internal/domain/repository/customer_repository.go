package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Store[*entity.Customer]
	// SearchByName busca clientes activos cuyo nombre contenga q (sin distinguir mayúsculas).
	SearchByName(ctx context.Context, q string) ([]*entity.Customer, error)
}
