package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// Store define el puerto genérico de persistencia de registros (DIP).
// R es el puntero a la entidad (ej. *entity.Product).
type Store[R entity.Record] interface {
	// Create persiste un registro nuevo. Asigna ID si está vacío y timestamps si son cero.
	Create(ctx context.Context, rec R) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (R, error)
	// ListAll lista registros; activeOnly excluye los borrados lógicamente. Sin orden garantizado.
	ListAll(ctx context.Context, activeOnly bool) ([]R, error)
	// Update reemplaza los campos y marca UpdatedAt; domain.ErrNotFound si no existe.
	Update(ctx context.Context, rec R) error
	// SoftDelete marca Active=false; false si no existe.
	SoftDelete(ctx context.Context, id string) (bool, error)
	// Delete borrado físico; false si no existe.
	Delete(ctx context.Context, id string) (bool, error)
	// ListModifiedSince registros (activos o no) con UpdatedAt >= since.
	ListModifiedSince(ctx context.Context, since time.Time) ([]R, error)
	// Replace escribe el registro tal cual, timestamps incluidos (upsert). Solo para sincronización.
	Replace(ctx context.Context, rec R) error
}
