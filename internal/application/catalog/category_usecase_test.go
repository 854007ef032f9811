package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/catalog"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
)

func TestCategoryCRUD(t *testing.T) {
	uc := catalog.NewCategoryUseCase(memory.New().Repositories().Categories)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	limpieza, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: "Limpieza", Color: "#00ff00"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateCategoryRequest{Name: "Bebidas"})
	require.NoError(t, err)

	list, err := uc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bebidas", list[0].Name)

	icon := "spray"
	updated, err := uc.Update(ctx, limpieza.ID, dto.UpdateCategoryRequest{Icon: &icon})
	require.NoError(t, err)
	assert.Equal(t, "spray", updated.Icon)
	assert.Equal(t, "#00ff00", updated.Color)

	ok, err := uc.Delete(ctx, limpieza.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := uc.GetByID(ctx, limpieza.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	list, err = uc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
