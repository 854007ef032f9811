package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// CategoryUseCase casos de uso para categorías.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

// Create crea una categoría.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	cat := &entity.Category{
		Name:        name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	}
	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return toCategoryResponse(cat), nil
}

func (uc *CategoryUseCase) GetByID(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	cat, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCategoryResponse(cat), nil
}

func (uc *CategoryUseCase) List(ctx context.Context, activeOnly bool) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.ListAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	sortByName(list, func(c *entity.Category) string { return c.Name })
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

// Update nil, nil si no existe.
func (uc *CategoryUseCase) Update(ctx context.Context, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	cat, err := uc.repo.GetByID(ctx, id)
	if err != nil || cat == nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede quedar vacío", domain.ErrInvalidInput)
		}
		cat.Name = name
	}
	if in.Description != nil {
		cat.Description = *in.Description
	}
	if in.Color != nil {
		cat.Color = *in.Color
	}
	if in.Icon != nil {
		cat.Icon = *in.Icon
	}
	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return toCategoryResponse(cat), nil
}

// Delete borrado lógico; los productos conservan su category_id.
func (uc *CategoryUseCase) Delete(ctx context.Context, id string) (bool, error) {
	return uc.repo.SoftDelete(ctx, id)
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	if c == nil {
		return nil
	}
	return &dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
