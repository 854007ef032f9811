// Package catalog contiene los casos de uso CRUD de productos, categorías y clientes.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// ProductUseCase casos de uso para productos. El stock se consulta y ajusta vía stock.Ledger.
type ProductUseCase struct {
	tx     TxRunner
	repos  repository.Repositories
	ledger *stock.Ledger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx TxRunner, repos repository.Repositories, ledger *stock.Ledger) *ProductUseCase {
	return &ProductUseCase{tx: tx, repos: repos, ledger: ledger}
}

// Create crea el producto y su registro de stock en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if err := domain.CheckPrice("price", in.Price); err != nil {
		return nil, err
	}
	if in.InitialQuantity < 0 || in.MinimumQuantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		Barcode:     in.Barcode,
		ImageRef:    in.ImageRef,
	}
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		entry := &entity.StockEntry{
			ProductID:       product.ID,
			Quantity:        in.InitialQuantity,
			MinimumQuantity: in.MinimumQuantity,
			Location:        in.Location,
		}
		if err := repos.Stock.Create(ctx, entry); err != nil {
			return fmt.Errorf("create stock entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID nil, nil si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos, opcionalmente filtrados por categoría. Orden por nombre.
func (uc *ProductUseCase) List(ctx context.Context, categoryID string, activeOnly bool) ([]dto.ProductResponse, error) {
	var (
		list []*entity.Product
		err  error
	)
	if categoryID != "" {
		list, err = uc.repos.Products.ListByCategory(ctx, categoryID)
	} else {
		list, err = uc.repos.Products.ListAll(ctx, activeOnly)
	}
	if err != nil {
		return nil, err
	}
	sortByName(list, func(p *entity.Product) string { return p.Name })
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

// Update modifica los campos presentes. nil, nil si no existe.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede quedar vacío", domain.ErrInvalidInput)
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if err := domain.CheckPrice("price", *in.Price); err != nil {
			return nil, err
		}
		product.Price = *in.Price
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Barcode != nil {
		product.Barcode = *in.Barcode
	}
	if in.ImageRef != nil {
		product.ImageRef = *in.ImageRef
	}
	if err := uc.repos.Products.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Delete borrado lógico; con hard=true elimina el producto y su registro de stock.
// false si el producto no existe.
func (uc *ProductUseCase) Delete(ctx context.Context, id string, hard bool) (bool, error) {
	if !hard {
		return uc.repos.Products.SoftDelete(ctx, id)
	}
	unlock := uc.ledger.Lock(id)
	defer unlock()

	var found bool
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		entry, err := repos.Stock.GetByProductIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if entry != nil {
			if _, err := repos.Stock.Delete(ctx, entry.ID); err != nil {
				return fmt.Errorf("delete stock entry: %w", err)
			}
		}
		found, err = repos.Products.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	cat, err := uc.repos.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil || !cat.Active {
		return fmt.Errorf("%w: categoría %s no existe", domain.ErrInvalidInput, categoryID)
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		Barcode:     p.Barcode,
		ImageRef:    p.ImageRef,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
