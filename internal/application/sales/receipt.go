package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// ReceiptLine línea del comprobante con el nombre del producto.
type ReceiptLine struct {
	entity.SaleItem
	ProductName string
}

// Receipt datos del comprobante. Customer nil = venta sin cliente.
type Receipt struct {
	BusinessName string
	Sale         *entity.Sale
	Customer     *entity.Customer
	Lines        []ReceiptLine
}

// ReceiptUseCase genera el PDF de una venta registrada.
type ReceiptUseCase struct {
	repos        repository.Repositories
	generator    ReceiptPDFGenerator
	businessName string
}

func NewReceiptUseCase(repos repository.Repositories, generator ReceiptPDFGenerator, businessName string) *ReceiptUseCase {
	return &ReceiptUseCase{repos: repos, generator: generator, businessName: businessName}
}

// Generate devuelve el PDF y el nombre de archivo sugerido.
// domain.ErrNotFound si la venta no existe.
func (uc *ReceiptUseCase) Generate(ctx context.Context, saleID string) ([]byte, string, error) {
	sale, err := uc.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}

	var customer *entity.Customer
	if sale.CustomerID != "" {
		customer, err = uc.repos.Customers.GetByID(ctx, sale.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("comprobante: obtener cliente: %w", err)
		}
	}

	items, err := uc.repos.SaleItems.ListBySale(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener líneas: %w", err)
	}
	lines := make([]ReceiptLine, 0, len(items))
	for _, it := range items {
		name := "Producto " + it.ProductID // fallback
		if p, pErr := uc.repos.Products.GetByID(ctx, it.ProductID); pErr == nil && p != nil {
			name = p.Name
		}
		lines = append(lines, ReceiptLine{SaleItem: *it, ProductName: name})
	}

	pdf, err := uc.generator.GenerateReceiptPDF(ctx, &Receipt{
		BusinessName: uc.businessName,
		Sale:         sale,
		Customer:     customer,
		Lines:        lines,
	})
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("venta_%s.pdf", sale.ID), nil
}
