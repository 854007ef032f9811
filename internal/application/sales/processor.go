// Package sales registra ventas: valida, verifica stock y confirma cabecera, líneas y descuento de stock
// como una sola operación.
package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// LineInput una línea solicitada. UnitPrice nil usa el precio de lista del producto.
type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// SaleInput entrada de SubmitSale. CustomerID vacío = venta sin cliente.
type SaleInput struct {
	CustomerID string
	Lines      []LineInput
}

// SaleDetail venta con sus líneas.
type SaleDetail struct {
	Sale  *entity.Sale
	Items []*entity.SaleItem
}

// Processor servicio de ventas.
type Processor struct {
	tx      TxRunner
	repos   repository.Repositories
	ledger  *stock.Ledger
	metrics *metrics.SalesMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewProcessor construye el procesador. repos se usa para lecturas fuera de transacción.
func NewProcessor(tx TxRunner, repos repository.Repositories, ledger *stock.Ledger, m *metrics.SalesMetrics, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		tx:      tx,
		repos:   repos,
		ledger:  ledger,
		metrics: m,
		log:     log.Component("sales"),
		now:     time.Now,
	}
}

// line línea validada con su producto y precio resuelto.
type line struct {
	product   *entity.Product
	quantity  int
	unitPrice decimal.Decimal
}

// SubmitSale registra una venta de varias líneas. Si falta stock para alguna línea devuelve
// *domain.InsufficientStockError y no escribe nada.
func (p *Processor) SubmitSale(ctx context.Context, in SaleInput) (*SaleDetail, error) {
	detail, err := p.submit(ctx, in, entity.SaleTypeNormal)
	if err != nil {
		p.metrics.IncRejected(rejectReason(err))
		return nil, err
	}
	p.metrics.IncCompleted(entity.SaleTypeNormal)
	return detail, nil
}

// QuickSale venta de una sola línea, sin cliente, al precio de lista.
func (p *Processor) QuickSale(ctx context.Context, productID string, quantity int) (*SaleDetail, error) {
	in := SaleInput{Lines: []LineInput{{ProductID: productID, Quantity: quantity}}}
	detail, err := p.submit(ctx, in, entity.SaleTypeQuick)
	if err != nil {
		p.metrics.IncRejected(rejectReason(err))
		return nil, err
	}
	p.metrics.IncCompleted(entity.SaleTypeQuick)
	return detail, nil
}

func (p *Processor) submit(ctx context.Context, in SaleInput, saleType string) (*SaleDetail, error) {
	lines, err := p.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.product.ID)
	}
	unlock := p.ledger.Lock(ids...)
	defer unlock()

	if err := p.precheck(ctx, lines); err != nil {
		return nil, err
	}

	now := p.now().UTC()
	sale := &entity.Sale{
		CustomerID: in.CustomerID,
		SoldAt:     now,
		Total:      decimal.Zero,
		Status:     entity.SaleStatusCompleted,
		Type:       saleType,
	}
	items := make([]*entity.SaleItem, 0, len(lines))
	for _, l := range lines {
		item := &entity.SaleItem{ProductID: l.product.ID, Quantity: l.quantity, UnitPrice: l.unitPrice}
		item.Subtotal = item.ComputeSubtotal()
		sale.Total = sale.Total.Add(item.Subtotal)
		items = append(items, item)
	}

	err = p.tx.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
		for _, item := range items {
			item.SaleID = sale.ID
			if err := repos.SaleItems.Create(ctx, item); err != nil {
				return fmt.Errorf("crear línea de venta: %w", err)
			}
		}
		for _, item := range items {
			if _, err := p.ledger.AdjustIn(ctx, repos.Stock, item.ProductID, -item.Quantity, stock.AdjustOptions{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var neg *stock.NegativeStockError
		if errors.As(err, &neg) {
			return nil, &domain.InsufficientStockError{Shortfalls: []domain.Shortfall{{
				ProductID:   neg.ProductID,
				ProductName: productName(lines, neg.ProductID),
				Requested:   -neg.Delta,
				Available:   neg.Current,
			}}}
		}
		return nil, fmt.Errorf("confirmar venta: %w", err)
	}

	p.log.Info().Str("sale_id", sale.ID).Str("type", saleType).Int("lines", len(items)).
		Str("total", sale.Total.StringFixed(2)).Msg("venta registrada")
	return &SaleDetail{Sale: sale, Items: items}, nil
}

// resolve valida la entrada y carga cliente, productos y precios.
func (p *Processor) resolve(ctx context.Context, in SaleInput) ([]line, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptySale
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, fmt.Errorf("línea %d: producto requerido: %w", i+1, domain.ErrInvalidInput)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("línea %d: cantidad %d: %w", i+1, l.Quantity, domain.ErrInvalidQuantity)
		}
		if l.UnitPrice != nil {
			if err := domain.CheckPrice("unit_price", *l.UnitPrice); err != nil {
				return nil, fmt.Errorf("línea %d: %w", i+1, err)
			}
		}
	}

	if in.CustomerID != "" {
		c, err := p.repos.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("leer cliente: %w", err)
		}
		if c == nil || !c.Active {
			return nil, fmt.Errorf("cliente %s: %w", in.CustomerID, domain.ErrNotFound)
		}
	}

	products := make(map[string]*entity.Product)
	lines := make([]line, 0, len(in.Lines))
	for _, l := range in.Lines {
		prod, ok := products[l.ProductID]
		if !ok {
			var err error
			prod, err = p.repos.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return nil, fmt.Errorf("leer producto: %w", err)
			}
			if prod == nil || !prod.Active {
				return nil, fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
			}
			products[l.ProductID] = prod
		}
		price := prod.Price
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		} else if err := domain.CheckPrice("price", price); err != nil {
			// precio de lista traído del remoto sin pasar por el catálogo
			return nil, fmt.Errorf("producto %s: %w", prod.ID, err)
		}
		lines = append(lines, line{product: prod, quantity: l.Quantity, unitPrice: price})
	}
	return lines, nil
}

// precheck compara lo solicitado (sumado por producto) con el stock disponible.
func (p *Processor) precheck(ctx context.Context, lines []line) error {
	requested := make(map[string]int)
	order := make([]*entity.Product, 0, len(lines))
	for _, l := range lines {
		if _, seen := requested[l.product.ID]; !seen {
			order = append(order, l.product)
		}
		requested[l.product.ID] += l.quantity
	}

	var shortfalls []domain.Shortfall
	for _, prod := range order {
		entry, err := p.repos.Stock.GetByProductID(ctx, prod.ID)
		if err != nil {
			return fmt.Errorf("leer stock: %w", err)
		}
		available := 0
		if entry != nil {
			available = entry.Quantity
		}
		if want := requested[prod.ID]; want > available {
			shortfalls = append(shortfalls, domain.Shortfall{
				ProductID:   prod.ID,
				ProductName: prod.Name,
				Requested:   want,
				Available:   available,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

func productName(lines []line, productID string) string {
	for _, l := range lines {
		if l.product.ID == productID {
			return l.product.Name
		}
	}
	return ""
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

// GetSale devuelve la venta con sus líneas; domain.ErrNotFound si no existe.
func (p *Processor) GetSale(ctx context.Context, id string) (*SaleDetail, error) {
	sale, err := p.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer venta: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("venta %s: %w", id, domain.ErrNotFound)
	}
	items, err := p.repos.SaleItems.ListBySale(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer líneas de venta: %w", err)
	}
	return &SaleDetail{Sale: sale, Items: items}, nil
}

// ListSales ventas activas, la más reciente primero.
func (p *Processor) ListSales(ctx context.Context) ([]*entity.Sale, error) {
	list, err := p.repos.Sales.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].SoldAt.Equal(list[j].SoldAt) {
			return list[i].SoldAt.After(list[j].SoldAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}
