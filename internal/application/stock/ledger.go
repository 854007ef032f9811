// Package stock mantiene el stock por producto: ajustes, clasificación y reconciliación con el remoto.
// Toda mutación de un StockEntry ocurre con el lock del producto tomado.
package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/domain/stockstatus"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// NegativeStockError el ajuste dejaría la cantidad por debajo de cero.
type NegativeStockError struct {
	ProductID string
	Current   int
	Delta     int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("producto %s: stock %d, ajuste %d: %s", e.ProductID, e.Current, e.Delta, domain.ErrInvalidQuantity)
}

func (e *NegativeStockError) Is(target error) bool { return target == domain.ErrInvalidQuantity }

// AdjustOptions cambios opcionales que acompañan a un ajuste.
type AdjustOptions struct {
	Minimum  *int
	Location *string
}

// Item producto activo con su stock (entrada en cero si no tiene) y su estado.
// Category es nil si el producto no tiene categoría o ya no existe; UnitsSold cuenta
// solo ventas completadas.
type Item struct {
	Product   *entity.Product
	Category  *entity.Category
	Entry     *entity.StockEntry
	Status    stockstatus.Status
	UnitsSold int
}

// ReconcileOutcome resultado de aplicar un StockEntry remoto.
type ReconcileOutcome int

const (
	ReconcileUnchanged ReconcileOutcome = iota
	ReconcileCreated
	ReconcileUpdated
	ReconcileSkipped
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// Ledger servicio de stock. Las operaciones sobre el mismo producto se serializan con el lock
// en proceso; cada escritura corre además en su propia transacción (FOR UPDATE en Postgres).
type Ledger struct {
	tx    TxRunner
	repos repository.Repositories
	locks *KeyedLocker
	log   *logger.Logger
}

// NewLedger repos se usa para lecturas fuera de transacción.
func NewLedger(tx TxRunner, repos repository.Repositories, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{
		tx:    tx,
		repos: repos,
		locks: NewKeyedLocker(),
		log:   log.Component("stock"),
	}
}

// Lock toma el lock de los productos dados; devolver la función al terminar.
func (l *Ledger) Lock(productIDs ...string) func() {
	return l.locks.Lock(productIDs...)
}

// Get devuelve el stock del producto o nil si no tiene registro.
func (l *Ledger) Get(ctx context.Context, productID string) (*entity.StockEntry, error) {
	return l.repos.Stock.GetByProductID(ctx, productID)
}

// Classify estado del stock; sin registro equivale a cantidad 0.
func Classify(entry *entity.StockEntry) stockstatus.Status {
	if entry == nil {
		return stockstatus.Out
	}
	return stockstatus.Classify(entry.Quantity, entry.MinimumQuantity)
}

// Adjust suma delta (positivo o negativo) a la cantidad del producto, creando el registro si no existe.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int, opts AdjustOptions) (*entity.StockEntry, error) {
	if err := l.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	unlock := l.Lock(productID)
	defer unlock()

	var entry *entity.StockEntry
	err := l.tx.Run(ctx, func(repos repository.Repositories) error {
		var err error
		entry, err = l.AdjustIn(ctx, repos.Stock, productID, delta, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AdjustIn aplica el ajuste con el repositorio dado (normalmente atado a una transacción).
// El llamador debe tener el lock del producto.
func (l *Ledger) AdjustIn(ctx context.Context, repo repository.StockRepository, productID string, delta int, opts AdjustOptions) (*entity.StockEntry, error) {
	if opts.Minimum != nil && *opts.Minimum < 0 {
		return nil, fmt.Errorf("mínimo %d: %w", *opts.Minimum, domain.ErrInvalidQuantity)
	}
	entry, err := repo.GetByProductIDForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("leer stock: %w", err)
	}
	isNew := entry == nil
	if isNew {
		entry = &entity.StockEntry{ProductID: productID}
	}
	next := entry.Quantity + delta
	if next < 0 {
		return nil, &NegativeStockError{ProductID: productID, Current: entry.Quantity, Delta: delta}
	}
	entry.Quantity = next
	if opts.Minimum != nil {
		entry.MinimumQuantity = *opts.Minimum
	}
	if opts.Location != nil {
		entry.Location = *opts.Location
	}
	if err := save(ctx, repo, entry, isNew); err != nil {
		return nil, err
	}
	return entry, nil
}

// SetAbsolute fija cantidad, mínimo y ubicación del producto.
func (l *Ledger) SetAbsolute(ctx context.Context, productID string, quantity, minimum int, location string) (*entity.StockEntry, error) {
	if quantity < 0 || minimum < 0 {
		return nil, fmt.Errorf("cantidad %d, mínimo %d: %w", quantity, minimum, domain.ErrInvalidQuantity)
	}
	if err := l.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	unlock := l.Lock(productID)
	defer unlock()

	var entry *entity.StockEntry
	err := l.tx.Run(ctx, func(repos repository.Repositories) error {
		current, err := repos.Stock.GetByProductIDForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("leer stock: %w", err)
		}
		isNew := current == nil
		if isNew {
			current = &entity.StockEntry{ProductID: productID}
		}
		current.Quantity = quantity
		current.MinimumQuantity = minimum
		current.Location = location
		if err := save(ctx, repos.Stock, current, isNew); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func save(ctx context.Context, repo repository.StockRepository, entry *entity.StockEntry, isNew bool) error {
	if isNew {
		if err := repo.Create(ctx, entry); err != nil {
			return fmt.Errorf("crear stock: %w", err)
		}
		return nil
	}
	if err := repo.Update(ctx, entry); err != nil {
		return fmt.Errorf("actualizar stock: %w", err)
	}
	return nil
}

func (l *Ledger) requireProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("producto requerido: %w", domain.ErrInvalidInput)
	}
	p, err := l.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("leer producto: %w", err)
	}
	if p == nil || !p.Active {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// Overview lista los productos activos con su stock, su categoría y las unidades vendidas,
// los críticos primero y luego por nombre. Con filter no vacío solo se devuelven los de ese estado.
func (l *Ledger) Overview(ctx context.Context, filter stockstatus.Status) ([]Item, error) {
	products, err := l.repos.Products.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	entries, err := l.repos.Stock.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	// las categorías inactivas siguen nombrando a sus productos
	categories, err := l.repos.Categories.ListAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listar categorías: %w", err)
	}
	sold, err := l.unitsSold(ctx)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*entity.StockEntry, len(entries))
	for _, e := range entries {
		byProduct[e.ProductID] = e
	}
	byCategory := make(map[string]*entity.Category, len(categories))
	for _, c := range categories {
		byCategory[c.ID] = c
	}

	items := make([]Item, 0, len(products))
	for _, p := range products {
		e, ok := byProduct[p.ID]
		if !ok {
			e = &entity.StockEntry{ProductID: p.ID}
		}
		st := Classify(e)
		if filter != "" && st != filter {
			continue
		}
		items = append(items, Item{
			Product:   p,
			Category:  byCategory[p.CategoryID],
			Entry:     e,
			Status:    st,
			UnitsSold: sold[p.ID],
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := stockstatus.Priority(items[i].Status), stockstatus.Priority(items[j].Status)
		if pi != pj {
			return pi < pj
		}
		ni, nj := strings.ToLower(items[i].Product.Name), strings.ToLower(items[j].Product.Name)
		if ni != nj {
			return ni < nj
		}
		return items[i].Product.ID < items[j].Product.ID
	})
	return items, nil
}

// unitsSold unidades por producto en ventas completadas.
func (l *Ledger) unitsSold(ctx context.Context) (map[string]int, error) {
	sales, err := l.repos.Sales.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	completed := make(map[string]bool, len(sales))
	for _, s := range sales {
		if s.Status == entity.SaleStatusCompleted {
			completed[s.ID] = true
		}
	}
	lines, err := l.repos.SaleItems.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listar líneas de venta: %w", err)
	}
	out := make(map[string]int)
	for _, it := range lines {
		if completed[it.SaleID] {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, nil
}

// ReconcileRemote aplica un StockEntry traído del remoto: lo crea si no existe localmente y lo
// reemplaza si su UpdatedAt difiere. Registros con cantidades negativas se descartan.
func (l *Ledger) ReconcileRemote(ctx context.Context, remote *entity.StockEntry) (ReconcileOutcome, error) {
	if remote.Quantity < 0 || remote.MinimumQuantity < 0 {
		l.log.Warn().Str("stock_id", remote.ID).Str("product_id", remote.ProductID).
			Int("quantity", remote.Quantity).Int("minimum", remote.MinimumQuantity).
			Msg("stock remoto con cantidad negativa descartado")
		return ReconcileSkipped, nil
	}

	keys := []string{remote.ProductID}
	prev, err := l.repos.Stock.GetByID(ctx, remote.ID)
	if err != nil {
		return ReconcileUnchanged, fmt.Errorf("leer stock local: %w", err)
	}
	if prev != nil && prev.ProductID != remote.ProductID {
		keys = append(keys, prev.ProductID)
	}
	unlock := l.Lock(keys...)
	defer unlock()

	outcome := ReconcileUnchanged
	err = l.tx.Run(ctx, func(repos repository.Repositories) error {
		local, err := repos.Stock.GetByID(ctx, remote.ID)
		if err != nil {
			return fmt.Errorf("leer stock local: %w", err)
		}
		if local != nil && local.UpdatedAt.Equal(remote.UpdatedAt) && local.ProductID == remote.ProductID {
			return nil
		}
		other, err := repos.Stock.GetByProductIDForUpdate(ctx, remote.ProductID)
		if err != nil {
			return fmt.Errorf("leer stock local: %w", err)
		}
		if other != nil && other.ID != remote.ID {
			if _, err := repos.Stock.Delete(ctx, other.ID); err != nil {
				return fmt.Errorf("eliminar stock duplicado: %w", err)
			}
			l.log.Info().Str("product_id", remote.ProductID).Str("local_id", other.ID).Str("remote_id", remote.ID).
				Msg("stock local reemplazado por registro remoto")
		}
		cp := *remote
		if err := repos.Stock.Replace(ctx, &cp); err != nil {
			return fmt.Errorf("guardar stock remoto: %w", err)
		}
		outcome = ReconcileCreated
		if local != nil {
			outcome = ReconcileUpdated
		}
		return nil
	})
	if err != nil {
		return ReconcileUnchanged, err
	}
	return outcome, nil
}
