package memory

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// DB almacenamiento de registros en memoria. Un único RWMutex protege todas las colecciones.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	customers  *table[entity.Customer, *entity.Customer]
	categories *table[entity.Category, *entity.Category]
	products   *table[entity.Product, *entity.Product]
	stock      *table[entity.StockEntry, *entity.StockEntry]
	sales      *table[entity.Sale, *entity.Sale]
	saleItems  *table[entity.SaleItem, *entity.SaleItem]
}

// Option configura un DB.
type Option func(*DB)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New crea un almacenamiento vacío.
func New(opts ...Option) *DB {
	db := &DB{
		now:        time.Now,
		customers:  newTable[entity.Customer, *entity.Customer](entity.KindCustomers, nil),
		categories: newTable[entity.Category, *entity.Category](entity.KindCategories, nil),
		products:   newTable[entity.Product, *entity.Product](entity.KindProducts, nil),
		stock: newTable[entity.StockEntry, *entity.StockEntry](entity.KindStock, func(a, b *entity.StockEntry) bool {
			return a.ProductID == b.ProductID
		}),
		sales:     newTable[entity.Sale, *entity.Sale](entity.KindSales, nil),
		saleItems: newTable[entity.SaleItem, *entity.SaleItem](entity.KindSaleItems, nil),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Repositories devuelve repositorios sin transacción.
func (db *DB) Repositories() repository.Repositories {
	return db.repos(nil)
}

func (db *DB) repos(j *journal) repository.Repositories {
	return repository.Repositories{
		Customers:  &customerStore{store[entity.Customer, *entity.Customer]{db: db, t: db.customers, j: j}},
		Categories: &categoryStore{store[entity.Category, *entity.Category]{db: db, t: db.categories, j: j}},
		Products:   &productStore{store[entity.Product, *entity.Product]{db: db, t: db.products, j: j}},
		Stock:      &stockStore{store[entity.StockEntry, *entity.StockEntry]{db: db, t: db.stock, j: j}},
		Sales:      &saleStore{store[entity.Sale, *entity.Sale]{db: db, t: db.sales, j: j}},
		SaleItems:  &saleItemStore{store[entity.SaleItem, *entity.SaleItem]{db: db, t: db.saleItems, j: j}},
	}
}

// Ping siempre disponible.
func (db *DB) Ping(ctx context.Context) error { return ctx.Err() }

type customerStore struct {
	store[entity.Customer, *entity.Customer]
}

func (s *customerStore) SearchByName(ctx context.Context, q string) ([]*entity.Customer, error) {
	needle := fold(strings.TrimSpace(q))
	return s.list(ctx, func(c *entity.Customer) bool {
		return c.Active && strings.Contains(fold(c.Name), needle)
	})
}

type categoryStore struct {
	store[entity.Category, *entity.Category]
}

type productStore struct {
	store[entity.Product, *entity.Product]
}

func (s *productStore) ListByCategory(ctx context.Context, categoryID string) ([]*entity.Product, error) {
	return s.list(ctx, func(p *entity.Product) bool {
		return p.Active && p.CategoryID == categoryID
	})
}

type stockStore struct {
	store[entity.StockEntry, *entity.StockEntry]
}

func (s *stockStore) GetByProductID(ctx context.Context, productID string) (*entity.StockEntry, error) {
	return s.first(ctx, func(e *entity.StockEntry) bool { return e.ProductID == productID })
}

// GetByProductIDForUpdate en memoria no bloquea: la exclusión la da el lock por producto del ledger.
func (s *stockStore) GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.StockEntry, error) {
	return s.GetByProductID(ctx, productID)
}

type saleStore struct {
	store[entity.Sale, *entity.Sale]
}

type saleItemStore struct {
	store[entity.SaleItem, *entity.SaleItem]
}

func (s *saleItemStore) ListBySale(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	return s.list(ctx, func(i *entity.SaleItem) bool { return i.SaleID == saleID })
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold minúsculas sin acentos ("José" -> "jose").
func fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
