package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/domain/stockstatus"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

type fixture struct {
	db        *memory.DB
	repos     repository.Repositories
	ledger    *stock.Ledger
	processor *sales.Processor
}

func newFixture(t *testing.T, tx sales.TxRunner) *fixture {
	t.Helper()
	db := memory.New()
	repos := db.Repositories()
	ledger := stock.NewLedger(memory.NewTxRunner(db), repos, nil)
	if tx == nil {
		tx = memory.NewTxRunner(db)
	}
	m := metrics.NewSalesMetrics(prometheus.NewRegistry())
	return &fixture{db: db, repos: repos, ledger: ledger, processor: sales.NewProcessor(tx, repos, ledger, m, nil)}
}

func (f *fixture) product(t *testing.T, name, price string, qty, min int) *entity.Product {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, f.repos.Products.Create(ctx, p))
	_, err := f.ledger.SetAbsolute(ctx, p.ID, qty, min, "")
	require.NoError(t, err)
	return p
}

func (f *fixture) quantity(t *testing.T, productID string) int {
	t.Helper()
	e, err := f.ledger.Get(context.Background(), productID)
	require.NoError(t, err)
	if e == nil {
		return 0
	}
	return e.Quantity
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	list, err := f.repos.Sales.ListAll(context.Background(), false)
	require.NoError(t, err)
	return len(list)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ---------------------------------------------------------------------------
// Escenario completo
// ---------------------------------------------------------------------------

func TestSubmitSale_EscenarioCompleto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 10, 2)

	detail, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, "15.00", detail.Sale.Total.StringFixed(2))
	assert.Equal(t, entity.SaleStatusCompleted, detail.Sale.Status)
	assert.Equal(t, entity.SaleTypeNormal, detail.Sale.Type)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, detail.Sale.ID, detail.Items[0].SaleID)

	entry, _ := f.ledger.Get(ctx, p.ID)
	assert.Equal(t, 7, entry.Quantity)
	assert.Equal(t, stockstatus.OK, stock.Classify(entry))

	_, err = f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 8}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Shortfalls, 1)
	assert.Equal(t, domain.Shortfall{ProductID: p.ID, ProductName: "Café", Requested: 8, Available: 7}, ise.Shortfalls[0])

	assert.Equal(t, 7, f.quantity(t, p.ID))
	assert.Equal(t, 1, f.saleCount(t))
}

func TestSubmitSale_TotalEsSumaExacta(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.product(t, "A", "0.10", 10, 0)
	b := f.product(t, "B", "0.20", 10, 0)

	detail, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: b.ID, Quantity: 1, UnitPrice: price("0.15")},
	}})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range detail.Items {
		assert.True(t, it.Subtotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))))
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, detail.Sale.Total.Equal(sum))
	assert.Equal(t, "0.45", detail.Sale.Total.StringFixed(2))
}

// ---------------------------------------------------------------------------
// Validación
// ---------------------------------------------------------------------------

func TestSubmitSale_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 10, 0)

	cases := []struct {
		name string
		in   sales.SaleInput
		want error
	}{
		{"sin líneas", sales.SaleInput{}, domain.ErrEmptySale},
		{"cantidad cero", sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 0}}}, domain.ErrInvalidQuantity},
		{"cantidad negativa", sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: -2}}}, domain.ErrInvalidQuantity},
		{"precio negativo", sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: price("-1")}}}, domain.ErrInvalidInput},
		{"precio con más de dos decimales", sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: price("0.005")}}}, domain.ErrInvalidInput},
		{"sin producto", sales.SaleInput{Lines: []sales.LineInput{{Quantity: 1}}}, domain.ErrInvalidInput},
		{"producto inexistente", sales.SaleInput{Lines: []sales.LineInput{{ProductID: "nope", Quantity: 1}}}, domain.ErrNotFound},
		{"cliente inexistente", sales.SaleInput{CustomerID: "nope", Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1}}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.processor.SubmitSale(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, f.quantity(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestSubmitSale_TotalCoincideConLoGuardado(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Caramelo", "0.01", 10, 0)

	// tres líneas de medio centavo: rechazadas, no se redondean por separado
	_, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: p.ID, Quantity: 1, UnitPrice: price("0.005")},
		{ProductID: p.ID, Quantity: 1, UnitPrice: price("0.005")},
		{ProductID: p.ID, Quantity: 1, UnitPrice: price("0.005")},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.saleCount(t))

	detail, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 1, UnitPrice: price("0.02")},
	}})
	require.NoError(t, err)

	stored, err := f.processor.GetSale(ctx, detail.Sale.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range stored.Items {
		assert.True(t, it.Subtotal.Equal(it.Subtotal.Round(domain.MoneyScale)))
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, stored.Sale.Total.Equal(sum))
	assert.Equal(t, "0.05", stored.Sale.Total.StringFixed(2))
}

func TestSubmitSale_RechazaInactivos(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 10, 0)
	retired := f.product(t, "Té", "3.00", 10, 0)
	_, err := f.repos.Products.SoftDelete(ctx, retired.ID)
	require.NoError(t, err)

	customer := &entity.Customer{Name: "Ana"}
	require.NoError(t, f.repos.Customers.Create(ctx, customer))
	_, err = f.repos.Customers.SoftDelete(ctx, customer.ID)
	require.NoError(t, err)

	_, err = f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: retired.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.processor.SubmitSale(ctx, sales.SaleInput{CustomerID: customer.ID, Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 10, f.quantity(t, retired.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestSubmitSale_TodoONada(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.product(t, "A", "1.00", 5, 0)
	b := f.product(t, "B", "1.00", 1, 0)

	_, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	}})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Shortfalls, 1)
	assert.Equal(t, b.ID, ise.Shortfalls[0].ProductID)

	assert.Equal(t, 5, f.quantity(t, a.ID))
	assert.Equal(t, 1, f.quantity(t, b.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestSubmitSale_LineasRepetidasSeSuman(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 5, 0)

	_, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 3},
	}})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 6, ise.Shortfalls[0].Requested)
	assert.Equal(t, 5, ise.Shortfalls[0].Available)

	detail, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: p.ID, Quantity: 3},
	}})
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	assert.Equal(t, 0, f.quantity(t, p.ID))
}

func TestSubmitSale_SinRegistroDeStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := &entity.Product{Name: "Nuevo", Price: decimal.RequireFromString("2.00")}
	require.NoError(t, f.repos.Products.Create(ctx, p))

	_, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1}}})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 0, ise.Shortfalls[0].Available)
}

// ---------------------------------------------------------------------------
// Atomicidad y concurrencia
// ---------------------------------------------------------------------------

// failingTx delega en el runner de memoria pero reemplaza repositorios para inyectar fallos.
type failingTx struct {
	inner *memory.TxRunner
	wrap  func(repository.Repositories) repository.Repositories
}

func (f *failingTx) Run(ctx context.Context, fn func(repository.Repositories) error) error {
	return f.inner.Run(ctx, func(repos repository.Repositories) error {
		return fn(f.wrap(repos))
	})
}

type brokenItems struct {
	repository.SaleItemRepository
}

func (brokenItems) Create(context.Context, *entity.SaleItem) error {
	return errors.New("disco lleno")
}

type emptyStock struct {
	repository.StockRepository
}

func (s emptyStock) GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.StockEntry, error) {
	e, err := s.StockRepository.GetByProductIDForUpdate(ctx, productID)
	if e != nil {
		e.Quantity = 0
	}
	return e, err
}

func TestSubmitSale_FalloAlConfirmarNoDejaRastro(t *testing.T) {
	db := memory.New()
	tx := &failingTx{inner: memory.NewTxRunner(db), wrap: func(r repository.Repositories) repository.Repositories {
		r.SaleItems = brokenItems{r.SaleItems}
		return r
	}}
	repos := db.Repositories()
	ledger := stock.NewLedger(memory.NewTxRunner(db), repos, nil)
	processor := sales.NewProcessor(tx, repos, ledger, nil, nil)
	ctx := context.Background()

	p := &entity.Product{Name: "Café", Price: decimal.RequireFromString("5.00")}
	require.NoError(t, repos.Products.Create(ctx, p))
	_, err := ledger.SetAbsolute(ctx, p.ID, 10, 0, "")
	require.NoError(t, err)

	_, err = processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 3}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco lleno")

	entry, _ := ledger.Get(ctx, p.ID)
	assert.Equal(t, 10, entry.Quantity)
	list, _ := repos.Sales.ListAll(ctx, false)
	assert.Empty(t, list)
}

func TestSubmitSale_RevalidacionEnTransaccion(t *testing.T) {
	db := memory.New()
	tx := &failingTx{inner: memory.NewTxRunner(db), wrap: func(r repository.Repositories) repository.Repositories {
		r.Stock = emptyStock{r.Stock}
		return r
	}}
	repos := db.Repositories()
	ledger := stock.NewLedger(memory.NewTxRunner(db), repos, nil)
	processor := sales.NewProcessor(tx, repos, ledger, nil, nil)
	ctx := context.Background()

	p := &entity.Product{Name: "Café", Price: decimal.RequireFromString("5.00")}
	require.NoError(t, repos.Products.Create(ctx, p))
	_, err := ledger.SetAbsolute(ctx, p.ID, 10, 0, "")
	require.NoError(t, err)

	_, err = processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 3}}})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Café", ise.Shortfalls[0].ProductName)
	assert.Equal(t, 3, ise.Shortfalls[0].Requested)
	assert.Equal(t, 0, ise.Shortfalls[0].Available)

	list, _ := repos.Sales.ListAll(ctx, false)
	assert.Empty(t, list)
	items, _ := repos.SaleItems.ListAll(ctx, false)
	assert.Empty(t, items)
	entry, _ := ledger.Get(ctx, p.ID)
	assert.Equal(t, 10, entry.Quantity)
}

func TestSubmitSale_ConcurrenteNoSobrevende(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 10, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1}}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 20, short)
	assert.Equal(t, 0, f.quantity(t, p.ID))
	assert.Equal(t, 10, f.saleCount(t))
}

func TestVentasAjustesYSincronizacionConcurrentes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "5.00", 20, 0)
	base := time.Now().UTC().Add(-time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = f.processor.SubmitSale(ctx, sales.SaleInput{Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 2}}})
		}()
		go func(i int) {
			defer wg.Done()
			delta := 1
			if i%2 == 0 {
				delta = -3
			}
			_, _ = f.ledger.Adjust(ctx, p.ID, delta, stock.AdjustOptions{})
		}(i)
		go func(i int) {
			defer wg.Done()
			id := "remote-a"
			if i%3 == 0 {
				id = "remote-b"
			}
			ts := base.Add(time.Duration(i) * time.Second)
			_, err := f.ledger.ReconcileRemote(ctx, &entity.StockEntry{
				Meta:      entity.Meta{ID: id, CreatedAt: ts, UpdatedAt: ts, Active: true},
				ProductID: p.ID,
				Quantity:  i % 7,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := f.repos.Stock.ListAll(ctx, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.GreaterOrEqual(t, entries[0].Quantity, 0)

	list, err := f.repos.Sales.ListAll(ctx, false)
	require.NoError(t, err)
	for _, s := range list {
		items, err := f.repos.SaleItems.ListBySale(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	}
	all, err := f.repos.SaleItems.ListAll(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, len(list))
}

// ---------------------------------------------------------------------------
// Venta rápida y consultas
// ---------------------------------------------------------------------------

func TestQuickSale_UsaPrecioDeLista(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "4.50", 3, 0)

	detail, err := f.processor.QuickSale(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleTypeQuick, detail.Sale.Type)
	assert.Empty(t, detail.Sale.CustomerID)
	assert.Equal(t, "9.00", detail.Sale.Total.StringFixed(2))
	assert.Equal(t, 1, f.quantity(t, p.ID))

	_, err = f.processor.QuickSale(ctx, p.ID, 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestGetSaleYListSales(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Café", "1.00", 10, 0)
	c := &entity.Customer{Name: "Ana"}
	require.NoError(t, f.repos.Customers.Create(ctx, c))

	first, err := f.processor.SubmitSale(ctx, sales.SaleInput{CustomerID: c.ID, Lines: []sales.LineInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	second, err := f.processor.QuickSale(ctx, p.ID, 1)
	require.NoError(t, err)

	got, err := f.processor.GetSale(ctx, first.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.Sale.CustomerID)
	assert.Len(t, got.Items, 1)

	_, err = f.processor.GetSale(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.processor.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].SoldAt.Before(list[1].SoldAt))
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{first.Sale.ID, second.Sale.ID}, ids)
}
