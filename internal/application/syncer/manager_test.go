package syncer_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/application/syncer"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

type env struct {
	remote repository.Repositories
	local  repository.Repositories
	ledger *stock.Ledger
}

func newEnv() *env {
	remote := memory.New().Repositories()
	db := memory.New()
	local := db.Repositories()
	return &env{remote: remote, local: local, ledger: stock.NewLedger(memory.NewTxRunner(db), local, nil)}
}

func (e *env) manager(t *testing.T, mod func(p *syncer.Params)) *syncer.Manager {
	t.Helper()
	p := syncer.Params{
		Remote:   e.remote,
		Local:    e.local,
		Ledger:   e.ledger,
		Interval: 20 * time.Millisecond,
		Backoff:  10 * time.Millisecond,
		Metrics:  metrics.NewSyncMetrics(prometheus.NewRegistry()),
	}
	if mod != nil {
		mod(&p)
	}
	m, err := syncer.NewManager(p)
	require.NoError(t, err)
	return m
}

func (e *env) seedRemote(t *testing.T) *entity.Product {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.remote.Customers.Create(ctx, &entity.Customer{Name: "Ana"}))
	require.NoError(t, e.remote.Categories.Create(ctx, &entity.Category{Name: "Bebidas"}))
	p := &entity.Product{Name: "Café", Price: decimal.RequireFromString("5.00")}
	require.NoError(t, e.remote.Products.Create(ctx, p))
	require.NoError(t, e.remote.Stock.Create(ctx, &entity.StockEntry{ProductID: p.ID, Quantity: 10, MinimumQuantity: 2}))
	require.NoError(t, e.remote.Sales.Create(ctx, &entity.Sale{Total: decimal.RequireFromString("5.00"), Status: entity.SaleStatusCompleted, Type: entity.SaleTypeQuick}))
	return p
}

func kindReport(t *testing.T, rep *syncer.Report, k entity.Kind) syncer.KindReport {
	t.Helper()
	for _, kr := range rep.Kinds {
		if kr.Kind == k {
			return kr
		}
	}
	t.Fatalf("sin reporte para %s", k)
	return syncer.KindReport{}
}

// ---------------------------------------------------------------------------
// Ciclo
// ---------------------------------------------------------------------------

func TestSyncNow_CreaYLuegoEsIdempotente(t *testing.T) {
	e := newEnv()
	p := e.seedRemote(t)
	m := e.manager(t, nil)
	ctx := context.Background()

	rep, err := m.SyncNow(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Kinds, len(entity.SyncedKinds))
	for i, kr := range rep.Kinds {
		assert.Equal(t, entity.SyncedKinds[i], kr.Kind)
		assert.Equal(t, 1, kr.Created, kr.Kind)
		assert.Empty(t, kr.Err)
	}

	local, err := e.local.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, local)
	remoteP, _ := e.remote.Products.GetByID(ctx, p.ID)
	assert.Equal(t, remoteP.UpdatedAt, local.UpdatedAt)
	entry, _ := e.ledger.Get(ctx, p.ID)
	require.NotNil(t, entry)
	assert.Equal(t, 10, entry.Quantity)

	before, _ := e.local.Products.GetByID(ctx, p.ID)
	rep, err = m.SyncNow(ctx)
	require.NoError(t, err)
	for _, kr := range rep.Kinds {
		assert.Zero(t, kr.Created+kr.Updated, kr.Kind)
	}
	after, _ := e.local.Products.GetByID(ctx, p.ID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestSyncNow_SobrescribeCambiosRemotos(t *testing.T) {
	e := newEnv()
	p := e.seedRemote(t)
	m := e.manager(t, nil)
	ctx := context.Background()

	_, err := m.SyncNow(ctx)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	remoteP, _ := e.remote.Products.GetByID(ctx, p.ID)
	remoteP.Price = decimal.RequireFromString("6.50")
	require.NoError(t, e.remote.Products.Update(ctx, remoteP))

	rep, err := m.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, kindReport(t, rep, entity.KindProducts).Updated)

	local, _ := e.local.Products.GetByID(ctx, p.ID)
	assert.Equal(t, "6.50", local.Price.StringFixed(2))
}

func TestSyncNow_WatermarkAvanzaSinCambios(t *testing.T) {
	e := newEnv()
	m := e.manager(t, nil)
	initial := m.Status().LastSync[entity.KindProducts]

	_, err := m.SyncNow(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Status().LastSync[entity.KindProducts].After(initial))
}

func TestNewManager_WatermarkInicial(t *testing.T) {
	e := newEnv()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := e.manager(t, func(p *syncer.Params) { p.Now = func() time.Time { return now } })

	st := m.Status()
	assert.False(t, st.Running)
	assert.Len(t, st.LastSync, len(entity.SyncedKinds))
	assert.Equal(t, now.Add(-5*time.Minute), st.LastSync[entity.KindStock])
}

type failingProducts struct {
	repository.ProductRepository
}

func (failingProducts) ListModifiedSince(context.Context, time.Time) ([]*entity.Product, error) {
	return nil, errors.New("remoto caído")
}

func TestSyncNow_FalloDeUnaColeccionNoBloqueaLasDemas(t *testing.T) {
	e := newEnv()
	e.seedRemote(t)
	e.remote.Products = failingProducts{e.remote.Products}
	m := e.manager(t, nil)
	initial := m.Status().LastSync

	rep, err := m.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed())
	assert.Contains(t, kindReport(t, rep, entity.KindProducts).Err, "remoto caído")
	assert.Equal(t, 1, kindReport(t, rep, entity.KindCustomers).Created)
	assert.Equal(t, 1, kindReport(t, rep, entity.KindSales).Created)

	last := m.Status().LastSync
	assert.Equal(t, initial[entity.KindProducts], last[entity.KindProducts])
	assert.True(t, last[entity.KindCustomers].After(initial[entity.KindCustomers]))
}

func TestSyncNow_StockNegativoRemotoSeDescarta(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, e.remote.Stock.Replace(ctx, &entity.StockEntry{
		Meta:      entity.Meta{ID: "s1", CreatedAt: now, UpdatedAt: now, Active: true},
		ProductID: "p1", Quantity: -4,
	}))
	m := e.manager(t, nil)

	rep, err := m.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, kindReport(t, rep, entity.KindStock).Skipped)

	entry, _ := e.ledger.Get(ctx, "p1")
	assert.Nil(t, entry)
}

type panicStock struct {
	repository.StockRepository
}

func (panicStock) ListModifiedSince(context.Context, time.Time) ([]*entity.StockEntry, error) {
	panic("boom")
}

func TestSyncNow_PanicSeConvierteEnError(t *testing.T) {
	e := newEnv()
	e.remote.Stock = panicStock{e.remote.Stock}
	m := e.manager(t, nil)

	_, err := m.SyncNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	// el manager sigue usable: el siguiente ciclo vuelve a fallar sin propagar el panic
	assert.NotPanics(t, func() { _, _ = m.SyncNow(context.Background()) })
}

// ---------------------------------------------------------------------------
// Lock distribuido
// ---------------------------------------------------------------------------

type fakeLock struct {
	busy     bool
	acquired int32
	released int32
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.busy {
		return false, nil
	}
	atomic.AddInt32(&f.acquired, 1)
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	atomic.AddInt32(&f.released, 1)
	return nil
}

func TestSyncNow_LockOcupadoOmiteCiclo(t *testing.T) {
	e := newEnv()
	p := e.seedRemote(t)
	lock := &fakeLock{busy: true}
	m := e.manager(t, func(p *syncer.Params) { p.Lock = lock })

	rep, err := m.SyncNow(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.LockBusy)
	got, _ := e.local.Products.GetByID(context.Background(), p.ID)
	assert.Nil(t, got)

	lock.busy = false
	rep, err = m.SyncNow(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.LockBusy)
	assert.Equal(t, int32(1), lock.acquired)
	assert.Equal(t, int32(1), lock.released)
}

// ---------------------------------------------------------------------------
// Loop
// ---------------------------------------------------------------------------

func TestStartStop(t *testing.T) {
	e := newEnv()
	e.seedRemote(t)
	m := e.manager(t, nil)

	require.True(t, m.Start())
	assert.False(t, m.Start())
	assert.True(t, m.Status().Running)

	require.Eventually(t, func() bool {
		rep := m.Status().LastReport
		return rep != nil && rep.Failed() == 0
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))
	assert.False(t, m.Running())
	assert.NoError(t, m.Stop(ctx))

	list, _ := e.local.Customers.ListAll(context.Background(), true)
	assert.Len(t, list, 1)
}

func TestStart_ReintentaTrasFallo(t *testing.T) {
	e := newEnv()
	var calls int32
	e.remote.Products = countingFailProducts{calls: &calls}
	e.remote.Customers = failingCustomers{}
	e.remote.Categories = failingCategories{}
	e.remote.Stock = panicStock{}
	e.remote.Sales = failingSales{}
	m := e.manager(t, nil)

	require.True(t, m.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Stop(context.Background()))
}

func TestForceSync(t *testing.T) {
	e := newEnv()
	e.seedRemote(t)
	m := e.manager(t, nil)

	m.ForceSync()
	require.Eventually(t, func() bool { return m.Status().LastReport != nil }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Running())
}

type countingFailProducts struct {
	repository.ProductRepository
	calls *int32
}

func (c countingFailProducts) ListModifiedSince(context.Context, time.Time) ([]*entity.Product, error) {
	atomic.AddInt32(c.calls, 1)
	return nil, errors.New("caído")
}

type failingCustomers struct{ repository.CustomerRepository }

func (failingCustomers) ListModifiedSince(context.Context, time.Time) ([]*entity.Customer, error) {
	return nil, errors.New("caído")
}

type failingCategories struct{ repository.CategoryRepository }

func (failingCategories) ListModifiedSince(context.Context, time.Time) ([]*entity.Category, error) {
	return nil, errors.New("caído")
}

type failingSales struct{ repository.SaleRepository }

func (failingSales) ListModifiedSince(context.Context, time.Time) ([]*entity.Sale, error) {
	return nil, errors.New("caído")
}
