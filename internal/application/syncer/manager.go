// Package syncer trae al almacenamiento local los cambios hechos en el remoto, en ciclos periódicos.
// Cada colección lleva su propio watermark (última sincronización exitosa).
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

const (
	DefaultInterval        = 30 * time.Second
	DefaultBackoff         = 10 * time.Second
	DefaultInitialLookback = 5 * time.Minute
)

// ErrAllKindsFailed el ciclo no pudo sincronizar ninguna colección.
var ErrAllKindsFailed = errors.New("sincronización: fallaron todas las colecciones")

// CycleLock coordina ciclos exclusivos entre instancias (ej. Redis).
type CycleLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Params configuran el Manager.
type Params struct {
	Remote repository.Repositories
	Local  repository.Repositories
	Ledger *stock.Ledger

	Interval        time.Duration
	Backoff         time.Duration
	InitialLookback time.Duration

	Lock    CycleLock // opcional
	Metrics *metrics.SyncMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// Manager ejecuta el loop de sincronización. Los ciclos (del loop, ForceSync o SyncNow) nunca se solapan.
type Manager struct {
	kinds    []kindSyncer
	interval time.Duration
	backoff  time.Duration
	lock     CycleLock
	metrics  *metrics.SyncMetrics
	log      *logger.Logger
	now      func() time.Time

	cycleMu sync.Mutex

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	lastSync   map[entity.Kind]time.Time
	lastReport *Report
}

// NewManager construye el sincronizador detenido.
func NewManager(p Params) (*Manager, error) {
	if p.Ledger == nil {
		return nil, fmt.Errorf("syncer: ledger requerido")
	}
	if p.Remote.Customers == nil || p.Local.Customers == nil {
		return nil, fmt.Errorf("syncer: repositorios remoto y local requeridos")
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultBackoff
	}
	if p.InitialLookback <= 0 {
		p.InitialLookback = DefaultInitialLookback
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	m := &Manager{
		kinds:    buildKinds(p.Remote, p.Local, p.Ledger),
		interval: p.Interval,
		backoff:  p.Backoff,
		lock:     p.Lock,
		metrics:  p.Metrics,
		log:      p.Logger.Component("syncer"),
		now:      p.Now,
		lastSync: make(map[entity.Kind]time.Time, len(entity.SyncedKinds)),
	}
	initial := m.clock().Add(-p.InitialLookback)
	for _, k := range m.kinds {
		m.lastSync[k.kind()] = initial
	}
	return m, nil
}

func (m *Manager) clock() time.Time {
	return m.now().UTC().Truncate(time.Microsecond)
}

// Start lanza el loop en segundo plano. Devuelve false si ya estaba corriendo.
func (m *Manager) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
	m.log.Info().Dur("interval", m.interval).Msg("sincronización iniciada")
	return true
}

// Stop detiene el loop y espera a que termine el ciclo en curso (o a que ctx expire).
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
		m.log.Info().Msg("sincronización detenida")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("syncer: esperar fin del loop: %w", ctx.Err())
	}
}

// Running indica si el loop está activo.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// ForceSync lanza un ciclo inmediato en segundo plano, sin esperar a que termine.
func (m *Manager) ForceSync() {
	go func() {
		if _, err := m.SyncNow(context.Background()); err != nil {
			m.log.Error().Err(err).Msg("sincronización forzada con errores")
		}
	}()
}

// SyncNow ejecuta un ciclo y espera su resultado.
func (m *Manager) SyncNow(ctx context.Context) (*Report, error) {
	return m.safeCycle(ctx)
}

// Status copia del estado actual.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last := make(map[entity.Kind]time.Time, len(m.lastSync))
	for k, v := range m.lastSync {
		last[k] = v
	}
	var rep *Report
	if m.lastReport != nil {
		cp := *m.lastReport
		cp.Kinds = append([]KindReport(nil), m.lastReport.Kinds...)
		rep = &cp
	}
	return Status{Running: m.running, LastSync: last, Interval: m.interval, LastReport: rep}
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		wait := m.interval
		if _, err := m.safeCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Error().Err(err).Dur("backoff", m.backoff).Msg("ciclo de sincronización fallido")
			wait = m.backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// safeCycle ejecuta un ciclo convirtiendo un panic en error.
func (m *Manager) safeCycle(ctx context.Context) (rep *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("syncer: panic en ciclo: %v", r)
			m.metrics.ObserveCycle("panic", 0)
		}
	}()
	return m.cycle(ctx)
}

func (m *Manager) cycle(ctx context.Context) (*Report, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if m.lock != nil {
		ok, err := m.lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("syncer: adquirir lock: %w", err)
		}
		if !ok {
			m.log.Info().Msg("otra instancia está sincronizando; se omite el ciclo")
			rep := &Report{StartedAt: m.clock(), LockBusy: true}
			rep.FinishedAt = rep.StartedAt
			m.metrics.ObserveCycle("skipped", 0)
			return rep, nil
		}
		defer func() {
			if err := m.lock.Release(context.Background()); err != nil {
				m.log.Warn().Err(err).Msg("no se pudo liberar el lock de sincronización")
			}
		}()
	}

	start := m.clock()
	rep := &Report{StartedAt: start, Kinds: make([]KindReport, 0, len(m.kinds))}
	for _, k := range m.kinds {
		kr := m.syncKind(ctx, k, start)
		rep.Kinds = append(rep.Kinds, kr)
	}
	rep.FinishedAt = m.clock()

	m.mu.Lock()
	m.lastReport = rep
	m.mu.Unlock()

	failed := rep.Failed()
	result := "ok"
	switch {
	case failed == len(rep.Kinds) && failed > 0:
		result = "failed"
	case failed > 0:
		result = "partial"
	}
	m.metrics.ObserveCycle(result, rep.FinishedAt.Sub(start))
	if failed == 0 {
		m.metrics.SetLastSuccess(rep.FinishedAt)
	}
	m.log.Debug().Str("result", result).Int("failed", failed).
		Dur("duration", rep.FinishedAt.Sub(start)).Msg("ciclo de sincronización")

	if result == "failed" {
		return rep, ErrAllKindsFailed
	}
	return rep, nil
}

// syncKind sincroniza una colección; solo con éxito avanza su watermark a start.
func (m *Manager) syncKind(ctx context.Context, k kindSyncer, start time.Time) KindReport {
	kind := k.kind()
	m.mu.RLock()
	since := m.lastSync[kind]
	m.mu.RUnlock()

	kr, err := k.pull(ctx, since)
	m.metrics.AddRecords(string(kind), string(OutcomeCreated), kr.Created)
	m.metrics.AddRecords(string(kind), string(OutcomeUpdated), kr.Updated)
	m.metrics.AddRecords(string(kind), string(OutcomeSkipped), kr.Skipped)
	if err != nil {
		kr.Err = err.Error()
		m.metrics.IncKindFailure(string(kind))
		m.log.Error().Err(err).Str("kind", string(kind)).Time("since", since).Msg("error sincronizando colección")
		return kr
	}

	m.mu.Lock()
	m.lastSync[kind] = start
	m.mu.Unlock()
	if kr.Created+kr.Updated > 0 {
		m.log.Info().Str("kind", string(kind)).Int("created", kr.Created).Int("updated", kr.Updated).
			Msg("cambios remotos aplicados")
	}
	return kr
}
