package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics métricas del loop de sincronización remoto -> local.
type SyncMetrics struct {
	cycles   *prometheus.CounterVec
	duration prometheus.Histogram
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	lastOK   prometheus.Gauge
}

// NewSyncMetrics registra las métricas de sincronización en el registerer dado.
// Con reg nil devuelve un recolector inerte.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Ciclos de sincronización por resultado.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_cycle_duration_seconds",
			Help:    "Duración de cada ciclo de sincronización.",
			Buckets: prometheus.DefBuckets,
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_total",
			Help: "Registros procesados por tipo y resultado.",
		}, []string{"kind", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_kind_failures_total",
			Help: "Fallos al sincronizar un tipo de registro.",
		}, []string{"kind"}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Instante del último ciclo completado sin errores.",
		}),
	}
	reg.MustRegister(m.cycles, m.duration, m.records, m.failures, m.lastOK)
	return m
}

// ObserveCycle registra un ciclo terminado.
func (m *SyncMetrics) ObserveCycle(result string, d time.Duration) {
	if m == nil || m.cycles == nil {
		return
	}
	m.cycles.WithLabelValues(normalizeLabel(result)).Inc()
	m.duration.Observe(d.Seconds())
}

// AddRecords suma n registros del tipo kind con el resultado outcome.
func (m *SyncMetrics) AddRecords(kind, outcome string, n int) {
	if m == nil || m.records == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Add(float64(n))
}

// IncKindFailure incrementa los fallos del tipo kind.
func (m *SyncMetrics) IncKindFailure(kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// SetLastSuccess fija el gauge del último ciclo exitoso.
func (m *SyncMetrics) SetLastSuccess(t time.Time) {
	if m == nil || m.lastOK == nil {
		return
	}
	m.lastOK.Set(float64(t.Unix()))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
