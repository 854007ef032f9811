package metrics

import "github.com/prometheus/client_golang/prometheus"

// SalesMetrics contadores de ventas confirmadas y rechazadas.
type SalesMetrics struct {
	completed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

func NewSalesMetrics(reg prometheus.Registerer) *SalesMetrics {
	if reg == nil {
		return &SalesMetrics{}
	}
	m := &SalesMetrics{
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_completed_total",
			Help: "Ventas confirmadas por tipo (normal, quick).",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_rejected_total",
			Help: "Ventas rechazadas por motivo.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.completed, m.rejected)
	return m
}

func (m *SalesMetrics) IncCompleted(saleType string) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(saleType)).Inc()
}

func (m *SalesMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
