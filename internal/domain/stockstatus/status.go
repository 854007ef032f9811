// Package stockstatus clasifica el nivel de stock de un producto (servicio de dominio puro).
package stockstatus

// Status clasificación derivada de (cantidad, mínimo).
type Status string

const (
	Out   Status = "out"   // sin stock
	Low   Status = "low"   // en o por debajo del mínimo
	Watch Status = "watch" // hasta el doble del mínimo
	OK    Status = "ok"
)

// Classify aplica la regla:
//
//	cantidad <= 0            → out
//	0 < cantidad <= mínimo   → low
//	mínimo < cantidad <= 2×m → watch
//	resto                    → ok
func Classify(quantity, minimum int) Status {
	switch {
	case quantity <= 0:
		return Out
	case quantity <= minimum:
		return Low
	case quantity <= 2*minimum:
		return Watch
	default:
		return OK
	}
}

// Priority orden de criticidad para listados (menor = más crítico).
func Priority(s Status) int {
	switch s {
	case Out:
		return 0
	case Low:
		return 1
	case Watch:
		return 2
	default:
		return 3
	}
}

// Label texto para la interfaz.
func (s Status) Label() string {
	switch s {
	case Out:
		return "Sin stock"
	case Low:
		return "Stock bajo"
	case Watch:
		return "Atención"
	default:
		return "OK"
	}
}

// Parse convierte un filtro de query string; ok=false si no es un estado conocido.
func Parse(s string) (Status, bool) {
	switch Status(s) {
	case Out, Low, Watch, OK:
		return Status(s), true
	}
	return "", false
}
