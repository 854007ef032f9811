package syncer

import (
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// KindReport resultado de sincronizar una colección en un ciclo.
type KindReport struct {
	Kind      entity.Kind
	Since     time.Time
	Pulled    int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Err       string
}

func (r *KindReport) add(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Unchanged++
	}
}

// Report resultado de un ciclo. LockBusy indica que otra instancia tenía el lock y el ciclo no corrió.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	LockBusy   bool
	Kinds      []KindReport
}

// Failed cantidad de colecciones con error.
func (r *Report) Failed() int {
	n := 0
	for _, k := range r.Kinds {
		if k.Err != "" {
			n++
		}
	}
	return n
}

// Status estado observable del sincronizador.
type Status struct {
	Running    bool
	LastSync   map[entity.Kind]time.Time
	Interval   time.Duration
	LastReport *Report
}
