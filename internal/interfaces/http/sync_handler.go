package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/syncer"
)

// syncController contrato mínimo del sincronizador que usa el handler (lo implementa *syncer.Manager).
type syncController interface {
	Start() bool
	Stop(ctx context.Context) error
	ForceSync()
	Status() syncer.Status
}

// SyncHandler control y estado del loop de sincronización.
type SyncHandler struct {
	sync syncController
}

func NewSyncHandler(s syncController) *SyncHandler {
	return &SyncHandler{sync: s}
}

// Status GET /api/sync/status
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(toSyncStatus(h.sync.Status()))
}

// Start POST /api/sync/start. Idempotente: si ya corría responde started=false.
func (h *SyncHandler) Start(c *fiber.Ctx) error {
	started := h.sync.Start()
	return c.JSON(fiber.Map{"started": started, "status": toSyncStatus(h.sync.Status())})
}

// Stop POST /api/sync/stop. Espera a que termine el ciclo en curso (máximo 15 s).
func (h *SyncHandler) Stop(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()
	if err := h.sync.Stop(ctx); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"stopped": true, "status": toSyncStatus(h.sync.Status())})
}

// Force POST /api/sync/force. Lanza un ciclo en segundo plano y responde 202.
func (h *SyncHandler) Force(c *fiber.Ctx) error {
	h.sync.ForceSync()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

func toSyncStatus(st syncer.Status) dto.SyncStatusResponse {
	out := dto.SyncStatusResponse{
		Running:           st.Running,
		IntervalSeconds:   int(st.Interval / time.Second),
		LastSyncPerEntity: make(map[string]time.Time, len(st.LastSync)),
	}
	for k, t := range st.LastSync {
		out.LastSyncPerEntity[string(k)] = t
	}
	if r := st.LastReport; r != nil {
		rep := &dto.SyncReportDTO{StartedAt: r.StartedAt, FinishedAt: r.FinishedAt, LockBusy: r.LockBusy}
		for _, k := range r.Kinds {
			rep.Kinds = append(rep.Kinds, dto.SyncKindDTO{
				Kind:      string(k.Kind),
				Since:     k.Since,
				Pulled:    k.Pulled,
				Created:   k.Created,
				Updated:   k.Updated,
				Unchanged: k.Unchanged,
				Skipped:   k.Skipped,
				Error:     k.Err,
			})
		}
		out.LastReport = rep
	}
	return out
}
