package dto

import "time"

// SyncStatusResponse estado del sincronizador.
type SyncStatusResponse struct {
	Running           bool                 `json:"running"`
	IntervalSeconds   int                  `json:"interval_seconds"`
	LastSyncPerEntity map[string]time.Time `json:"last_sync_per_entity"`
	LastReport        *SyncReportDTO       `json:"last_report,omitempty"`
}

// SyncReportDTO resultado de un ciclo.
type SyncReportDTO struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	LockBusy   bool          `json:"lock_busy,omitempty"`
	Kinds      []SyncKindDTO `json:"kinds"`
}

type SyncKindDTO struct {
	Kind      string    `json:"kind"`
	Since     time.Time `json:"since"`
	Pulled    int       `json:"pulled"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
}
