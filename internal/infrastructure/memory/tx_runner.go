package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks con repositorios cuyas escrituras se revierten si fn falla.
// Las transacciones se serializan entre sí.
type TxRunner struct {
	db *DB
}

func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn; si devuelve error o hace panic se deshacen todas sus escrituras.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	r.db.txMu.Lock()
	defer r.db.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			r.rollback(j)
			panic(p)
		}
		if err != nil {
			r.rollback(j)
		}
	}()
	return fn(r.db.repos(j))
}

func (r *TxRunner) rollback(j *journal) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	j.rollback()
}
