package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// Outcome qué pasó con un registro remoto al aplicarlo localmente.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
)

// kindSyncer trae los cambios de una colección desde el remoto.
type kindSyncer interface {
	kind() entity.Kind
	pull(ctx context.Context, since time.Time) (KindReport, error)
}

// recordSyncer sincroniza una colección copiando los registros tal cual (timestamps incluidos).
type recordSyncer[E any, R entity.Ptr[E]] struct {
	k      entity.Kind
	remote repository.Store[R]
	local  repository.Store[R]
	// apply reemplaza la regla por defecto (ej. stock pasa por el ledger).
	apply func(ctx context.Context, rec R) (Outcome, error)
}

func (s *recordSyncer[E, R]) kind() entity.Kind { return s.k }

func (s *recordSyncer[E, R]) pull(ctx context.Context, since time.Time) (KindReport, error) {
	rep := KindReport{Kind: s.k, Since: since}
	recs, err := s.remote.ListModifiedSince(ctx, since)
	if err != nil {
		return rep, fmt.Errorf("%s: leer remoto: %w", s.k, err)
	}
	rep.Pulled = len(recs)

	apply := s.apply
	if apply == nil {
		apply = s.replaceIfChanged
	}
	for _, rec := range recs {
		out, err := apply(ctx, rec)
		if err != nil {
			return rep, fmt.Errorf("%s %s: %w", s.k, rec.Base().ID, err)
		}
		rep.add(out)
	}
	return rep, nil
}

// replaceIfChanged crea el registro si no existe localmente y lo reemplaza si UpdatedAt difiere.
func (s *recordSyncer[E, R]) replaceIfChanged(ctx context.Context, rec R) (Outcome, error) {
	cur, err := s.local.GetByID(ctx, rec.Base().ID)
	if err != nil {
		return "", fmt.Errorf("leer local: %w", err)
	}
	out := OutcomeCreated
	if (*E)(cur) != nil {
		if cur.Base().UpdatedAt.Equal(rec.Base().UpdatedAt) {
			return OutcomeUnchanged, nil
		}
		out = OutcomeUpdated
	}
	if err := s.local.Replace(ctx, rec); err != nil {
		return "", fmt.Errorf("guardar local: %w", err)
	}
	return out, nil
}

// buildKinds arma los sincronizadores en el orden de entity.SyncedKinds.
func buildKinds(remote, local repository.Repositories, ledger *stock.Ledger) []kindSyncer {
	kinds := make([]kindSyncer, 0, len(entity.SyncedKinds))
	for _, k := range entity.SyncedKinds {
		switch k {
		case entity.KindCustomers:
			kinds = append(kinds, &recordSyncer[entity.Customer, *entity.Customer]{k: k, remote: remote.Customers, local: local.Customers})
		case entity.KindCategories:
			kinds = append(kinds, &recordSyncer[entity.Category, *entity.Category]{k: k, remote: remote.Categories, local: local.Categories})
		case entity.KindProducts:
			kinds = append(kinds, &recordSyncer[entity.Product, *entity.Product]{k: k, remote: remote.Products, local: local.Products})
		case entity.KindStock:
			kinds = append(kinds, &recordSyncer[entity.StockEntry, *entity.StockEntry]{
				k: k, remote: remote.Stock, local: local.Stock,
				apply: func(ctx context.Context, rec *entity.StockEntry) (Outcome, error) {
					res, err := ledger.ReconcileRemote(ctx, rec)
					return fromReconcile(res), err
				},
			})
		case entity.KindSales:
			kinds = append(kinds, &recordSyncer[entity.Sale, *entity.Sale]{k: k, remote: remote.Sales, local: local.Sales})
		}
	}
	return kinds
}

func fromReconcile(r stock.ReconcileOutcome) Outcome {
	switch r {
	case stock.ReconcileCreated:
		return OutcomeCreated
	case stock.ReconcileUpdated:
		return OutcomeUpdated
	case stock.ReconcileSkipped:
		return OutcomeSkipped
	default:
		return OutcomeUnchanged
	}
}
