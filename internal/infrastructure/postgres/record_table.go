package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// tableDef describe cómo mapear una entidad a su tabla. Las columnas id, created_at, updated_at y active
// son comunes y van primero; cols/fields/values describen el resto en el mismo orden.
type tableDef[E any] struct {
	name   string
	cols   []string
	fields func(e *E) []any // destinos para Scan
	values func(e *E) []any // argumentos para INSERT/UPDATE
}

var metaCols = []string{"id", "created_at", "updated_at", "active"}

func (d tableDef[E]) selectSQL() string {
	return "SELECT " + strings.Join(append(append([]string{}, metaCols...), d.cols...), ", ") + " FROM " + d.name
}

// recordTable implementación genérica de repository.Store[R] sobre una tabla.
type recordTable[E any, R entity.Ptr[E]] struct {
	q   Querier
	def tableDef[E]
	now func() time.Time
}

func newRecordTable[E any, R entity.Ptr[E]](q Querier, def tableDef[E]) recordTable[E, R] {
	return recordTable[E, R]{q: q, def: def, now: time.Now}
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func (t *recordTable[E, R]) scanRow(row pgx.Row) (R, error) {
	var e E
	m := R(&e).Base()
	dest := append([]any{&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Active}, t.def.fields(&e)...)
	if err := row.Scan(dest...); err != nil {
		var zero R
		return zero, err
	}
	m.CreatedAt = stamp(m.CreatedAt)
	m.UpdatedAt = stamp(m.UpdatedAt)
	return R(&e), nil
}

func (t *recordTable[E, R]) args(rec R) []any {
	m := rec.Base()
	return append([]any{m.ID, m.CreatedAt, m.UpdatedAt, m.Active}, t.def.values((*E)(rec))...)
}

func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

func (t *recordTable[E, R]) Create(ctx context.Context, rec R) error {
	m := rec.Base()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t.now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.CreatedAt = stamp(m.CreatedAt)
	m.UpdatedAt = stamp(m.UpdatedAt)
	m.Active = true

	n := len(metaCols) + len(t.def.cols)
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s)",
		t.def.name, strings.Join(metaCols, ", "), strings.Join(t.def.cols, ", "), placeholders(1, n))
	if _, err := t.q.Exec(ctx, query, t.args(rec)...); err != nil {
		return wrapErr("insert "+t.def.name, err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (t *recordTable[E, R]) GetByID(ctx context.Context, id string) (R, error) {
	rec, err := t.scanRow(t.q.QueryRow(ctx, t.def.selectSQL()+" WHERE id = $1", id))
	if err != nil {
		var zero R
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, nil
		}
		return zero, wrapErr("get "+t.def.name, err)
	}
	return rec, nil
}

func (t *recordTable[E, R]) ListAll(ctx context.Context, activeOnly bool) ([]R, error) {
	return t.query(ctx, "list "+t.def.name, " WHERE ($1 = false OR active) ORDER BY created_at, id", activeOnly)
}

func (t *recordTable[E, R]) ListModifiedSince(ctx context.Context, since time.Time) ([]R, error) {
	return t.query(ctx, "list modified "+t.def.name, " WHERE updated_at >= $1 ORDER BY created_at, id", since.UTC())
}

// query ejecuta selectSQL + where y escanea todas las filas.
func (t *recordTable[E, R]) query(ctx context.Context, op, where string, args ...any) ([]R, error) {
	rows, err := t.q.Query(ctx, t.def.selectSQL()+where, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var list []R
	for rows.Next() {
		rec, err := t.scanRow(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}

// Update reemplaza todos los campos salvo created_at, que se devuelve en rec.
func (t *recordTable[E, R]) Update(ctx context.Context, rec R) error {
	m := rec.Base()
	m.UpdatedAt = stamp(t.now())

	sets := []string{"updated_at = $2", "active = $3"}
	for i, c := range t.def.cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+4))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING created_at", t.def.name, strings.Join(sets, ", "))
	args := append([]any{m.ID, m.UpdatedAt, m.Active}, t.def.values((*E)(rec))...)

	var created time.Time
	if err := t.q.QueryRow(ctx, query, args...).Scan(&created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", t.def.name, m.ID, domain.ErrNotFound)
		}
		return wrapErr("update "+t.def.name, err)
	}
	m.CreatedAt = stamp(created)
	return nil
}

func (t *recordTable[E, R]) SoftDelete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET active = false, updated_at = $2 WHERE id = $1", t.def.name)
	tag, err := t.q.Exec(ctx, query, id, stamp(t.now()))
	if err != nil {
		return false, wrapErr("soft delete "+t.def.name, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *recordTable[E, R]) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := t.q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.def.name), id)
	if err != nil {
		return false, wrapErr("delete "+t.def.name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Replace upsert por id que conserva los timestamps del registro.
func (t *recordTable[E, R]) Replace(ctx context.Context, rec R) error {
	m := rec.Base()
	if m.ID == "" {
		return domain.ErrInvalidInput
	}
	m.CreatedAt = stamp(m.CreatedAt)
	m.UpdatedAt = stamp(m.UpdatedAt)

	all := append(append([]string{}, metaCols...), t.def.cols...)
	sets := make([]string, 0, len(all)-1)
	for _, c := range all[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		t.def.name, strings.Join(all, ", "), placeholders(1, len(all)), strings.Join(sets, ", "))
	if _, err := t.q.Exec(ctx, query, t.args(rec)...); err != nil {
		return wrapErr("replace "+t.def.name, err)
	}
	return nil
}
