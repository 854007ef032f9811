package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// table filas de una colección, indexadas por ID. Protegida por DB.mu.
type table[E any, R entity.Ptr[E]] struct {
	kind entity.Kind
	rows map[string]E
	// unique devuelve true si a y b violan una restricción de unicidad (ej. un stock por producto).
	unique func(a, b *E) bool
}

func newTable[E any, R entity.Ptr[E]](kind entity.Kind, unique func(a, b *E) bool) *table[E, R] {
	return &table[E, R]{kind: kind, rows: make(map[string]E), unique: unique}
}

// journal registra cómo deshacer las escrituras de una transacción, en orden.
type journal struct {
	undo []func()
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// store implementa repository.Store[R] sobre una tabla en memoria.
// Con j != nil las escrituras se registran para poder revertirse.
type store[E any, R entity.Ptr[E]] struct {
	db *DB
	t  *table[E, R]
	j  *journal
}

func (s *store[E, R]) now() time.Time {
	return normalize(s.db.now())
}

func normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func meta[E any, R entity.Ptr[E]](e *E) *entity.Meta { return R(e).Base() }

// put escribe la fila registrando el valor previo en el journal. Requiere db.mu tomado.
func (s *store[E, R]) put(e E) {
	id := meta[E, R](&e).ID
	prev, existed := s.t.rows[id]
	s.t.rows[id] = e
	if s.j != nil {
		rows := s.t.rows
		s.j.undo = append(s.j.undo, func() {
			if existed {
				rows[id] = prev
			} else {
				delete(rows, id)
			}
		})
	}
}

func (s *store[E, R]) remove(id string) {
	prev, existed := s.t.rows[id]
	if !existed {
		return
	}
	delete(s.t.rows, id)
	if s.j != nil {
		rows := s.t.rows
		s.j.undo = append(s.j.undo, func() { rows[id] = prev })
	}
}

func (s *store[E, R]) checkUnique(e *E) error {
	if s.t.unique == nil {
		return nil
	}
	id := meta[E, R](e).ID
	for otherID, other := range s.t.rows {
		if otherID == id {
			continue
		}
		if s.t.unique(e, &other) {
			return fmt.Errorf("%s %s: %w", s.t.kind, id, domain.ErrDuplicate)
		}
	}
	return nil
}

func (s *store[E, R]) Create(ctx context.Context, rec R) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := (*E)(rec)
	if p == nil {
		return domain.ErrInvalidInput
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m := rec.Base()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, exists := s.t.rows[m.ID]; exists {
		return fmt.Errorf("%s %s: %w", s.t.kind, m.ID, domain.ErrDuplicate)
	}
	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.CreatedAt = normalize(m.CreatedAt)
	m.UpdatedAt = normalize(m.UpdatedAt)
	m.Active = true
	if err := s.checkUnique(p); err != nil {
		return err
	}
	s.put(*p)
	return nil
}

func (s *store[E, R]) GetByID(ctx context.Context, id string) (R, error) {
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.t.rows[id]
	if !ok {
		return zero, nil
	}
	return R(&e), nil
}

func (s *store[E, R]) ListAll(ctx context.Context, activeOnly bool) ([]R, error) {
	return s.list(ctx, func(e *E) bool {
		return !activeOnly || meta[E, R](e).Active
	})
}

// list devuelve copias de las filas que cumplen keep, ordenadas por CreatedAt e ID.
func (s *store[E, R]) list(ctx context.Context, keep func(e *E) bool) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	out := make([]R, 0, len(s.t.rows))
	for _, e := range s.t.rows {
		e := e
		if keep == nil || keep(&e) {
			out = append(out, R(&e))
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Base(), out[j].Base()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *store[E, R]) Update(ctx context.Context, rec R) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := (*E)(rec)
	if p == nil {
		return domain.ErrInvalidInput
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m := rec.Base()
	cur, ok := s.t.rows[m.ID]
	if !ok {
		return fmt.Errorf("%s %s: %w", s.t.kind, m.ID, domain.ErrNotFound)
	}
	m.CreatedAt = meta[E, R](&cur).CreatedAt
	m.UpdatedAt = s.now()
	if err := s.checkUnique(p); err != nil {
		return err
	}
	s.put(*p)
	return nil
}

func (s *store[E, R]) SoftDelete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.t.rows[id]
	if !ok {
		return false, nil
	}
	m := meta[E, R](&e)
	m.Active = false
	m.UpdatedAt = s.now()
	s.put(e)
	return true, nil
}

func (s *store[E, R]) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.t.rows[id]; !ok {
		return false, nil
	}
	s.remove(id)
	return true, nil
}

func (s *store[E, R]) ListModifiedSince(ctx context.Context, since time.Time) ([]R, error) {
	return s.list(ctx, func(e *E) bool {
		return !meta[E, R](e).UpdatedAt.Before(since)
	})
}

func (s *store[E, R]) Replace(ctx context.Context, rec R) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := (*E)(rec)
	if p == nil || rec.Base().ID == "" {
		return domain.ErrInvalidInput
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e := *p
	m := meta[E, R](&e)
	m.CreatedAt = normalize(m.CreatedAt)
	m.UpdatedAt = normalize(m.UpdatedAt)
	if err := s.checkUnique(&e); err != nil {
		return err
	}
	s.put(e)
	return nil
}

// first devuelve la primera fila (por orden estable) que cumple match, o nil.
func (s *store[E, R]) first(ctx context.Context, match func(e *E) bool) (R, error) {
	var zero R
	all, err := s.list(ctx, match)
	if err != nil || len(all) == 0 {
		return zero, err
	}
	return all[0], nil
}
