// Package redislock implementa el lock distribuido del sincronizador: SET NX con TTL para tomarlo
// y un script Lua de comparar-y-borrar para soltarlo.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ventas-api/internal/application/syncer"
)

var _ syncer.CycleLock = (*Lock)(nil)

const defaultTTL = 2 * time.Minute

// store operaciones atómicas del lock (Client o un fake en tests).
type store interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// Lock un dueño por clave. Si la instancia muere a mitad de ciclo el TTL libera la clave.
type Lock struct {
	client store
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

func NewLock(client store, key string, ttl time.Duration) (*Lock, error) {
	switch {
	case client == nil:
		return nil, errors.New("redislock: cliente requerido")
	case key == "":
		return nil, errors.New("redislock: clave requerida")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Lock{client: client, key: key, ttl: ttl}, nil
}

// Acquire intenta tomar la clave con un token nuevo. false si otra instancia la tiene.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("redislock: tomar %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release suelta la clave si sigue siendo de esta instancia; una clave ajena no se toca.
func (l *Lock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, l.token); err != nil {
		return fmt.Errorf("redislock: soltar %s: %w", l.key, err)
	}
	l.token = ""
	return nil
}
