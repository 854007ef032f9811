package stock

import (
	"sort"
	"sync"
)

// KeyedLocker exclusión mutua por clave (ID de producto). Las entradas sin uso se liberan.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyLock)}
}

// Lock bloquea todas las claves (sin duplicados, en orden ascendente para evitar deadlocks)
// y devuelve la función que las libera. Llamar a la función más de una vez no tiene efecto.
func (k *KeyedLocker) Lock(keys ...string) func() {
	ordered := uniqueSorted(keys)
	held := make([]*keyLock, 0, len(ordered))
	for _, key := range ordered {
		l := k.acquire(key)
		l.mu.Lock()
		held = append(held, l)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				k.release(ordered[i])
			}
		})
	}
}

func (k *KeyedLocker) acquire(key string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *KeyedLocker) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size cantidad de claves con referencias vivas (tests).
func (k *KeyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
