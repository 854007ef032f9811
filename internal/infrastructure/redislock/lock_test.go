package redislock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore emula SET NX y el comparar-y-borrar bajo un mutex, como los ejecuta Redis.
type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
	delErr error
}

func newFakeStore() *fakeStore { return &fakeStore{values: map[string]string{}} }

func (f *fakeStore) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return false, f.delErr
	}
	if f.values[key] != value {
		return false, nil
	}
	delete(f.values, key)
	return true, nil
}

func (f *fakeStore) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeStore) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// ----------------------------------------------------------------------------
// Lock
// ----------------------------------------------------------------------------

func TestLock_AcquireRelease(t *testing.T) {
	store := newFakeStore()
	a, err := NewLock(store, "sync", time.Minute)
	require.NoError(t, err)
	b, err := NewLock(store, "sync", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b nunca tomó la clave: soltar no la toca
	require.NoError(t, b.Release(ctx))
	_, held := store.get("sync")
	assert.True(t, held)

	require.NoError(t, a.Release(ctx))
	_, held = store.get("sync")
	assert.False(t, held)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_NoBorraLockAjeno(t *testing.T) {
	store := newFakeStore()
	l, _ := NewLock(store, "sync", 0)
	ctx := context.Background()

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// el TTL expiró y otra instancia tomó la clave
	store.set("sync", "otro")
	require.NoError(t, l.Release(ctx))
	v, _ := store.get("sync")
	assert.Equal(t, "otro", v)
}

func TestLock_ErroresDeRedis(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("conexión rechazada")
	l, _ := NewLock(store, "sync", time.Minute)
	ctx := context.Background()

	_, err := l.Acquire(ctx)
	assert.ErrorContains(t, err, "conexión rechazada")

	store.setErr = nil
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.delErr = errors.New("timeout")
	assert.ErrorContains(t, l.Release(ctx), "timeout")
}

func TestLock_InstanciasConcurrentes(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		l, err := NewLock(store, "sync", time.Minute)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ok, err := l.Acquire(ctx)
				if err != nil || !ok {
					continue
				}
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()
				time.Sleep(time.Microsecond)
				mu.Lock()
				holders--
				mu.Unlock()
				_ = l.Release(ctx)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestNewLock_Validacion(t *testing.T) {
	_, err := NewLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewLock(newFakeStore(), "", 0)
	assert.Error(t, err)

	l, err := NewLock(newFakeStore(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTTL, l.ttl)
}

// ----------------------------------------------------------------------------
// Client (script de liberación)
// ----------------------------------------------------------------------------

// fakeScripter responde EVALSHA con el resultado del script sobre un mapa en memoria.
type fakeScripter struct {
	values map[string]string
	keys   []string
	args   []any
}

func (f *fakeScripter) release(keys []string, args ...any) *redis.Cmd {
	f.keys, f.args = keys, args
	if f.values[keys[0]] == args[0] {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeScripter) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(keys, args...)
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(keys, args...)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, sha, keys, args...)
}

func (f *fakeScripter) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeScripter) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (f *fakeScripter) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeScripter) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func TestClient_CompareAndDelete(t *testing.T) {
	fake := &fakeScripter{values: map[string]string{"sync": "token-a"}}
	c := &Client{rdb: fake}
	ctx := context.Background()

	ok, err := c.CompareAndDelete(ctx, "sync", "token-b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "token-a", fake.values["sync"])

	ok, err = c.CompareAndDelete(ctx, "sync", "token-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotContains(t, fake.values, "sync")
	assert.Equal(t, []string{"sync"}, fake.keys)
	assert.Equal(t, []any{"token-a"}, fake.args)

	// Lock sobre el Client real: toma y suelta por el script
	l, err := NewLock(c, "sync", time.Minute)
	require.NoError(t, err)
	acquired, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, l.Release(ctx))
	assert.NotContains(t, fake.values, "sync")
	assert.NoError(t, c.Close())
}
