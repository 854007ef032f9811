package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 10*time.Second, cfg.Sync.Backoff)
	assert.Equal(t, 5*time.Minute, cfg.Sync.InitialLookback)
	assert.True(t, cfg.Sync.AutoStart)
	assert.False(t, cfg.Remote.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestFromViper_DuracionEnSegundosYTexto(t *testing.T) {
	v := viper.New()
	v.Set("SYNC_INTERVAL", "45")
	v.Set("SYNC_BACKOFF", "2s")
	v.Set("SYNC_INITIAL_LOOKBACK", "1h")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 2*time.Second, cfg.Sync.Backoff)
	assert.Equal(t, time.Hour, cfg.Sync.InitialLookback)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "mongo")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_IntervaloNoPositivo(t *testing.T) {
	v := viper.New()
	v.Set("SYNC_INTERVAL", "0")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ventas", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ventas?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
