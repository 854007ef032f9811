package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// fallbackDNS se consulta cuando el resolver del sistema no devuelve registros A.
const fallbackDNS = "8.8.8.8:53"

var errNoIPv4 = errors.New("sin dirección IPv4")

// PoolOptions ajustes del pool compartidos por el almacenamiento local y el remoto.
type PoolOptions struct {
	MaxConns  int32
	MinConns  int32
	ForceIPv4 bool // contenedores sin IPv6 contra hosts que resuelven AAAA (ej. Supabase)
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 25
	}
	if o.MinConns < 0 || o.MinConns > o.MaxConns {
		o.MinConns = 0
	}
	return o
}

// NewPool abre y verifica un pool pgx para el DSN dado. Todas las conexiones registran
// el codec NUMERIC <-> decimal.Decimal.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if opts.ForceIPv4 {
		poolConfig.ConnConfig.DialFunc = ipv4Dialer(newIPv4Resolver())
	}

	poolConfig.MaxConns = opts.MaxConns
	poolConfig.MinConns = opts.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapErr("crear pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapErr("ping DB", err)
	}
	return pool, nil
}

// lookupFunc resuelve registros A de un host.
type lookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// ipv4Resolver prueba cada lookup en orden y devuelve la primera IPv4 encontrada.
type ipv4Resolver struct {
	lookups []lookupFunc
}

func newIPv4Resolver() *ipv4Resolver {
	public := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", fallbackDNS)
		},
	}
	return &ipv4Resolver{lookups: []lookupFunc{
		func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip4", host)
		},
		func(ctx context.Context, host string) ([]net.IP, error) {
			return public.LookupIP(ctx, "ip4", host)
		},
	}}
}

func (r *ipv4Resolver) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errNoIPv4
	}
	lastErr := errNoIPv4
	for _, lookup := range r.lookups {
		ips, err := lookup(ctx, host)
		if err != nil {
			lastErr = err
			continue
		}
		for _, ip := range ips {
			if v4 := ip.To4(); v4 != nil {
				return v4.String(), nil
			}
		}
	}
	return "", lastErr
}

// ipv4Dialer marca por tcp4 cuando el host tiene IPv4; si no, deja el dial normal.
func ipv4Dialer(r *ipv4Resolver) pgconnDialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ip, err := r.resolve(ctx, host)
		if err != nil {
			return d.DialContext(ctx, network, addr)
		}
		return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
	}
}

type pgconnDialFunc = func(ctx context.Context, network, addr string) (net.Conn, error)
