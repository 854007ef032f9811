package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/ventas-api/internal/application/catalog"
	"github.com/jhoicas/ventas-api/internal/application/dashboard"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/application/syncer"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/ventas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ventas-api/internal/infrastructure/redislock"
	httpRouter "github.com/jhoicas/ventas-api/internal/interfaces/http"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// txRunner lo implementan postgres.TxRunner y memory.TxRunner.
type txRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// store almacenamiento ya conectado.
type store struct {
	repos repository.Repositories
	tx    txRunner
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Bool("remote", cfg.Remote.Enabled()).
		Msg("iniciando aplicación")

	ctx := context.Background()

	local, err := openLocal(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento local")
	}
	defer local.close()

	remote, err := openRemote(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento remoto")
	}
	defer remote.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ledger := stock.NewLedger(local.tx, local.repos, log)
	processor := sales.NewProcessor(local.tx, local.repos, ledger, metrics.NewSalesMetrics(reg), log)
	receiptUC := sales.NewReceiptUseCase(local.repos, infrapdf.NewMarotoReceiptGenerator(), cfg.App.Name)

	syncParams := syncer.Params{
		Remote:          remote.repos,
		Local:           local.repos,
		Ledger:          ledger,
		Interval:        cfg.Sync.Interval,
		Backoff:         cfg.Sync.Backoff,
		InitialLookback: cfg.Sync.InitialLookback,
		Metrics:         metrics.NewSyncMetrics(reg),
		Logger:          log,
	}
	// Lock distribuido: solo una instancia sincroniza a la vez
	if cfg.Redis.Addr != "" {
		rdb, err := redislock.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		lock, err := redislock.NewLock(rdb, cfg.Sync.LockKey, cfg.Sync.LockTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("lock de sincronización")
		}
		syncParams.Lock = lock
	}
	syncManager, err := syncer.NewManager(syncParams)
	if err != nil {
		log.Fatal().Err(err).Msg("sincronizador")
	}
	if cfg.Sync.AutoStart {
		syncManager.Start()
	}

	productUC := catalog.NewProductUseCase(local.tx, local.repos, ledger)
	categoryUC := catalog.NewCategoryUseCase(local.repos.Categories)
	customerUC := catalog.NewCustomerUseCase(local.repos.Customers)
	dashboardUC := dashboard.NewUseCase(local.repos, ledger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.Swagger {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Ventas API",
		}))
	}

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: /api queda sin autenticación")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   productUC,
		CategoryUC:  categoryUC,
		CustomerUC:  customerUC,
		Ledger:      ledger,
		Sales:       processor,
		Receipts:    receiptUC,
		DashboardUC: dashboardUC,
		Sync:        syncManager,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
		AppName:     cfg.App.Name,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := syncManager.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("detener sincronizador")
	}

	log.Info().Msg("aplicación detenida")
}

// openLocal abre el almacenamiento local según STORE_DRIVER.
func openLocal(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("almacenamiento local en memoria: los datos se pierden al reiniciar")
		db := memory.New()
		return &store{repos: db.Repositories(), tx: memory.NewTxRunner(db), close: func() {}}, nil
	}
	return openPostgres(ctx, cfg.DB.ConnectionString(), poolOptions(cfg.DB), cfg.Store.AutoMigrate, log)
}

// openRemote abre el remoto; sin REMOTE_DATABASE_URL usa uno vacío en memoria.
func openRemote(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	if !cfg.Remote.Enabled() {
		log.Warn().Msg("REMOTE_DATABASE_URL vacío: sincronización contra un remoto vacío")
		db := memory.New()
		return &store{repos: db.Repositories(), tx: memory.NewTxRunner(db), close: func() {}}, nil
	}
	// El esquema remoto lo administra su dueño; aquí no se migra.
	return openPostgres(ctx, cfg.Remote.DatabaseURL, poolOptions(cfg.DB), false, log)
}

func poolOptions(db config.DBConfig) postgres.PoolOptions {
	return postgres.PoolOptions{MaxConns: int32(db.MaxConns), MinConns: 2, ForceIPv4: db.ForceIPv4}
}

func openPostgres(ctx context.Context, dsn string, opts postgres.PoolOptions, migrate bool, log *logger.Logger) (*store, error) {
	pool, err := postgres.NewPool(ctx, dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &store{repos: postgres.NewRepositories(pool), tx: postgres.NewTxRunner(pool), close: pool.Close}, nil
}
