package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/ventas-api/internal/application/catalog"
	"github.com/jhoicas/ventas-api/internal/application/dashboard"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/pkg/jwt"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *catalog.ProductUseCase
	CategoryUC  *catalog.CategoryUseCase
	CustomerUC  *catalog.CustomerUseCase
	Ledger      *stock.Ledger
	Sales       *sales.Processor
	Receipts    *sales.ReceiptUseCase
	DashboardUC *dashboard.UseCase
	Sync        syncController

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer // nil = sin /metrics
	AppName     string
	JWTSecret   string // vacío = /api sin autenticación
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.HTTPMetrics != nil {
		app.Use(MetricsMiddleware(deps.HTTPMetrics))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Rutas protegidas (Bearer Token cuando hay JWT_SECRET)
	api := app.Group("/api")
	adminOnly := func(c *fiber.Ctx) error { return c.Next() }
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret))
		adminOnly = RequireRole(jwt.RoleAdmin)
	}

	customers := api.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", customerHandler.Delete)

	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Post("/", categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", categoryHandler.Delete)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	stockGroup := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.ProductUC)
	stockGroup.Get("/", stockHandler.List)
	stockGroup.Get("/:product_id", stockHandler.Get)
	stockGroup.Put("/:product_id", stockHandler.Set)
	stockGroup.Post("/:product_id/adjust", stockHandler.Adjust)

	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales, deps.Receipts)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Post("/quick", saleHandler.Quick)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Sincronización: el estado es público para cualquier rol; el control solo para admin
	syncGroup := api.Group("/sync")
	syncHandler := NewSyncHandler(deps.Sync)
	syncGroup.Get("/status", syncHandler.Status)
	syncGroup.Post("/start", adminOnly, syncHandler.Start)
	syncGroup.Post("/stop", adminOnly, syncHandler.Stop)
	syncGroup.Post("/force", adminOnly, syncHandler.Force)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard", dashboardHandler.GetSummary)
}
