package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/config"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/presentation/http/middleware"
	"github.com/sangkips/atelier-api/pkg/logger"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Material   *handler.MaterialHandler
	Stock      *handler.StockHandler
	Production *handler.ProductionHandler
	Payroll    *handler.PayrollHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	Log             *logger.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	Locker          lock.Locker
}

// Setup creates the Gin router and registers all routes. ctx bounds the rate limiter's
// background cleanup.
func Setup(ctx context.Context, h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.Use(middleware.ActorMiddleware())

		rateLimiter := middleware.NewActorRateLimiter(ctx, middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		v1.Use(rateLimiter.Middleware())

		v1.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Locker: deps.Locker,
			TTL:    deps.Cfg.Idempotency.TTL,
			Log:    deps.Log,
		}))

		registerMaterialRoutes(v1, h)
		registerStockRoutes(v1, h)
		registerProductRoutes(v1, h)
		registerProductionRoutes(v1, h)
		registerCustomOrderRoutes(v1, h)
		registerPayrollRoutes(v1, h)
	}

	return router
}

func registerMaterialRoutes(v1 *gin.RouterGroup, h *Handlers) {
	materials := v1.Group("/materials")
	{
		materials.GET("", h.Material.List)
		materials.POST("", h.Material.Create)
		materials.GET("/:id", h.Material.Get)
		materials.PATCH("/:id/thresholds", h.Material.UpdateThresholds)
		materials.DELETE("/:id", h.Material.Deactivate)
		materials.GET("/:id/verify", h.Material.Verify)
	}

	v1.GET("/units", h.Material.ListUnits)
}

func registerStockRoutes(v1 *gin.RouterGroup, h *Handlers) {
	stock := v1.Group("/stock")
	{
		stock.GET("/alerts", h.Stock.Alerts)
		stock.POST("/movements", h.Stock.RecordMovement)
		stock.GET("/transactions", h.Stock.ListTransactions)
		stock.POST("/transactions/:id/reverse", h.Stock.Reverse)
	}
}

func registerProductRoutes(v1 *gin.RouterGroup, h *Handlers) {
	products := v1.Group("/products")
	{
		products.GET("", h.Production.ListProducts)
		products.POST("", h.Production.CreateProduct)
		products.GET("/:id", h.Production.GetProduct)
		products.GET("/:id/materials", h.Production.GetProductMaterials)
		products.PUT("/:id/materials", h.Production.SetProductMaterials)
	}
}

func registerProductionRoutes(v1 *gin.RouterGroup, h *Handlers) {
	batches := v1.Group("/production/batches")
	{
		batches.GET("", h.Production.ListBatches)
		batches.POST("", h.Production.StartBatch)
		batches.GET("/:id", h.Production.GetBatch)
		batches.POST("/:id/cancel", h.Production.CancelBatch)
	}
}

func registerCustomOrderRoutes(v1 *gin.RouterGroup, h *Handlers) {
	orders := v1.Group("/custom-orders")
	{
		orders.GET("", h.Production.ListCustomOrders)
		orders.POST("", h.Production.CreateCustomOrder)
		orders.GET("/:id", h.Production.GetCustomOrder)
		orders.PUT("/:id/materials", h.Production.SetCustomOrderMaterials)
		orders.POST("/:id/start", h.Production.StartCustomOrder)
		orders.POST("/:id/cancel", h.Production.CancelCustomOrder)
	}
}

func registerPayrollRoutes(v1 *gin.RouterGroup, h *Handlers) {
	payroll := v1.Group("/payroll")
	{
		payroll.POST("/net", h.Payroll.SimulateNet)
		payroll.POST("/gross", h.Payroll.SimulateGross)
		payroll.GET("/config", h.Payroll.GetConfig)
		payroll.POST("/config", h.Payroll.CreateConfig)
		payroll.POST("/salaries", h.Payroll.DefineSalary)
		payroll.GET("/salaries/:employee_id", h.Payroll.ListSalaries)
	}
}
