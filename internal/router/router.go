package router

import (
	"context"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"
	"github.com/CJosueA/Sistema-Facturacion/internal/handler"
	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/middleware"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"
	"github.com/CJosueA/Sistema-Facturacion/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles the router wires services onto.
// Redis, Events and EventsBreaker may be nil.
type Deps struct {
	DB            *gorm.DB
	Redis         *redis.Client
	Events        service.EventPublisher
	EventsBreaker *infra.CircuitBreaker
	// Now overrides the invoice clock; nil means time.Now.
	Now func() time.Time
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds the lifetime of background goroutines owned by middleware.
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(cfg.OTelServiceName))
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Env, cfg.AllowedOrigins()...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute))

	db := deps.DB

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cache := service.NewProductCache(deps.Redis, productRepo.FindByID,
		time.Duration(cfg.ProductCacheTTLSeconds)*time.Second)
	ledger := service.NewStockLedger(productRepo, movementRepo)
	catalog := service.NewCatalog(productRepo)
	assembler := service.NewAssembler(deps.Now)

	// Without Redis there is no queue; the retry cron is not running either,
	// so documents stay pending until Redis is back.
	var dispatcher service.JobDispatcher
	if deps.Redis != nil {
		dispatcher = worker.NewDispatcher(deps.Redis)
	}

	invoiceSvc := service.NewInvoiceService(invoiceRepo, documentRepo, catalog, ledger, assembler, cache, dispatcher, deps.Events)
	productSvc := service.NewProductService(productRepo, historyRepo, ledger, cache)
	movementSvc := service.NewMovementService(productRepo, movementRepo, ledger, cache)
	customerSvc := service.NewCustomerService(customerRepo, invoiceRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	invoicesH := handler.NewInvoicesHandler(invoiceSvc, customerSvc, cfg.PDFStoragePath)
	productsH := handler.NewProductsHandler(productSvc, movementSvc)
	movementsH := handler.NewMovementsHandler(movementSvc)
	customersH := handler.NewCustomersHandler(customerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, deps.Redis, deps.EventsBreaker))

	anyRole := middleware.RequireRole(middleware.RoleSeller, middleware.RoleAdmin)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		inv := v1.Group("/invoices", anyRole)
		{
			inv.POST("", invoicesH.Create)
			inv.GET("", invoicesH.List)
			inv.GET("/:id", invoicesH.Get)
			inv.GET("/:id/pdf", invoicesH.DownloadPDF)
		}

		v1.GET("/products", anyRole, productsH.Search)
		v1.GET("/products/:id", anyRole, productsH.Get)
		v1.GET("/products/:id/movements", anyRole, productsH.Movements)
		v1.GET("/products/:id/price-history", anyRole, productsH.PriceHistory)
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", productsH.Create)
			prods.PATCH("/:id/price", productsH.UpdatePrice)
			prods.DELETE("/:id", productsH.Deactivate)
			prods.PATCH("/:id/reactivate", productsH.Reactivate)
		}

		v1.POST("/movements", adminOnly, movementsH.Register)

		v1.GET("/customers", anyRole, customersH.Search)
		v1.GET("/customers/:id", anyRole, customersH.Get)
		v1.POST("/customers", anyRole, customersH.Create)
		v1.DELETE("/customers/:id", adminOnly, customersH.Delete)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
