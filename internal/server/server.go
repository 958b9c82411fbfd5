// Package server assembles the HTTP application: services, middleware and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"anggaran/internal/config"
	_ "anggaran/internal/docs" // Import swagger docs
	"anggaran/internal/handlers"
	"anggaran/internal/middleware"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

// Services bundles the service layer behind the HTTP handlers.
type Services struct {
	Categories   services.CategoryServicer
	Items        services.ItemServicer
	Periods      services.PeriodServicer
	Transactions services.TransactionServicer
	Aggregation  services.AggregationServicer
	Audit        services.AuditServicer
}

// NewServices wires every service against db.
func NewServices(db *gorm.DB, cfg *config.Config) *Services {
	aggregation := services.NewAggregationService(db)
	return &Services{
		Categories:   services.NewCategoryService(db),
		Items:        services.NewItemService(db, cfg.MaxItemDepth),
		Periods:      services.NewPeriodService(db, aggregation),
		Transactions: services.NewTransactionService(db),
		Aggregation:  aggregation,
		Audit:        services.NewAuditService(db),
	}
}

// NewRouter builds the Gin engine. The caller owns limiter and must Stop it.
func NewRouter(cfg *config.Config, svc *Services, limiter *middleware.RateLimiter) *gin.Engine {
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	itemHandler := handlers.NewItemHandler(svc.Items, svc.Audit)
	periodHandler := handlers.NewPeriodHandler(svc.Periods, svc.Aggregation, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.ServiceAPIKey))
	v1.Use(middleware.RateLimit(limiter))

	admin := middleware.RequireRole(models.RoleAdmin)

	categories := v1.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.POST("", admin, categoryHandler.CreateCategory)
	categories.PATCH("/:id", admin, categoryHandler.UpdateCategory)
	categories.PATCH("/:id/deactivate", admin, categoryHandler.DeactivateCategory)
	categories.DELETE("/:id", admin, categoryHandler.DeleteCategory)

	items := v1.Group("/items")
	items.GET("", itemHandler.ListItems)
	items.GET("/:id", itemHandler.GetItem)
	items.GET("/:id/subtree", itemHandler.GetSubtree)
	items.POST("", admin, itemHandler.CreateItem)
	items.PATCH("/:id", admin, itemHandler.UpdateItem)
	items.PATCH("/:id/move", admin, itemHandler.MoveItem)
	items.DELETE("/:id", admin, itemHandler.DeleteItem)

	periods := v1.Group("/periods")
	periods.GET("", periodHandler.ListPeriods)
	periods.GET("/:id", periodHandler.GetPeriod)
	periods.GET("/:id/budget-entries", periodHandler.ListBudgetEntries)
	periods.GET("/:id/rollup/:itemId", periodHandler.GetRollup)
	periods.POST("", admin, periodHandler.CreatePeriod)
	periods.POST("/:id/populate", admin, periodHandler.PopulatePeriod)
	periods.PATCH("/:id/activate", admin, periodHandler.ActivatePeriod)
	periods.PATCH("/:id/close", admin, periodHandler.ClosePeriod)

	transactions := v1.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.POST("", admin, transactionHandler.PostTransaction)
	transactions.PATCH("/:id", admin, transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", admin, transactionHandler.VoidTransaction)

	return router
}
