// Package server wires services, handlers and middleware into the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "gastos/internal/docs" // Import swagger docs
	"gastos/internal/handlers"
	"gastos/internal/middleware"
	"gastos/internal/services"
)

// Options tune the router.
type Options struct {
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	// RequestLogging enables the per-request zap log line.
	RequestLogging bool
}

// NewRouter builds the API router over db.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	// Initialize services
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	paymentMethodService := services.NewPaymentMethodService(db)
	movementTypeService := services.NewMovementTypeService(db)
	ruleService := services.NewRuleService(db)
	transactionService := services.NewTransactionService(db)
	importService := services.NewImportService(db)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(paymentMethodService)
	movementTypeHandler := handlers.NewMovementTypeHandler(movementTypeService)
	ruleHandler := handlers.NewRuleHandler(ruleService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	importHandler := handlers.NewImportHandler(importService, auditService, opts.MaxUploadBytes)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	router := gin.New()
	router.Use(middleware.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	movimientos := v1.Group("/movimientos")
	movimientos.GET("", transactionHandler.ListTransactions)
	movimientos.GET("/export", transactionHandler.ExportTransactions)
	movimientos.POST("", transactionHandler.CreateTransaction)
	movimientos.GET("/:id", transactionHandler.GetTransactionByID)
	movimientos.PUT("/:id", transactionHandler.UpdateTransaction)
	movimientos.PATCH("/:id", transactionHandler.InlineUpdateTransaction)
	movimientos.DELETE("/:id", transactionHandler.DeleteTransaction)

	categorias := v1.Group("/categorias")
	categorias.POST("", categoryHandler.CreateCategory)
	categorias.GET("", categoryHandler.ListCategories)
	categorias.GET("/:id", categoryHandler.GetCategoryByID)
	categorias.PUT("/:id", categoryHandler.UpdateCategory)
	categorias.DELETE("/:id", categoryHandler.DeleteCategory)

	metodosPago := v1.Group("/metodos-pago")
	metodosPago.POST("", paymentMethodHandler.CreatePaymentMethod)
	metodosPago.GET("", paymentMethodHandler.ListPaymentMethods)
	metodosPago.GET("/:id", paymentMethodHandler.GetPaymentMethodByID)
	metodosPago.PUT("/:id", paymentMethodHandler.UpdatePaymentMethod)
	metodosPago.DELETE("/:id", paymentMethodHandler.DeletePaymentMethod)

	tipos := v1.Group("/tipos")
	tipos.POST("", movementTypeHandler.CreateMovementType)
	tipos.GET("", movementTypeHandler.ListMovementTypes)
	tipos.GET("/:id", movementTypeHandler.GetMovementTypeByID)
	tipos.PUT("/:id", movementTypeHandler.UpdateMovementType)
	tipos.DELETE("/:id", movementTypeHandler.DeleteMovementType)

	reglas := v1.Group("/reglas")
	reglas.POST("", ruleHandler.CreateRule)
	reglas.GET("", ruleHandler.ListRules)
	reglas.POST("/reaplicar", ruleHandler.ReapplyRules)
	reglas.GET("/:id", ruleHandler.GetRuleByID)
	reglas.PUT("/:id", ruleHandler.UpdateRule)
	reglas.DELETE("/:id", ruleHandler.DeleteRule)

	importGroup := v1.Group("/import")
	importGroup.POST("/analyze", importHandler.Analyze)
	importGroup.POST("/preview", importHandler.Preview)
	importGroup.POST("/apply", importHandler.Apply)
	importGroup.DELETE("/batches/:batch_id", importHandler.RevertBatch)

	dashboard := v1.Group("/dashboard")
	dashboard.GET("/summary", dashboardHandler.GetSummary)
	dashboard.GET("/monthly", dashboardHandler.GetMonthlySeries)
	dashboard.GET("/by-category", dashboardHandler.GetByCategory)
	dashboard.GET("/yearly", dashboardHandler.GetYearlySeries)

	return router
}
