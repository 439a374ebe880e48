package main

import (
	"fmt"
	"net/http"
	"os"

	"budgetbook/internal/config"
	"budgetbook/internal/database"
	"budgetbook/internal/handlers"
	"budgetbook/internal/logger"
	"budgetbook/internal/middleware"
	"budgetbook/internal/services"
	"budgetbook/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "budgetbook/internal/docs" // Import swagger docs
)

// @title           Budgetbook API
// @version         1.0
// @description     Budgetbook is a collaborative budgeting backend: shared budgets with periods, entities, deposits, transfer categories, transfers and expense predictions.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	periodService := services.NewPeriodService(db)
	entityService := services.NewEntityService(db)
	categoryService := services.NewCategoryService(db)
	transferService := services.NewTransferService(db)
	predictionService := services.NewPredictionService(db)
	chartService := services.NewChartService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	entityHandler := handlers.NewEntityHandler(entityService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transferHandler := handlers.NewTransferHandler(transferService, auditService)
	predictionHandler := handlers.NewPredictionHandler(predictionService, auditService)
	chartHandler := handlers.NewChartHandler(chartService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Operator routes behind the service API key
	service := v1.Group("/service")
	service.Use(middleware.ServiceAuthMiddleware(appConfig.ServiceAPIKey))
	service.GET("/audit_logs", auditHandler.ListAuditLogs)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)
	budgets.PUT("/:budget_id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:budget_id", budgetHandler.DeleteBudget)
	budgets.POST("/:budget_id/members", budgetHandler.AddMember)
	budgets.DELETE("/:budget_id/members/:member_id", budgetHandler.RemoveMember)

	// Period routes
	periods := budgets.Group("/:budget_id/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.GetPeriods)
	periods.GET("/:period_id", periodHandler.GetPeriod)
	periods.PUT("/:period_id", periodHandler.UpdatePeriod)
	periods.PATCH("/:period_id/status", periodHandler.UpdatePeriodStatus)
	periods.DELETE("/:period_id", periodHandler.DeletePeriod)
	periods.POST("/:period_id/copy_predictions", predictionHandler.CopyPredictions)

	// Entity and deposit routes
	entities := budgets.Group("/:budget_id/entities")
	entities.POST("", entityHandler.CreateEntity)
	entities.GET("", entityHandler.GetEntities)
	entities.GET("/:entity_id", entityHandler.GetEntity)
	entities.PUT("/:entity_id", entityHandler.UpdateEntity)
	entities.DELETE("/:entity_id", entityHandler.DeleteEntity)

	deposits := budgets.Group("/:budget_id/deposits")
	deposits.POST("", entityHandler.CreateDeposit)
	deposits.GET("", entityHandler.GetDeposits)

	// Category routes
	categories := budgets.Group("/:budget_id/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:category_id", categoryHandler.GetCategory)
	categories.PUT("/:category_id", categoryHandler.UpdateCategory)
	categories.DELETE("/:category_id", categoryHandler.DeleteCategory)

	// Transfer routes
	transfers := budgets.Group("/:budget_id/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("", transferHandler.GetTransfers)
	transfers.DELETE("/bulk_delete", transferHandler.BulkDeleteTransfers)
	transfers.POST("/copy", transferHandler.CopyTransfers)
	transfers.GET("/:transfer_id", transferHandler.GetTransfer)
	transfers.PUT("/:transfer_id", transferHandler.UpdateTransfer)
	transfers.DELETE("/:transfer_id", transferHandler.DeleteTransfer)

	// Expense prediction routes
	predictions := budgets.Group("/:budget_id/expense_predictions")
	predictions.POST("", predictionHandler.CreatePrediction)
	predictions.GET("", predictionHandler.GetPredictions)
	predictions.GET("/:prediction_id", predictionHandler.GetPrediction)
	predictions.PUT("/:prediction_id", predictionHandler.UpdatePrediction)
	predictions.DELETE("/:prediction_id", predictionHandler.DeletePrediction)

	// Chart routes
	charts := budgets.Group("/:budget_id/charts")
	charts.GET("/transfers_in_periods", chartHandler.TransfersInPeriods)
	charts.GET("/deposits_in_periods", chartHandler.DepositsInPeriods)
	charts.GET("/category_results", chartHandler.CategoryResults)

	log.Infof("Starting Budgetbook backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
