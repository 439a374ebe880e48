package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"budgetbook/internal/handlers"
	"budgetbook/internal/logger"
	"budgetbook/internal/middleware"
	"budgetbook/internal/models"
	"budgetbook/internal/services"
	"budgetbook/internal/validator"
)

const testServiceKey = "integration-test-service-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.BudgetMember{},
		&models.Period{},
		&models.Entity{},
		&models.TransferCategory{},
		&models.Transfer{},
		&models.ExpensePrediction{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	periodService := services.NewPeriodService(db)
	entityService := services.NewEntityService(db)
	categoryService := services.NewCategoryService(db)
	transferService := services.NewTransferService(db)
	predictionService := services.NewPredictionService(db)
	chartService := services.NewChartService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	entityHandler := handlers.NewEntityHandler(entityService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transferHandler := handlers.NewTransferHandler(transferService, auditService)
	predictionHandler := handlers.NewPredictionHandler(predictionService, auditService)
	chartHandler := handlers.NewChartHandler(chartService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Operator routes behind the service API key
	service := v1.Group("/service")
	service.Use(middleware.ServiceAuthMiddleware(testServiceKey))
	service.GET("/audit_logs", auditHandler.ListAuditLogs)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)
	budgets.PUT("/:budget_id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:budget_id", budgetHandler.DeleteBudget)
	budgets.POST("/:budget_id/members", budgetHandler.AddMember)
	budgets.DELETE("/:budget_id/members/:member_id", budgetHandler.RemoveMember)

	periods := budgets.Group("/:budget_id/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.GetPeriods)
	periods.GET("/:period_id", periodHandler.GetPeriod)
	periods.PUT("/:period_id", periodHandler.UpdatePeriod)
	periods.PATCH("/:period_id/status", periodHandler.UpdatePeriodStatus)
	periods.DELETE("/:period_id", periodHandler.DeletePeriod)
	periods.POST("/:period_id/copy_predictions", predictionHandler.CopyPredictions)

	entities := budgets.Group("/:budget_id/entities")
	entities.POST("", entityHandler.CreateEntity)
	entities.GET("", entityHandler.GetEntities)
	entities.GET("/:entity_id", entityHandler.GetEntity)
	entities.PUT("/:entity_id", entityHandler.UpdateEntity)
	entities.DELETE("/:entity_id", entityHandler.DeleteEntity)

	deposits := budgets.Group("/:budget_id/deposits")
	deposits.POST("", entityHandler.CreateDeposit)
	deposits.GET("", entityHandler.GetDeposits)

	categories := budgets.Group("/:budget_id/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:category_id", categoryHandler.GetCategory)
	categories.PUT("/:category_id", categoryHandler.UpdateCategory)
	categories.DELETE("/:category_id", categoryHandler.DeleteCategory)

	transfers := budgets.Group("/:budget_id/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("", transferHandler.GetTransfers)
	transfers.DELETE("/bulk_delete", transferHandler.BulkDeleteTransfers)
	transfers.POST("/copy", transferHandler.CopyTransfers)
	transfers.GET("/:transfer_id", transferHandler.GetTransfer)
	transfers.PUT("/:transfer_id", transferHandler.UpdateTransfer)
	transfers.DELETE("/:transfer_id", transferHandler.DeleteTransfer)

	predictions := budgets.Group("/:budget_id/expense_predictions")
	predictions.POST("", predictionHandler.CreatePrediction)
	predictions.GET("", predictionHandler.GetPredictions)
	predictions.GET("/:prediction_id", predictionHandler.GetPrediction)
	predictions.PUT("/:prediction_id", predictionHandler.UpdatePrediction)
	predictions.DELETE("/:prediction_id", predictionHandler.DeletePrediction)

	charts := budgets.Group("/:budget_id/charts")
	charts.GET("/transfers_in_periods", chartHandler.TransfersInPeriods)
	charts.GET("/deposits_in_periods", chartHandler.DepositsInPeriods)
	charts.GET("/category_results", chartHandler.CategoryResults)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the error code from an error response body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in body: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createBudget creates a budget and returns its ID.
func (app *testApp) createBudget(t *testing.T, token, name, currency string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"currency":%q}`, name, currency)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	budget := result["budget"].(map[string]interface{})
	return budget["id"].(string)
}

// createdID extracts the ID of a wrapped created object, e.g. {"entity": {...}}.
func createdID(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s failed: %d %s", key, rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	obj := result[key].(map[string]interface{})
	return obj["id"].(string)
}

// budgetFixture holds the IDs of a fully seeded budget.
type budgetFixture struct {
	BudgetID   string
	PeriodID   string
	EntityID   string
	DepositID  string
	Deposit2ID string
	IncomeID   string
	ExpenseID  string
}

// seedBudget creates a budget with one period, one counterparty entity, two
// deposits and one category of each type, all through the API.
func (app *testApp) seedBudget(t *testing.T, token string) budgetFixture {
	t.Helper()

	var fx budgetFixture
	fx.BudgetID = app.createBudget(t, token, "Household", "PLN")
	base := "/api/v1/budgets/" + fx.BudgetID

	rec := app.request("POST", base+"/deposits", `{"name":"Checking"}`, token)
	fx.DepositID = createdID(t, rec, "entity")

	rec = app.request("POST", base+"/deposits", `{"name":"Savings"}`, token)
	fx.Deposit2ID = createdID(t, rec, "entity")

	rec = app.request("POST", base+"/entities", `{"name":"Grocery Store"}`, token)
	fx.EntityID = createdID(t, rec, "entity")

	rec = app.request("POST", base+"/categories",
		`{"name":"Salary","category_type":"income","priority":1}`, token)
	fx.IncomeID = createdID(t, rec, "category")

	rec = app.request("POST", base+"/categories",
		`{"name":"Groceries","category_type":"expense","priority":3}`, token)
	fx.ExpenseID = createdID(t, rec, "category")

	rec = app.request("POST", base+"/periods",
		`{"name":"2024-09","date_start":"2024-09-01T00:00:00Z","date_end":"2024-09-30T00:00:00Z"}`, token)
	fx.PeriodID = createdID(t, rec, "period")

	return fx
}
