package services

import (
	"time"

	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	Name     *string
	Currency *string
	Ordering string
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ownerID, name, description, currency string) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, name, description, currency *string) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	AddMember(userID, budgetID, memberEmail string) (*models.BudgetMember, error)
	RemoveMember(userID, budgetID, memberID string) error
}

// PeriodFilter holds optional filter parameters for listing periods.
type PeriodFilter struct {
	Name            *string
	Status          *models.PeriodStatus
	DateStartAfter  *time.Time
	DateStartBefore *time.Time
	Ordering        string
}

// PeriodServicer defines the contract for the period validation engine.
type PeriodServicer interface {
	CreatePeriod(userID, budgetID, name string, dateStart, dateEnd time.Time) (*models.Period, error)
	GetBudgetPeriods(userID, budgetID string, page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.Period], error)
	GetPeriodByID(userID, budgetID, periodID string) (*models.Period, error)
	UpdatePeriod(userID, budgetID, periodID string, name *string, dateStart, dateEnd *time.Time) (*models.Period, error)
	UpdatePeriodStatus(userID, budgetID, periodID string, status models.PeriodStatus) (*models.Period, error)
	DeletePeriod(userID, budgetID, periodID string) error
}

// EntityFilter holds optional filter parameters for listing entities.
type EntityFilter struct {
	Name      *string
	IsActive  *bool
	IsDeposit *bool
	Ordering  string
}

// EntityServicer defines the contract for entity/deposit business logic.
type EntityServicer interface {
	CreateEntity(userID, budgetID, name, description string, isDeposit bool) (*models.Entity, error)
	GetBudgetEntities(userID, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[models.Entity], error)
	GetEntityByID(userID, budgetID, entityID string) (*models.Entity, error)
	UpdateEntity(userID, budgetID, entityID string, name, description *string, isActive *bool) (*models.Entity, error)
	DeleteEntity(userID, budgetID, entityID string) error
}

// CategoryFilter holds optional filter parameters for listing categories.
type CategoryFilter struct {
	Name         *string
	CategoryType *models.CategoryType
	Priority     *models.CategoryPriority
	OwnerID      *string
	CommonOnly   bool
	IsActive     *bool
	Ordering     string
}

// CategoryServicer defines the contract for transfer category business logic.
type CategoryServicer interface {
	CreateCategory(userID, budgetID, name, description string, categoryType models.CategoryType, priority models.CategoryPriority, ownerID, depositID *string) (*models.TransferCategory, error)
	GetBudgetCategories(userID, budgetID string, page pagination.PageRequest, filter CategoryFilter) (*pagination.PageResponse[models.TransferCategory], error)
	GetCategoryByID(userID, budgetID, categoryID string) (*models.TransferCategory, error)
	UpdateCategory(userID, budgetID, categoryID string, name, description *string, priority *models.CategoryPriority, isActive *bool) (*models.TransferCategory, error)
	DeleteCategory(userID, budgetID, categoryID string) error
}

// TransferInput carries the user-provided fields of a transfer write.
type TransferInput struct {
	Name        string
	Description string
	Value       int64
	Date        time.Time
	PeriodID    string
	EntityID    string
	DepositID   string
	CategoryID  string
}

// TransferFilter holds optional filter parameters for listing transfers.
type TransferFilter struct {
	TransferType *models.TransferType
	PeriodID     *string
	EntityID     *string
	DepositID    *string
	CategoryID   *string
	DateAfter    *time.Time
	DateBefore   *time.Time
	MinValue     *int64
	MaxValue     *int64
	Ordering     string
}

// TransferServicer defines the contract for the transfer validation engine,
// the richest cross-entity consistency check in the system.
type TransferServicer interface {
	CreateTransfer(userID, budgetID string, transferType models.TransferType, in TransferInput) (*models.Transfer, error)
	GetBudgetTransfers(userID, budgetID string, page pagination.PageRequest, filter TransferFilter) (*pagination.PageResponse[models.Transfer], error)
	GetTransferByID(userID, budgetID, transferID string) (*models.Transfer, error)
	UpdateTransfer(userID, budgetID, transferID string, in TransferInput) (*models.Transfer, error)
	DeleteTransfer(userID, budgetID, transferID string) error
	BulkDeleteTransfers(userID, budgetID string, ids []string) error
	CopyTransfers(userID, budgetID string, ids []string) ([]string, error)
}

// PredictionFilter holds optional filter parameters for listing predictions.
type PredictionFilter struct {
	PeriodID   *string
	CategoryID *string
	DepositID  *string
	Ordering   string
}

// PredictionServicer defines the contract for expense prediction business logic.
type PredictionServicer interface {
	CreatePrediction(userID, budgetID, periodID, depositID, categoryID string, currentPlan int64, description string) (*models.ExpensePrediction, error)
	GetBudgetPredictions(userID, budgetID string, page pagination.PageRequest, filter PredictionFilter) (*pagination.PageResponse[models.ExpensePrediction], error)
	GetPredictionByID(userID, budgetID, predictionID string) (*models.ExpensePrediction, error)
	UpdatePrediction(userID, budgetID, predictionID string, currentPlan *int64, description *string) (*models.ExpensePrediction, error)
	DeletePrediction(userID, budgetID, predictionID string) error
	CopyFromPreviousPeriod(userID, budgetID, periodID string) (int, error)
}

// ChartSeries is a single named data series of a chart response.
type ChartSeries struct {
	Name string  `json:"name"`
	Data []int64 `json:"data"`
}

// ChartResponse is the {xAxis, series} shape consumed by chart clients.
type ChartResponse struct {
	XAxis  []string      `json:"xAxis"`
	Series []ChartSeries `json:"series"`
}

// ChartServicer defines the contract for read-only chart aggregations.
type ChartServicer interface {
	TransfersInPeriods(userID, budgetID string) (*ChartResponse, error)
	DepositsInPeriods(userID, budgetID string) (*ChartResponse, error)
	CategoryResults(userID, budgetID, categoryID string) (*ChartResponse, error)
}

// AuditServicer defines the contract for audit log recording.
type AuditServicer interface {
	Log(userID, action, objectType, objectID, ipAddress string, metadata map[string]any)
	Recent(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
