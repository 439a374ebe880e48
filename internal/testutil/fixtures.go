package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetbook/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a budget owned by the given user, with the owner's
// membership row and the reserved deposit categories seeded the same way the
// budget service does on creation.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		OwnerID:  ownerID,
		Name:     fmt.Sprintf("Test Budget %d", nextID()),
		Currency: "PLN",
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	member := &models.BudgetMember{BudgetID: budget.ID, UserID: ownerID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}
	reserved := []models.TransferCategory{
		{
			BudgetID:     budget.ID,
			Name:         "Deposit Income",
			CategoryType: models.CategoryTypeIncome,
			Priority:     models.PriorityDepositIncome,
			IsActive:     true,
		},
		{
			BudgetID:     budget.ID,
			Name:         "Deposit Expense",
			CategoryType: models.CategoryTypeExpense,
			Priority:     models.PriorityDepositExpense,
			IsActive:     true,
		},
	}
	if err := db.Create(&reserved).Error; err != nil {
		t.Fatalf("failed to seed reserved categories: %v", err)
	}
	return budget
}

// AddTestMember adds the given user as a member of the budget.
func AddTestMember(t *testing.T, db *gorm.DB, budgetID, userID string) *models.BudgetMember {
	t.Helper()

	member := &models.BudgetMember{BudgetID: budgetID, UserID: userID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
	return member
}

// CreateTestPeriod creates a draft period spanning the given date range.
func CreateTestPeriod(t *testing.T, db *gorm.DB, budgetID string, dateStart, dateEnd time.Time) *models.Period {
	t.Helper()

	period := &models.Period{
		BudgetID:  budgetID,
		Name:      fmt.Sprintf("Test Period %d", nextID()),
		Status:    models.PeriodStatusDraft,
		DateStart: dateStart,
		DateEnd:   dateEnd,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestEntity creates an active non-deposit entity.
func CreateTestEntity(t *testing.T, db *gorm.DB, budgetID string) *models.Entity {
	t.Helper()

	entity := &models.Entity{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Entity %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(entity).Error; err != nil {
		t.Fatalf("failed to create test entity: %v", err)
	}
	return entity
}

// CreateTestDeposit creates an active deposit entity.
func CreateTestDeposit(t *testing.T, db *gorm.DB, budgetID string) *models.Entity {
	t.Helper()

	deposit := &models.Entity{
		BudgetID:  budgetID,
		Name:      fmt.Sprintf("Test Deposit %d", nextID()),
		IsActive:  true,
		IsDeposit: true,
	}
	if err := db.Create(deposit).Error; err != nil {
		t.Fatalf("failed to create test deposit: %v", err)
	}
	return deposit
}

// CreateTestCategory creates a common category of the given type with the
// first non-reserved priority valid for that type.
func CreateTestCategory(t *testing.T, db *gorm.DB, budgetID string, categoryType models.CategoryType) *models.TransferCategory {
	t.Helper()

	priority := models.PriorityRegular
	if categoryType == models.CategoryTypeExpense {
		priority = models.PriorityMostImportant
	}
	return CreateTestCategoryWithPriority(t, db, budgetID, categoryType, priority)
}

// CreateTestCategoryWithPriority creates a common category with an explicit priority.
func CreateTestCategoryWithPriority(t *testing.T, db *gorm.DB, budgetID string, categoryType models.CategoryType, priority models.CategoryPriority) *models.TransferCategory {
	t.Helper()

	category := &models.TransferCategory{
		BudgetID:     budgetID,
		Name:         fmt.Sprintf("Test Category %d", nextID()),
		CategoryType: categoryType,
		Priority:     priority,
		IsActive:     true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransfer creates a transfer row directly, bypassing service
// validation. Useful for exercising in-use protections.
func CreateTestTransfer(t *testing.T, db *gorm.DB, budgetID string, period *models.Period, entityID, depositID, categoryID string, transferType models.TransferType, value int64) *models.Transfer {
	t.Helper()

	transfer := &models.Transfer{
		BudgetID:     budgetID,
		PeriodID:     period.ID,
		EntityID:     entityID,
		DepositID:    depositID,
		CategoryID:   categoryID,
		TransferType: transferType,
		Name:         fmt.Sprintf("Test Transfer %d", nextID()),
		Value:        value,
		Date:         period.DateStart,
	}
	if err := db.Create(transfer).Error; err != nil {
		t.Fatalf("failed to create test transfer: %v", err)
	}
	return transfer
}

// CreateTestPrediction creates a categorized expense prediction.
func CreateTestPrediction(t *testing.T, db *gorm.DB, periodID, depositID, categoryID string, currentPlan int64) *models.ExpensePrediction {
	t.Helper()

	prediction := &models.ExpensePrediction{
		PeriodID:    periodID,
		DepositID:   depositID,
		CategoryID:  &categoryID,
		CurrentPlan: currentPlan,
	}
	if err := db.Create(prediction).Error; err != nil {
		t.Fatalf("failed to create test prediction: %v", err)
	}
	return prediction
}
