package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// reservedCategories returns the category rows seeded into every new budget.
// They back the generated legs of deposit-to-deposit transfers.
func reservedCategories(budgetID string) []models.TransferCategory {
	return []models.TransferCategory{
		{
			BudgetID:     budgetID,
			Name:         "Deposit Income",
			Description:  "Money received from another deposit of this budget.",
			CategoryType: models.CategoryTypeIncome,
			Priority:     models.PriorityDepositIncome,
			IsActive:     true,
		},
		{
			BudgetID:     budgetID,
			Name:         "Deposit Expense",
			Description:  "Money moved to another deposit of this budget.",
			CategoryType: models.CategoryTypeExpense,
			Priority:     models.PriorityDepositExpense,
			IsActive:     true,
		},
	}
}

// CreateBudget creates a new budget owned by the given user. The owner's
// membership row and the reserved deposit categories are created in the same
// transaction.
func (s *budgetService) CreateBudget(ownerID, name, description, currency string) (*models.Budget, error) {
	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudgetName
	}

	budget := &models.Budget{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Currency:    currency,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := &models.BudgetMember{BudgetID: budget.ID, UserID: ownerID}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		seeded := reservedCategories(budget.ID)
		if err := tx.Create(&seeded).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets the user belongs to.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).
		Where("owner_id = ? OR id IN (?)", userID,
			s.db.Model(&models.BudgetMember{}).Select("budget_id").Where("user_id = ?", userID))
	if filter.Name != nil {
		base = base.Where("name LIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Currency != nil {
		base = base.Where("currency = ?", *filter.Currency)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"name": "name", "currency": "currency", "created_at": "created_at",
	}, "created_at")

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if the user is a member.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	budget, err := requireBudgetMember(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("Members.User").First(budget, "id = ?", budgetID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// UpdateBudget updates the budget's own fields. Only the owner may update.
func (s *budgetService) UpdateBudget(userID, budgetID string, name, description, currency *string) (*models.Budget, error) {
	budget, err := requireBudgetMember(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.OwnerID != userID {
		return nil, apperrors.ErrBudgetAccessDenied
	}

	updates := make(map[string]interface{})
	if name != nil && *name != budget.Name {
		var count int64
		if err := s.db.Model(&models.Budget{}).
			Where("owner_id = ? AND name = ? AND id <> ?", budget.OwnerID, *name, budgetID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateBudgetName
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if currency != nil {
		updates["currency"] = *currency
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget. Only the owner may delete.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := requireBudgetMember(s.db, userID, budgetID)
	if err != nil {
		return err
	}
	if budget.OwnerID != userID {
		return apperrors.ErrBudgetAccessDenied
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddMember adds a user identified by email to the budget's members.
func (s *budgetService) AddMember(userID, budgetID, memberEmail string) (*models.BudgetMember, error) {
	budget, err := requireBudgetMember(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.OwnerID != userID {
		return nil, apperrors.ErrBudgetAccessDenied
	}

	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", memberEmail, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.BudgetMember{}).
		Where("budget_id = ? AND user_id = ?", budgetID, user.ID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "User is already a member of this Budget")
	}

	member := &models.BudgetMember{BudgetID: budgetID, UserID: user.ID}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.User = user
	return member, nil
}

// RemoveMember removes a member from the budget. The owner cannot be removed.
func (s *budgetService) RemoveMember(userID, budgetID, memberID string) error {
	budget, err := requireBudgetMember(s.db, userID, budgetID)
	if err != nil {
		return err
	}
	if budget.OwnerID != userID {
		return apperrors.ErrBudgetAccessDenied
	}
	if memberID == budget.OwnerID {
		return apperrors.ErrOwnerRemoval
	}

	result := s.db.Where("budget_id = ? AND user_id = ?", budgetID, memberID).Delete(&models.BudgetMember{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMemberNotFound
	}
	return nil
}
