package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// validateUniqueName enforces the split uniqueness rule: common categories
// (no owner) are unique per budget, type and name; personal categories are
// unique per budget, type, name and owner.
func (s *categoryService) validateUniqueName(budgetID, excludeID, name string, categoryType models.CategoryType, ownerID *string) error {
	query := s.db.Model(&models.TransferCategory{}).
		Where("budget_id = ? AND category_type = ? AND name = ?", budgetID, categoryType, name)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	} else {
		query = query.Where("owner_id IS NULL")
	}
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategoryName
	}
	return nil
}

// CreateCategory creates a transfer category. The priority must match the
// category type, reserved priorities are rejected, and a personal category's
// owner must be a budget member.
func (s *categoryService) CreateCategory(userID, budgetID, name, description string, categoryType models.CategoryType, priority models.CategoryPriority, ownerID, depositID *string) (*models.TransferCategory, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	if priority.Reserved() {
		return nil, apperrors.ErrReservedPriority
	}
	if !priority.ValidFor(categoryType) {
		return nil, apperrors.ErrInvalidPriorityForType
	}
	if ownerID != nil {
		member, err := isBudgetMember(s.db, *ownerID, budgetID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrCategoryOwnerNotMember
		}
	}
	if depositID != nil {
		var deposit models.Entity
		err := s.db.Where("id = ? AND budget_id = ?", *depositID, budgetID).First(&deposit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepositNotFound
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !deposit.IsDeposit {
			return nil, apperrors.ErrNotADeposit
		}
	}
	if err := s.validateUniqueName(budgetID, "", name, categoryType, ownerID); err != nil {
		return nil, err
	}

	category := &models.TransferCategory{
		BudgetID:     budgetID,
		CategoryType: categoryType,
		Name:         name,
		Description:  description,
		OwnerID:      ownerID,
		DepositID:    depositID,
		IsActive:     true,
		Priority:     priority,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetBudgetCategories returns a paginated, filtered list of the budget's
// categories. Reserved deposit categories are excluded from listings.
func (s *categoryService) GetBudgetCategories(userID, budgetID string, page pagination.PageRequest, filter CategoryFilter) (*pagination.PageResponse[models.TransferCategory], error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.TransferCategory{}).
		Where("budget_id = ?", budgetID).
		Where("priority NOT IN ?", models.ReservedPriorities())
	if filter.Name != nil {
		base = base.Where("name LIKE ?", "%"+*filter.Name+"%")
	}
	if filter.CategoryType != nil {
		base = base.Where("category_type = ?", *filter.CategoryType)
	}
	if filter.Priority != nil {
		base = base.Where("priority = ?", *filter.Priority)
	}
	if filter.OwnerID != nil {
		base = base.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.CommonOnly {
		base = base.Where("owner_id IS NULL")
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"name": "name", "category_type": "category_type", "priority": "priority", "created_at": "created_at",
	}, "category_type ASC, priority ASC, name ASC")

	var categories []models.TransferCategory
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID returns a category by ID within the budget.
func (s *categoryService) GetCategoryByID(userID, budgetID, categoryID string) (*models.TransferCategory, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	return s.getCategory(budgetID, categoryID)
}

func (s *categoryService) getCategory(budgetID, categoryID string) (*models.TransferCategory, error) {
	var category models.TransferCategory
	if err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates mutable category fields. Category type and owner are
// immutable; the priority may change within the tiers valid for the type, and
// reserved categories cannot be changed at all.
func (s *categoryService) UpdateCategory(userID, budgetID, categoryID string, name, description *string, priority *models.CategoryPriority, isActive *bool) (*models.TransferCategory, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	category, err := s.getCategory(budgetID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Priority.Reserved() {
		return nil, apperrors.ErrReservedPriority
	}

	updates := make(map[string]interface{})
	if name != nil && *name != category.Name {
		if err := s.validateUniqueName(budgetID, categoryID, *name, category.CategoryType, category.OwnerID); err != nil {
			return nil, err
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if priority != nil && *priority != category.Priority {
		if priority.Reserved() {
			return nil, apperrors.ErrReservedPriority
		}
		if !priority.ValidFor(category.CategoryType) {
			return nil, apperrors.ErrInvalidPriorityForType
		}
		updates["priority"] = *priority
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory deletes a category. Categories referenced by transfers or
// predictions, and the reserved deposit categories, are protected.
func (s *categoryService) DeleteCategory(userID, budgetID, categoryID string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	category, err := s.getCategory(budgetID, categoryID)
	if err != nil {
		return err
	}
	if category.Priority.Reserved() {
		return apperrors.ErrReservedPriority
	}

	var count int64
	if err := s.db.Model(&models.Transfer{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}
	if err := s.db.Model(&models.ExpensePrediction{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
