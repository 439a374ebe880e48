package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

type entityService struct {
	db *gorm.DB
}

// NewEntityService creates a new EntityServicer.
func NewEntityService(db *gorm.DB) EntityServicer {
	return &entityService{db: db}
}

// CreateEntity creates an entity or deposit in the budget. Names are unique
// per budget within each is_deposit group.
func (s *entityService) CreateEntity(userID, budgetID, name, description string, isDeposit bool) (*models.Entity, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Entity{}).
		Where("budget_id = ? AND name = ? AND is_deposit = ?", budgetID, name, isDeposit).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEntityName
	}

	entity := &models.Entity{
		BudgetID:    budgetID,
		Name:        name,
		Description: description,
		IsActive:    true,
		IsDeposit:   isDeposit,
	}
	if err := s.db.Create(entity).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entity, nil
}

// GetBudgetEntities returns a paginated, filtered list of the budget's
// entities. Deposits are listed through the same endpoint via the is_deposit
// filter.
func (s *entityService) GetBudgetEntities(userID, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[models.Entity], error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Entity{}).Where("budget_id = ?", budgetID)
	if filter.Name != nil {
		base = base.Where("name LIKE ?", "%"+*filter.Name+"%")
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsDeposit != nil {
		base = base.Where("is_deposit = ?", *filter.IsDeposit)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"name": "name", "is_active": "is_active", "created_at": "created_at",
	}, "name ASC")

	var entities []models.Entity
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&entities).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entities, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetEntityByID returns an entity by ID within the budget.
func (s *entityService) GetEntityByID(userID, budgetID, entityID string) (*models.Entity, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	return s.getEntity(budgetID, entityID)
}

func (s *entityService) getEntity(budgetID, entityID string) (*models.Entity, error) {
	var entity models.Entity
	if err := s.db.Where("id = ? AND budget_id = ?", entityID, budgetID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entity, nil
}

// UpdateEntity updates name, description and active flag. The is_deposit
// discriminator is immutable after creation.
func (s *entityService) UpdateEntity(userID, budgetID, entityID string, name, description *string, isActive *bool) (*models.Entity, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	entity, err := s.getEntity(budgetID, entityID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil && *name != entity.Name {
		var count int64
		if err := s.db.Model(&models.Entity{}).
			Where("budget_id = ? AND name = ? AND is_deposit = ? AND id <> ?", budgetID, *name, entity.IsDeposit, entityID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateEntityName
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(entity).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return entity, nil
}

// DeleteEntity deletes an entity. Entities referenced by transfers or, for
// deposits, by categories or predictions are protected.
func (s *entityService) DeleteEntity(userID, budgetID, entityID string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	entity, err := s.getEntity(budgetID, entityID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transfer{}).
		Where("entity_id = ? OR deposit_id = ?", entityID, entityID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrEntityInUse
	}
	if entity.IsDeposit {
		if err := s.db.Model(&models.TransferCategory{}).
			Where("deposit_id = ?", entityID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrEntityInUse
		}
		if err := s.db.Model(&models.ExpensePrediction{}).
			Where("deposit_id = ?", entityID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrEntityInUse
		}
	}

	if err := s.db.Delete(entity).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
