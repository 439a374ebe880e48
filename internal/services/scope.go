package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
)

// requireBudgetMember resolves the budget identified in the request path and
// checks that the user is its owner or a member. Every scoped service method
// calls this first, so budget membership is an explicit value threaded into
// validation rather than ambient request state.
func requireBudgetMember(db *gorm.DB, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := db.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if budget.OwnerID == userID {
		return &budget, nil
	}

	var count int64
	if err := db.Model(&models.BudgetMember{}).
		Where("budget_id = ? AND user_id = ?", budgetID, userID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrBudgetAccessDenied
	}
	return &budget, nil
}

// isBudgetMember reports whether the user is the owner or a member of the budget.
func isBudgetMember(db *gorm.DB, userID, budgetID string) (bool, error) {
	var count int64
	err := db.Model(&models.Budget{}).Where("id = ? AND owner_id = ?", budgetID, userID).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return true, nil
	}
	err = db.Model(&models.BudgetMember{}).Where("budget_id = ? AND user_id = ?", budgetID, userID).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}
