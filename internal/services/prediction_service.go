package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// predictionService manages per-period expense planning rows and their
// lifecycle around period activation.
type predictionService struct {
	db *gorm.DB
}

// NewPredictionService creates a new PredictionServicer.
func NewPredictionService(db *gorm.DB) PredictionServicer {
	return &predictionService{db: db}
}

// CreatePrediction adds a planned value for an expense category in a draft
// period. Predictions are gated to draft periods; the uncategorized rows are
// system-created with the period and cannot be added by hand.
func (s *predictionService) CreatePrediction(userID, budgetID, periodID, depositID, categoryID string, currentPlan int64, description string) (*models.ExpensePrediction, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	if currentPlan < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Current plan has to be zero or positive.")
	}

	var period models.Period
	if err := s.db.Where("id = ? AND budget_id = ?", periodID, budgetID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	switch period.Status {
	case models.PeriodStatusActive:
		return nil, apperrors.ErrPredictionPeriodActive
	case models.PeriodStatusClosed:
		return nil, apperrors.ErrPredictionPeriodClosed
	}

	category, err := s.resolveExpenseCategory(budgetID, categoryID)
	if err != nil {
		return nil, err
	}

	var deposit models.Entity
	if err := s.db.Where("id = ? AND budget_id = ?", depositID, budgetID).First(&deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepositNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !deposit.IsDeposit {
		return nil, apperrors.ErrNotADeposit
	}
	if category.DepositID != nil && *category.DepositID != depositID {
		return nil, apperrors.ErrPredictionDepositMismatch
	}

	var count int64
	if err := s.db.Model(&models.ExpensePrediction{}).
		Where("period_id = ? AND category_id = ?", periodID, categoryID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicatePrediction
	}

	prediction := &models.ExpensePrediction{
		PeriodID:    periodID,
		DepositID:   depositID,
		CategoryID:  &categoryID,
		CurrentPlan: currentPlan,
		Description: description,
	}
	if err := s.db.Create(prediction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return prediction, nil
}

// resolveExpenseCategory loads a category and verifies it is a non-reserved
// expense category of the budget.
func (s *predictionService) resolveExpenseCategory(budgetID, categoryID string) (*models.TransferCategory, error) {
	var category models.TransferCategory
	if err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.CategoryType != models.CategoryTypeExpense {
		return nil, apperrors.ErrPredictionCategoryType
	}
	if category.Priority.Reserved() {
		return nil, apperrors.ErrReservedPriority
	}
	return &category, nil
}

// GetBudgetPredictions returns a paginated, filtered list of the budget's
// predictions across all periods.
func (s *predictionService) GetBudgetPredictions(userID, budgetID string, page pagination.PageRequest, filter PredictionFilter) (*pagination.PageResponse[models.ExpensePrediction], error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.ExpensePrediction{}).
		Joins("JOIN periods ON periods.id = expense_predictions.period_id").
		Where("periods.budget_id = ?", budgetID)
	if filter.PeriodID != nil {
		base = base.Where("expense_predictions.period_id = ?", *filter.PeriodID)
	}
	if filter.CategoryID != nil {
		base = base.Where("expense_predictions.category_id = ?", *filter.CategoryID)
	}
	if filter.DepositID != nil {
		base = base.Where("expense_predictions.deposit_id = ?", *filter.DepositID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"current_plan": "expense_predictions.current_plan",
		"initial_plan": "expense_predictions.initial_plan",
		"created_at":   "expense_predictions.created_at",
	}, "expense_predictions.created_at ASC")

	var predictions []models.ExpensePrediction
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&predictions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(predictions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPredictionByID returns a prediction by ID within the budget.
func (s *predictionService) GetPredictionByID(userID, budgetID, predictionID string) (*models.ExpensePrediction, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	return s.getPrediction(budgetID, predictionID)
}

func (s *predictionService) getPrediction(budgetID, predictionID string) (*models.ExpensePrediction, error) {
	var prediction models.ExpensePrediction
	err := s.db.
		Joins("JOIN periods ON periods.id = expense_predictions.period_id").
		Where("expense_predictions.id = ? AND periods.budget_id = ?", predictionID, budgetID).
		First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPredictionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &prediction, nil
}

// UpdatePrediction changes the current plan or description. The current plan
// remains editable while the period is active; closed periods freeze the row.
func (s *predictionService) UpdatePrediction(userID, budgetID, predictionID string, currentPlan *int64, description *string) (*models.ExpensePrediction, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	prediction, err := s.getPrediction(budgetID, predictionID)
	if err != nil {
		return nil, err
	}

	var period models.Period
	if err := s.db.First(&period, "id = ?", prediction.PeriodID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if period.Status == models.PeriodStatusClosed {
		return nil, apperrors.ErrPredictionPeriodClosed
	}

	updates := make(map[string]interface{})
	if currentPlan != nil {
		if *currentPlan < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Current plan has to be zero or positive.")
		}
		updates["current_plan"] = *currentPlan
	}
	if description != nil {
		updates["description"] = *description
	}

	if len(updates) > 0 {
		if err := s.db.Model(prediction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return prediction, nil
}

// DeletePrediction removes a prediction from a draft period. Uncategorized
// per-deposit rows and rows in active or closed periods are protected.
func (s *predictionService) DeletePrediction(userID, budgetID, predictionID string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	prediction, err := s.getPrediction(budgetID, predictionID)
	if err != nil {
		return err
	}
	if prediction.CategoryID == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Uncategorized prediction cannot be deleted.")
	}

	var period models.Period
	if err := s.db.First(&period, "id = ?", prediction.PeriodID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	switch period.Status {
	case models.PeriodStatusActive:
		return apperrors.ErrPredictionPeriodActive
	case models.PeriodStatusClosed:
		return apperrors.ErrPredictionPeriodClosed
	}

	if err := s.db.Delete(prediction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CopyFromPreviousPeriod copies the categorized predictions of the previous
// period into the given draft period. Guarded to run only while the target
// has no categorized predictions of its own; returns how many rows were
// copied.
func (s *predictionService) CopyFromPreviousPeriod(userID, budgetID, periodID string) (int, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return 0, err
	}

	var period models.Period
	if err := s.db.Where("id = ? AND budget_id = ?", periodID, budgetID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrPeriodNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	switch period.Status {
	case models.PeriodStatusActive:
		return 0, apperrors.ErrPredictionPeriodActive
	case models.PeriodStatusClosed:
		return 0, apperrors.ErrPredictionPeriodClosed
	}
	if period.PreviousPeriodID == nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Period has no previous period to copy from.")
	}

	var existing int64
	if err := s.db.Model(&models.ExpensePrediction{}).
		Where("period_id = ? AND category_id IS NOT NULL", periodID).
		Count(&existing).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return 0, apperrors.ErrPredictionsAlreadyExist
	}

	var previous []models.ExpensePrediction
	if err := s.db.Where("period_id = ? AND category_id IS NOT NULL", *period.PreviousPeriodID).
		Find(&previous).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(previous) == 0 {
		return 0, nil
	}

	copies := make([]models.ExpensePrediction, 0, len(previous))
	for i := range previous {
		source := previous[i]
		copies = append(copies, models.ExpensePrediction{
			PeriodID:    periodID,
			DepositID:   source.DepositID,
			CategoryID:  source.CategoryID,
			CurrentPlan: source.CurrentPlan,
			Description: source.Description,
		})
	}
	if err := s.db.Create(&copies).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(copies), nil
}
