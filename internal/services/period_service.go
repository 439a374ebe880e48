package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// periodService enforces the temporal non-overlap and status-exclusivity
// rules for periods before persistence.
type periodService struct {
	db *gorm.DB
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB) PeriodServicer {
	return &periodService{db: db}
}

// validateDates checks date ordering and the three-way overlap test against
// all other periods of the budget. Boundary-inclusive overlap is rejected.
func (s *periodService) validateDates(budgetID, excludeID string, dateStart, dateEnd time.Time) error {
	if !dateStart.Before(dateEnd) {
		return apperrors.ErrPeriodDateOrder
	}

	query := s.db.Model(&models.Period{}).
		Where("budget_id = ?", budgetID).
		Where(
			s.db.Where("date_start <= ? AND date_end >= ?", dateStart, dateStart).
				Or("date_start <= ? AND date_end >= ?", dateEnd, dateEnd).
				Or("date_start >= ? AND date_end <= ?", dateStart, dateEnd),
		)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrPeriodDateCollision
	}
	return nil
}

// validateName checks period name uniqueness within the budget.
func (s *periodService) validateName(budgetID, excludeID, name string) error {
	query := s.db.Model(&models.Period{}).Where("budget_id = ? AND name = ?", budgetID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicatePeriodName
	}
	return nil
}

// CreatePeriod creates a new draft period. The previous period link is
// auto-assigned to the most recent prior period by end date, and one
// uncategorized zero prediction per budget deposit is created alongside.
func (s *periodService) CreatePeriod(userID, budgetID, name string, dateStart, dateEnd time.Time) (*models.Period, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	if err := s.validateDates(budgetID, "", dateStart, dateEnd); err != nil {
		return nil, err
	}
	if err := s.validateName(budgetID, "", name); err != nil {
		return nil, err
	}

	period := &models.Period{
		BudgetID:  budgetID,
		Name:      name,
		Status:    models.PeriodStatusDraft,
		DateStart: dateStart,
		DateEnd:   dateEnd,
	}

	// Chain to the period with the latest end date strictly before this
	// period's start date.
	var previous models.Period
	err := s.db.Where("budget_id = ? AND date_end < ?", budgetID, dateStart).
		Order("date_end DESC").First(&previous).Error
	switch {
	case err == nil:
		period.PreviousPeriodID = &previous.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First period of the budget.
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var depositIDs []string
		if err := tx.Model(&models.Entity{}).
			Where("budget_id = ? AND is_deposit = ?", budgetID, true).
			Pluck("id", &depositIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(depositIDs) == 0 {
			return nil
		}

		zero := int64(0)
		predictions := make([]models.ExpensePrediction, 0, len(depositIDs))
		for _, depositID := range depositIDs {
			predictions = append(predictions, models.ExpensePrediction{
				PeriodID:    period.ID,
				DepositID:   depositID,
				CategoryID:  nil,
				InitialPlan: &zero,
				CurrentPlan: 0,
			})
		}
		if err := tx.Create(&predictions).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return period, nil
}

// GetBudgetPeriods returns a paginated, filtered list of the budget's periods.
func (s *periodService) GetBudgetPeriods(userID, budgetID string, page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.Period], error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Period{}).Where("budget_id = ?", budgetID)
	if filter.Name != nil {
		base = base.Where("name LIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.DateStartAfter != nil {
		base = base.Where("date_start >= ?", *filter.DateStartAfter)
	}
	if filter.DateStartBefore != nil {
		base = base.Where("date_start <= ?", *filter.DateStartBefore)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"name": "name", "status": "status", "date_start": "date_start", "date_end": "date_end",
	}, "date_start DESC")

	var periods []models.Period
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(periods, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPeriodByID returns a period by ID within the budget.
func (s *periodService) GetPeriodByID(userID, budgetID, periodID string) (*models.Period, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	return s.getPeriod(s.db, budgetID, periodID)
}

func (s *periodService) getPeriod(db *gorm.DB, budgetID, periodID string) (*models.Period, error) {
	var period models.Period
	if err := db.Where("id = ? AND budget_id = ?", periodID, budgetID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// UpdatePeriod updates name and dates of a period. Closed periods are immutable.
func (s *periodService) UpdatePeriod(userID, budgetID, periodID string, name *string, dateStart, dateEnd *time.Time) (*models.Period, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	period, err := s.getPeriod(s.db, budgetID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodStatusClosed {
		return nil, apperrors.ErrPeriodClosed
	}

	newStart, newEnd := period.DateStart, period.DateEnd
	if dateStart != nil {
		newStart = *dateStart
	}
	if dateEnd != nil {
		newEnd = *dateEnd
	}
	if dateStart != nil || dateEnd != nil {
		if err := s.validateDates(budgetID, periodID, newStart, newEnd); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]interface{})
	if name != nil && *name != period.Name {
		if err := s.validateName(budgetID, periodID, *name); err != nil {
			return nil, err
		}
		updates["name"] = *name
	}
	if dateStart != nil {
		updates["date_start"] = newStart
	}
	if dateEnd != nil {
		updates["date_end"] = newEnd
	}

	if len(updates) > 0 {
		if err := s.db.Model(period).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return period, nil
}

// UpdatePeriodStatus advances the period lifecycle. Transitions are
// monotonic: draft -> active -> closed, never backward. Activation triggers
// prediction initialization in the same transaction.
func (s *periodService) UpdatePeriodStatus(userID, budgetID, periodID string, status models.PeriodStatus) (*models.Period, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	period, err := s.getPeriod(s.db, budgetID, periodID)
	if err != nil {
		return nil, err
	}

	if period.Status == models.PeriodStatusClosed {
		return nil, apperrors.ErrPeriodClosed
	}
	if period.Status == models.PeriodStatusActive && status == models.PeriodStatusDraft {
		return nil, apperrors.ErrPeriodStatusRegress
	}
	if status == models.PeriodStatusActive {
		var count int64
		if err := s.db.Model(&models.Period{}).
			Where("budget_id = ? AND status = ? AND id <> ?", budgetID, models.PeriodStatusActive, periodID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrActivePeriodExists
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if status == models.PeriodStatusActive && period.Status != models.PeriodStatusActive {
			if err := s.preparePredictionsOnActivation(tx, budgetID, periodID); err != nil {
				return err
			}
		}
		if err := tx.Model(period).Update("status", status).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	period.Status = status
	return period, nil
}

// preparePredictionsOnActivation freezes the initial plan of user-created
// predictions and bulk-creates zero predictions for every non-reserved
// expense category of the budget that has none in this period.
func (s *periodService) preparePredictionsOnActivation(tx *gorm.DB, budgetID, periodID string) error {
	if err := tx.Model(&models.ExpensePrediction{}).
		Where("period_id = ? AND initial_plan IS NULL", periodID).
		Update("initial_plan", gorm.Expr("current_plan")).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var unpredicted []models.TransferCategory
	err := tx.Where("budget_id = ? AND category_type = ?", budgetID, models.CategoryTypeExpense).
		Where("priority NOT IN ?", models.ReservedPriorities()).
		Where("id NOT IN (?)", tx.Model(&models.ExpensePrediction{}).
			Select("category_id").
			Where("period_id = ? AND category_id IS NOT NULL", periodID)).
		Find(&unpredicted).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(unpredicted) == 0 {
		return nil
	}

	zero := int64(0)
	predictions := make([]models.ExpensePrediction, 0, len(unpredicted))
	for i := range unpredicted {
		category := unpredicted[i]
		depositID := ""
		if category.DepositID != nil {
			depositID = *category.DepositID
		} else {
			// Categories without an owning deposit fall back to the
			// first deposit of the budget.
			if err := tx.Model(&models.Entity{}).
				Where("budget_id = ? AND is_deposit = ?", budgetID, true).
				Order("created_at").Limit(1).Pluck("id", &depositID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if depositID == "" {
				continue
			}
		}
		categoryID := category.ID
		predictions = append(predictions, models.ExpensePrediction{
			PeriodID:    periodID,
			DepositID:   depositID,
			CategoryID:  &categoryID,
			InitialPlan: &zero,
			CurrentPlan: 0,
		})
	}
	if len(predictions) == 0 {
		return nil
	}
	if err := tx.Create(&predictions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeletePeriod deletes a period and its predictions. Periods referenced by
// transfers are protected.
func (s *periodService) DeletePeriod(userID, budgetID, periodID string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	period, err := s.getPeriod(s.db, budgetID, periodID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transfer{}).Where("period_id = ?", periodID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrPeriodInUse
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", periodID).Delete(&models.ExpensePrediction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
