package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
)

// chartService produces read-only per-period aggregations in the
// {xAxis, series} shape chart clients consume.
type chartService struct {
	db *gorm.DB
}

// NewChartService creates a new ChartServicer.
func NewChartService(db *gorm.DB) ChartServicer {
	return &chartService{db: db}
}

type periodSum struct {
	PeriodID string
	Total    int64
}

// budgetPeriods returns the budget's periods ordered chronologically.
func (s *chartService) budgetPeriods(budgetID string) ([]models.Period, error) {
	var periods []models.Period
	if err := s.db.Where("budget_id = ?", budgetID).Order("date_start ASC").Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return periods, nil
}

// seriesData arranges grouped per-period sums into the xAxis order, filling
// zeroes for periods without data.
func seriesData(periods []models.Period, sums []periodSum) []int64 {
	byPeriod := make(map[string]int64, len(sums))
	for _, sum := range sums {
		byPeriod[sum.PeriodID] = sum.Total
	}
	data := make([]int64, len(periods))
	for i, period := range periods {
		data[i] = byPeriod[period.ID]
	}
	return data
}

// sumByPeriod runs a grouped sum of transfer values per period under the
// given extra conditions. Generated mirror income legs carry a reserved
// category and are excluded so deposit-to-deposit moves are not counted as
// budget income.
func (s *chartService) sumByPeriod(budgetID string, conds func(*gorm.DB) *gorm.DB) ([]periodSum, error) {
	query := s.db.Model(&models.Transfer{}).
		Select("transfers.period_id AS period_id, COALESCE(SUM(transfers.value), 0) AS total").
		Joins("JOIN transfer_categories ON transfer_categories.id = transfers.category_id").
		Where("transfers.budget_id = ?", budgetID).
		Where("transfer_categories.priority NOT IN ?", models.ReservedPriorities()).
		Group("transfers.period_id")
	query = conds(query)

	var sums []periodSum
	if err := query.Scan(&sums).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sums, nil
}

// TransfersInPeriods charts total income against total expense per period.
func (s *chartService) TransfersInPeriods(userID, budgetID string) (*ChartResponse, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	periods, err := s.budgetPeriods(budgetID)
	if err != nil {
		return nil, err
	}

	response := &ChartResponse{XAxis: make([]string, len(periods)), Series: []ChartSeries{}}
	for i, period := range periods {
		response.XAxis[i] = period.Name
	}

	for _, transferType := range []models.TransferType{models.TransferTypeIncome, models.TransferTypeExpense} {
		tt := transferType
		sums, err := s.sumByPeriod(budgetID, func(db *gorm.DB) *gorm.DB {
			return db.Where("transfers.transfer_type = ?", tt)
		})
		if err != nil {
			return nil, err
		}
		name := "Incomes"
		if tt == models.TransferTypeExpense {
			name = "Expenses"
		}
		response.Series = append(response.Series, ChartSeries{Name: name, Data: seriesData(periods, sums)})
	}
	return response, nil
}

// DepositsInPeriods charts the per-period net flow of every deposit: income
// into the deposit minus expense out of it. Mirror legs are counted here
// since they are real flows from the deposit's point of view.
func (s *chartService) DepositsInPeriods(userID, budgetID string) (*ChartResponse, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	periods, err := s.budgetPeriods(budgetID)
	if err != nil {
		return nil, err
	}

	var deposits []models.Entity
	if err := s.db.Where("budget_id = ? AND is_deposit = ?", budgetID, true).
		Order("name ASC").Find(&deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := &ChartResponse{XAxis: make([]string, len(periods)), Series: make([]ChartSeries, 0, len(deposits))}
	for i, period := range periods {
		response.XAxis[i] = period.Name
	}

	for _, deposit := range deposits {
		var sums []periodSum
		err := s.db.Model(&models.Transfer{}).
			Select("period_id AS period_id, COALESCE(SUM(CASE WHEN transfer_type = ? THEN value ELSE -value END), 0) AS total",
				models.TransferTypeIncome).
			Where("budget_id = ? AND deposit_id = ?", budgetID, deposit.ID).
			Group("period_id").
			Scan(&sums).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		response.Series = append(response.Series, ChartSeries{Name: deposit.Name, Data: seriesData(periods, sums)})
	}
	return response, nil
}

// CategoryResults charts the per-period actual total of one category, with a
// planned-value series alongside for expense categories.
func (s *chartService) CategoryResults(userID, budgetID, categoryID string) (*ChartResponse, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	var category models.TransferCategory
	if err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	periods, err := s.budgetPeriods(budgetID)
	if err != nil {
		return nil, err
	}

	response := &ChartResponse{XAxis: make([]string, len(periods))}
	for i, period := range periods {
		response.XAxis[i] = period.Name
	}

	var sums []periodSum
	err = s.db.Model(&models.Transfer{}).
		Select("period_id AS period_id, COALESCE(SUM(value), 0) AS total").
		Where("budget_id = ? AND category_id = ?", budgetID, categoryID).
		Group("period_id").
		Scan(&sums).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	response.Series = append(response.Series, ChartSeries{Name: "Result", Data: seriesData(periods, sums)})

	if category.CategoryType == models.CategoryTypeExpense {
		var planned []periodSum
		err = s.db.Model(&models.ExpensePrediction{}).
			Select("period_id AS period_id, COALESCE(SUM(current_plan), 0) AS total").
			Where("category_id = ?", categoryID).
			Group("period_id").
			Scan(&planned).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		response.Series = append(response.Series, ChartSeries{Name: "Planned", Data: seriesData(periods, planned)})
	}
	return response, nil
}
