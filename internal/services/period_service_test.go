package services

import (
	"testing"
	"time"

	"budgetbook/internal/models"
	"budgetbook/internal/testutil"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCreatePeriod(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		period, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)

		if period.Status != models.PeriodStatusDraft {
			t.Errorf("expected draft status, got %s", period.Status)
		}
		if period.PreviousPeriodID != nil {
			t.Error("first period should have no previous period")
		}
	})

	t.Run("creates_uncategorized_prediction_per_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		first := testutil.CreateTestDeposit(t, db, budget.ID)
		second := testutil.CreateTestDeposit(t, db, budget.ID)

		period, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)

		var predictions []models.ExpensePrediction
		db.Where("period_id = ? AND category_id IS NULL", period.ID).Find(&predictions)
		if len(predictions) != 2 {
			t.Fatalf("expected 2 uncategorized predictions, got %d", len(predictions))
		}
		deposits := map[string]bool{}
		for _, p := range predictions {
			deposits[p.DepositID] = true
			if p.CurrentPlan != 0 {
				t.Errorf("expected zero current plan, got %d", p.CurrentPlan)
			}
			if p.InitialPlan == nil || *p.InitialPlan != 0 {
				t.Error("expected zero initial plan on uncategorized prediction")
			}
		}
		if !deposits[first.ID] || !deposits[second.ID] {
			t.Error("expected one prediction per deposit")
		}
	})

	t.Run("chains_previous_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		september, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)
		october, err := svc.CreatePeriod(user.ID, budget.ID, "2024-10", date(2024, 10, 1), date(2024, 10, 31))
		testutil.AssertNoError(t, err)

		if october.PreviousPeriodID == nil || *october.PreviousPeriodID != september.ID {
			t.Error("expected october chained to september")
		}
	})

	t.Run("chains_to_latest_prior_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.CreatePeriod(user.ID, budget.ID, "2024-08", date(2024, 8, 1), date(2024, 8, 31))
		testutil.AssertNoError(t, err)
		september, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)
		november, err := svc.CreatePeriod(user.ID, budget.ID, "2024-11", date(2024, 11, 1), date(2024, 11, 30))
		testutil.AssertNoError(t, err)

		if november.PreviousPeriodID == nil || *november.PreviousPeriodID != september.ID {
			t.Error("expected november chained to september, the latest prior period")
		}
	})

	t.Run("date_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.CreatePeriod(user.ID, budget.ID, "backwards", date(2024, 9, 30), date(2024, 9, 1))
		testutil.AssertAppError(t, err, "PERIOD_DATE_ORDER")
	})

	t.Run("boundary_overlap_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)

		// Sharing a single boundary day counts as overlap.
		_, err = svc.CreatePeriod(user.ID, budget.ID, "overlap", date(2024, 9, 30), date(2024, 10, 31))
		testutil.AssertAppError(t, err, "PERIOD_DATE_COLLISION")

		// Fully contained range counts as overlap.
		_, err = svc.CreatePeriod(user.ID, budget.ID, "inside", date(2024, 9, 10), date(2024, 9, 20))
		testutil.AssertAppError(t, err, "PERIOD_DATE_COLLISION")

		// Fully containing range counts as overlap.
		_, err = svc.CreatePeriod(user.ID, budget.ID, "around", date(2024, 8, 15), date(2024, 10, 15))
		testutil.AssertAppError(t, err, "PERIOD_DATE_COLLISION")

		// Adjacent non-touching range is fine.
		_, err = svc.CreatePeriod(user.ID, budget.ID, "2024-10", date(2024, 10, 1), date(2024, 10, 31))
		testutil.AssertNoError(t, err)
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertNoError(t, err)
		_, err = svc.CreatePeriod(user.ID, budget.ID, "2024-09", date(2024, 10, 1), date(2024, 10, 31))
		testutil.AssertAppError(t, err, "DUPLICATE_PERIOD_NAME")
	})

	t.Run("non_member_denied", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)

		_, err := svc.CreatePeriod(stranger.ID, budget.ID, "2024-09", date(2024, 9, 1), date(2024, 9, 30))
		testutil.AssertAppError(t, err, "BUDGET_ACCESS_DENIED")
	})
}

func TestUpdatePeriod(t *testing.T) {
	t.Run("move_dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))

		newEnd := date(2024, 9, 25)
		updated, err := svc.UpdatePeriod(user.ID, budget.ID, period.ID, nil, nil, &newEnd)
		testutil.AssertNoError(t, err)
		if !updated.DateEnd.Equal(newEnd) {
			t.Errorf("expected end date %v, got %v", newEnd, updated.DateEnd)
		}
	})

	t.Run("move_into_other_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 10, 1), date(2024, 10, 31))

		newStart := date(2024, 9, 15)
		_, err := svc.UpdatePeriod(user.ID, budget.ID, period.ID, nil, &newStart, nil)
		testutil.AssertAppError(t, err, "PERIOD_DATE_COLLISION")
	})

	t.Run("closed_period_immutable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		db.Model(period).Update("status", models.PeriodStatusClosed)

		name := "renamed"
		_, err := svc.UpdatePeriod(user.ID, budget.ID, period.ID, &name, nil, nil)
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")
	})
}

func TestUpdatePeriodStatus(t *testing.T) {
	t.Run("activate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))

		updated, err := svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)
		if updated.Status != models.PeriodStatusActive {
			t.Errorf("expected active status, got %s", updated.Status)
		}
	})

	t.Run("activation_freezes_initial_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		deposit := testutil.CreateTestDeposit(t, db, budget.ID)
		category := testutil.CreateTestCategory(t, db, budget.ID, models.CategoryTypeExpense)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		prediction := testutil.CreateTestPrediction(t, db, period.ID, deposit.ID, category.ID, 12500)

		_, err := svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)

		var frozen models.ExpensePrediction
		db.First(&frozen, "id = ?", prediction.ID)
		if frozen.InitialPlan == nil || *frozen.InitialPlan != 12500 {
			t.Error("expected initial plan frozen to current plan on activation")
		}
	})

	t.Run("activation_creates_missing_zero_predictions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		deposit := testutil.CreateTestDeposit(t, db, budget.ID)
		covered := testutil.CreateTestCategory(t, db, budget.ID, models.CategoryTypeExpense)
		uncovered := testutil.CreateTestCategory(t, db, budget.ID, models.CategoryTypeExpense)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		testutil.CreateTestPrediction(t, db, period.ID, deposit.ID, covered.ID, 5000)

		_, err := svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)

		var created models.ExpensePrediction
		if err := db.Where("period_id = ? AND category_id = ?", period.ID, uncovered.ID).First(&created).Error; err != nil {
			t.Fatalf("expected zero prediction created for uncovered category: %v", err)
		}
		if created.CurrentPlan != 0 || created.InitialPlan == nil || *created.InitialPlan != 0 {
			t.Error("expected zero plans on bulk-created prediction")
		}

		// Reserved expense category must not receive a prediction.
		var reservedCount int64
		db.Model(&models.ExpensePrediction{}).
			Joins("JOIN transfer_categories ON transfer_categories.id = expense_predictions.category_id").
			Where("expense_predictions.period_id = ? AND transfer_categories.priority IN ?", period.ID, models.ReservedPriorities()).
			Count(&reservedCount)
		if reservedCount != 0 {
			t.Errorf("expected no predictions for reserved categories, got %d", reservedCount)
		}
	})

	t.Run("single_active_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		first := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		second := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 10, 1), date(2024, 10, 31))

		_, err := svc.UpdatePeriodStatus(user.ID, budget.ID, first.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)
		_, err = svc.UpdatePeriodStatus(user.ID, budget.ID, second.ID, models.PeriodStatusActive)
		testutil.AssertAppError(t, err, "ACTIVE_PERIOD_EXISTS")

		// Closing the first frees the slot.
		_, err = svc.UpdatePeriodStatus(user.ID, budget.ID, first.ID, models.PeriodStatusClosed)
		testutil.AssertNoError(t, err)
		_, err = svc.UpdatePeriodStatus(user.ID, budget.ID, second.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)
	})

	t.Run("no_regress_to_draft", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))

		_, err := svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusActive)
		testutil.AssertNoError(t, err)
		_, err = svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusDraft)
		testutil.AssertAppError(t, err, "PERIOD_STATUS_REGRESS")
	})

	t.Run("closed_is_terminal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		db.Model(period).Update("status", models.PeriodStatusClosed)

		_, err := svc.UpdatePeriodStatus(user.ID, budget.ID, period.ID, models.PeriodStatusActive)
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")
	})
}

func TestDeletePeriod(t *testing.T) {
	t.Run("deletes_period_and_predictions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		deposit := testutil.CreateTestDeposit(t, db, budget.ID)
		category := testutil.CreateTestCategory(t, db, budget.ID, models.CategoryTypeExpense)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		testutil.CreateTestPrediction(t, db, period.ID, deposit.ID, category.ID, 1000)

		testutil.AssertNoError(t, svc.DeletePeriod(user.ID, budget.ID, period.ID))

		var predictions int64
		db.Model(&models.ExpensePrediction{}).Where("period_id = ?", period.ID).Count(&predictions)
		if predictions != 0 {
			t.Errorf("expected predictions removed with period, got %d", predictions)
		}
	})

	t.Run("blocked_by_transfers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		entity := testutil.CreateTestEntity(t, db, budget.ID)
		deposit := testutil.CreateTestDeposit(t, db, budget.ID)
		category := testutil.CreateTestCategory(t, db, budget.ID, models.CategoryTypeExpense)
		period := testutil.CreateTestPeriod(t, db, budget.ID, date(2024, 9, 1), date(2024, 9, 30))
		testutil.CreateTestTransfer(t, db, budget.ID, period, entity.ID, deposit.ID, category.ID, models.TransferTypeExpense, 1000)

		err := svc.DeletePeriod(user.ID, budget.ID, period.ID)
		testutil.AssertAppError(t, err, "PERIOD_IN_USE")
	})
}
