package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/services"
)

// --- mock chart service ---

type mockChartService struct {
	transfersInPeriodsFn func(userID, budgetID string) (*services.ChartResponse, error)
	depositsInPeriodsFn  func(userID, budgetID string) (*services.ChartResponse, error)
	categoryResultsFn    func(userID, budgetID, categoryID string) (*services.ChartResponse, error)
}

func (m *mockChartService) TransfersInPeriods(userID, budgetID string) (*services.ChartResponse, error) {
	if m.transfersInPeriodsFn != nil {
		return m.transfersInPeriodsFn(userID, budgetID)
	}
	return &services.ChartResponse{}, nil
}

func (m *mockChartService) DepositsInPeriods(userID, budgetID string) (*services.ChartResponse, error) {
	if m.depositsInPeriodsFn != nil {
		return m.depositsInPeriodsFn(userID, budgetID)
	}
	return &services.ChartResponse{}, nil
}

func (m *mockChartService) CategoryResults(userID, budgetID, categoryID string) (*services.ChartResponse, error) {
	if m.categoryResultsFn != nil {
		return m.categoryResultsFn(userID, budgetID, categoryID)
	}
	return &services.ChartResponse{}, nil
}

var _ services.ChartServicer = (*mockChartService)(nil)

func setupChartRouter(handler *ChartHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/budgets/:budget_id/charts/transfers_in_periods", handler.TransfersInPeriods)
	auth.GET("/budgets/:budget_id/charts/deposits_in_periods", handler.DepositsInPeriods)
	auth.GET("/budgets/:budget_id/charts/category_results", handler.CategoryResults)
	return r
}

func TestChartHandler_TransfersInPeriods(t *testing.T) {
	t.Run("returns 200 with series", func(t *testing.T) {
		svc := &mockChartService{
			transfersInPeriodsFn: func(_, _ string) (*services.ChartResponse, error) {
				return &services.ChartResponse{
					XAxis: []string{"2024-08", "2024-09"},
					Series: []services.ChartSeries{
						{Name: "Incomes", Data: []int64{500000, 520000}},
						{Name: "Expenses", Data: []int64{310000, 295000}},
					},
				}, nil
			},
		}
		handler := NewChartHandler(svc)
		r := setupChartRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/charts/transfers_in_periods", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		xAxis := result["xAxis"].([]interface{})
		if len(xAxis) != 2 {
			t.Fatalf("expected 2 xAxis labels, got %d", len(xAxis))
		}
		series := result["series"].([]interface{})
		if len(series) != 2 {
			t.Fatalf("expected 2 series, got %d", len(series))
		}
		first := series[0].(map[string]interface{})
		if first["name"] != "Incomes" {
			t.Errorf("expected Incomes series first, got %v", first["name"])
		}
	})

	t.Run("returns 403 for a non-member", func(t *testing.T) {
		svc := &mockChartService{
			transfersInPeriodsFn: func(_, _ string) (*services.ChartResponse, error) {
				return nil, apperrors.ErrBudgetAccessDenied
			},
		}
		handler := NewChartHandler(svc)
		r := setupChartRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/charts/transfers_in_periods", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestChartHandler_CategoryResults(t *testing.T) {
	t.Run("returns 400 without category_id", func(t *testing.T) {
		handler := NewChartHandler(&mockChartService{})
		r := setupChartRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/charts/category_results", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("forwards category_id to the service", func(t *testing.T) {
		var gotCategory string
		svc := &mockChartService{
			categoryResultsFn: func(_, _, categoryID string) (*services.ChartResponse, error) {
				gotCategory = categoryID
				return &services.ChartResponse{}, nil
			},
		}
		handler := NewChartHandler(svc)
		r := setupChartRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/charts/category_results?category_id="+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCategory != testCategoryID {
			t.Errorf("expected category %s, got %s", testCategoryID, gotCategory)
		}
	})

	t.Run("returns 404 for unknown category", func(t *testing.T) {
		svc := &mockChartService{
			categoryResultsFn: func(_, _, _ string) (*services.ChartResponse, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewChartHandler(svc)
		r := setupChartRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/charts/category_results?category_id="+testCategoryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
