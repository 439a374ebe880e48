package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/services"
)

// ChartHandler handles read-only chart aggregation requests
type ChartHandler struct {
	chartService services.ChartServicer
}

// NewChartHandler creates a new ChartHandler
func NewChartHandler(chartService services.ChartServicer) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

// TransfersInPeriods charts income against expense per period
// @Summary     Transfers in periods chart
// @Description Get total income and expense per period
// @Tags        charts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} services.ChartResponse "Chart data"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/charts/transfers_in_periods [get]
func (h *ChartHandler) TransfersInPeriods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := pathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.TransfersInPeriods(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// DepositsInPeriods charts the net flow of each deposit per period
// @Summary     Deposits in periods chart
// @Description Get the net value flow of every deposit per period
// @Tags        charts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} services.ChartResponse "Chart data"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/charts/deposits_in_periods [get]
func (h *ChartHandler) DepositsInPeriods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := pathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.DepositsInPeriods(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// CategoryResults charts one category's totals per period
// @Summary     Category results chart
// @Description Get per-period actual totals for a category, with planned values for expense categories
// @Tags        charts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path  string true "Budget ID"
// @Param       category_id query string true "Category ID"
// @Success     200 {object} services.ChartResponse "Chart data"
// @Failure     400 {object} ErrorResponse "Missing category_id"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/charts/category_results [get]
func (h *ChartHandler) CategoryResults(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := pathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID := c.Query("category_id")
	if categoryID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required"))
		return
	}

	chart, err := h.chartService.CategoryResults(userID, budgetID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}
