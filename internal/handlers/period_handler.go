package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
	"budgetbook/internal/services"
)

// PeriodHandler handles budgeting period requests
type PeriodHandler struct {
	periodService services.PeriodServicer
	auditService  services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler
func NewPeriodHandler(periodService services.PeriodServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService, auditService: auditService}
}

// CreatePeriodRequest represents the request payload for creating a period
type CreatePeriodRequest struct {
	Name      string    `json:"name" binding:"required,max=128"`
	DateStart time.Time `json:"date_start" binding:"required"`
	DateEnd   time.Time `json:"date_end" binding:"required"`
}

// UpdatePeriodRequest represents the request payload for updating a period
type UpdatePeriodRequest struct {
	Name      *string    `json:"name" binding:"omitempty,max=128"`
	DateStart *time.Time `json:"date_start"`
	DateEnd   *time.Time `json:"date_end"`
}

// UpdatePeriodStatusRequest represents the request payload for a status change
type UpdatePeriodStatusRequest struct {
	Status string `json:"status" binding:"required,period_status"`
}

// CreatePeriod handles the creation of a new period
// @Summary     Create a period
// @Description Create a new draft period in the budget
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body CreatePeriodRequest true "Period details"
// @Success     201 {object} models.Period "Period created"
// @Failure     400 {object} ErrorResponse "Invalid dates or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods [post]
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
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

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.CreatePeriod(userID, budgetID, req.Name, req.DateStart, req.DateEnd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PERIOD", "period", period.ID, c.ClientIP(),
		map[string]any{"name": period.Name})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// GetPeriods handles the retrieval of the budget's periods
// @Summary     Get periods
// @Description Get a paginated list of periods in the budget
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id  path  string true  "Budget ID"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       name       query string false "Filter by name (substring)"
// @Param       status     query string false "Filter by status (draft/active/closed)"
// @Param       ordering   query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Period] "Paginated periods"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods [get]
func (h *PeriodHandler) GetPeriods(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.PeriodFilter{Ordering: c.Query("ordering")}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if status := c.Query("status"); status != "" {
		periodStatus := models.PeriodStatus(status)
		filter.Status = &periodStatus
	}

	result, err := h.periodService.GetBudgetPeriods(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPeriod handles the retrieval of a single period
// @Summary     Get period by ID
// @Description Get a period in the budget
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       period_id path string true "Period ID"
// @Success     200 {object} models.Period "Period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods/{period_id} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
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

	periodID, err := pathID(c, "period_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.GetPeriodByID(userID, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// UpdatePeriod handles updating a period's name and dates
// @Summary     Update a period
// @Description Update the name or date range of a draft or active period
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       period_id path string true "Period ID"
// @Param       request body UpdatePeriodRequest true "Fields to update"
// @Success     200 {object} models.Period "Period updated"
// @Failure     400 {object} ErrorResponse "Invalid dates, duplicate name or closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods/{period_id} [put]
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
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

	periodID, err := pathID(c, "period_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.UpdatePeriod(userID, budgetID, periodID, req.Name, req.DateStart, req.DateEnd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PERIOD", "period", periodID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// UpdatePeriodStatus handles the period lifecycle transitions
// @Summary     Update period status
// @Description Move a period forward through draft, active and closed
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       period_id path string true "Period ID"
// @Param       request body UpdatePeriodStatusRequest true "New status"
// @Success     200 {object} models.Period "Status updated"
// @Failure     400 {object} ErrorResponse "Invalid transition or another period is active"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods/{period_id}/status [patch]
func (h *PeriodHandler) UpdatePeriodStatus(c *gin.Context) {
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

	periodID, err := pathID(c, "period_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePeriodStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.UpdatePeriodStatus(userID, budgetID, periodID, models.PeriodStatus(req.Status))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PERIOD_STATUS", "period", periodID, c.ClientIP(),
		map[string]any{"status": req.Status})

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// DeletePeriod handles deleting a period
// @Summary     Delete a period
// @Description Delete a period with no transfers
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       period_id path string true "Period ID"
// @Success     204 "Period deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Period has transfers"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods/{period_id} [delete]
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
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

	periodID, err := pathID(c, "period_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.periodService.DeletePeriod(userID, budgetID, periodID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PERIOD", "period", periodID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
