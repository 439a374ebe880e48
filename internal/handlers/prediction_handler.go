package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/pagination"
	"budgetbook/internal/services"
)

// PredictionHandler handles expense prediction requests
type PredictionHandler struct {
	predictionService services.PredictionServicer
	auditService      services.AuditServicer
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService services.PredictionServicer, auditService services.AuditServicer) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService, auditService: auditService}
}

// CreatePredictionRequest represents the request payload for creating a prediction
type CreatePredictionRequest struct {
	PeriodID    string `json:"period_id" binding:"required,uuid"`
	DepositID   string `json:"deposit_id" binding:"required,uuid"`
	CategoryID  string `json:"category_id" binding:"required,uuid"`
	CurrentPlan int64  `json:"current_plan" binding:"min=0"`
	Description string `json:"description" binding:"max=255"`
}

// UpdatePredictionRequest represents the request payload for updating a prediction
type UpdatePredictionRequest struct {
	CurrentPlan *int64  `json:"current_plan" binding:"omitempty,min=0"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// CreatePrediction handles the creation of a new expense prediction
// @Summary     Create an expense prediction
// @Description Plan an amount for an expense category in a draft period
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body CreatePredictionRequest true "Prediction details"
// @Success     201 {object} models.ExpensePrediction "Prediction created"
// @Failure     400 {object} ErrorResponse "Wrong category type, duplicate or period not draft"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Referenced record not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/expense_predictions [post]
func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
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

	var req CreatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	prediction, err := h.predictionService.CreatePrediction(userID, budgetID, req.PeriodID, req.DepositID, req.CategoryID, req.CurrentPlan, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PREDICTION", "expense_prediction", prediction.ID, c.ClientIP(),
		map[string]any{"period_id": prediction.PeriodID, "current_plan": prediction.CurrentPlan})

	c.JSON(http.StatusCreated, gin.H{"expense_prediction": prediction})
}

// GetPredictions handles the retrieval of the budget's predictions
// @Summary     Get expense predictions
// @Description Get a paginated list of expense predictions in the budget
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path  string true  "Budget ID"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       period_id   query string false "Filter by period"
// @Param       category_id query string false "Filter by category"
// @Param       deposit_id  query string false "Filter by deposit"
// @Param       ordering    query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.ExpensePrediction] "Paginated predictions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/expense_predictions [get]
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
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

	filter := services.PredictionFilter{Ordering: c.Query("ordering")}
	if periodID := c.Query("period_id"); periodID != "" {
		filter.PeriodID = &periodID
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if depositID := c.Query("deposit_id"); depositID != "" {
		filter.DepositID = &depositID
	}

	result, err := h.predictionService.GetBudgetPredictions(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPrediction handles the retrieval of a single prediction
// @Summary     Get expense prediction by ID
// @Description Get an expense prediction in the budget
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path string true "Budget ID"
// @Param       prediction_id path string true "Prediction ID"
// @Success     200 {object} models.ExpensePrediction "Prediction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/expense_predictions/{prediction_id} [get]
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
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

	predictionID, err := pathID(c, "prediction_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	prediction, err := h.predictionService.GetPredictionByID(userID, budgetID, predictionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense_prediction": prediction})
}

// UpdatePrediction handles updating a prediction
// @Summary     Update an expense prediction
// @Description Update the current plan or description; rejected once the period closes
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path string true "Budget ID"
// @Param       prediction_id path string true "Prediction ID"
// @Param       request body UpdatePredictionRequest true "Fields to update"
// @Success     200 {object} models.ExpensePrediction "Prediction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or period closed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/expense_predictions/{prediction_id} [put]
func (h *PredictionHandler) UpdatePrediction(c *gin.Context) {
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

	predictionID, err := pathID(c, "prediction_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	prediction, err := h.predictionService.UpdatePrediction(userID, budgetID, predictionID, req.CurrentPlan, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PREDICTION", "expense_prediction", predictionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense_prediction": prediction})
}

// DeletePrediction handles deleting a prediction
// @Summary     Delete an expense prediction
// @Description Delete a categorized prediction from a draft period
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path string true "Budget ID"
// @Param       prediction_id path string true "Prediction ID"
// @Success     204 "Prediction deleted"
// @Failure     400 {object} ErrorResponse "Uncategorized row or period not draft"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/expense_predictions/{prediction_id} [delete]
func (h *PredictionHandler) DeletePrediction(c *gin.Context) {
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

	predictionID, err := pathID(c, "prediction_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.predictionService.DeletePrediction(userID, budgetID, predictionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PREDICTION", "expense_prediction", predictionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// CopyPredictions handles copying predictions from the previous period
// @Summary     Copy predictions from the previous period
// @Description Copy categorized predictions into a draft period with none of its own
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       period_id path string true "Target period ID"
// @Success     201 {object} map[string]int "Number of copied predictions"
// @Failure     400 {object} ErrorResponse "Target already has predictions or period not draft"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/periods/{period_id}/copy_predictions [post]
func (h *PredictionHandler) CopyPredictions(c *gin.Context) {
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

	copied, err := h.predictionService.CopyFromPreviousPeriod(userID, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COPY_PREDICTIONS", "period", periodID, c.ClientIP(),
		map[string]any{"copied": copied})

	c.JSON(http.StatusCreated, gin.H{"copied": copied})
}
