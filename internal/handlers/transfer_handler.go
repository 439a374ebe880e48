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

// TransferHandler handles transfer requests, including the bulk delete and
// copy operations.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// TransferRequest represents the request payload for creating or updating a transfer
type TransferRequest struct {
	Name         string    `json:"name" binding:"required,max=255"`
	Description  string    `json:"description" binding:"max=255"`
	Value        int64     `json:"value" binding:"required,gt=0"`
	Date         time.Time `json:"date" binding:"required"`
	TransferType string    `json:"transfer_type" binding:"required,transfer_type"`
	PeriodID     string    `json:"period_id" binding:"required,uuid"`
	EntityID     string    `json:"entity_id" binding:"required,uuid"`
	DepositID    string    `json:"deposit_id" binding:"required,uuid"`
	CategoryID   string    `json:"category_id" binding:"required,uuid"`
}

// ObjectsIDsRequest represents the payload for bulk delete and copy
type ObjectsIDsRequest struct {
	ObjectsIDs []string `json:"objects_ids" binding:"required,min=1,dive,uuid"`
}

func (r *TransferRequest) input() services.TransferInput {
	return services.TransferInput{
		Name:        r.Name,
		Description: r.Description,
		Value:       r.Value,
		Date:        r.Date,
		PeriodID:    r.PeriodID,
		EntityID:    r.EntityID,
		DepositID:   r.DepositID,
		CategoryID:  r.CategoryID,
	}
}

// CreateTransfer handles the creation of a new transfer
// @Summary     Create a transfer
// @Description Create a new income or expense transfer in the budget
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body TransferRequest true "Transfer details"
// @Success     201 {object} models.Transfer "Transfer created"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Referenced record not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
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

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transfer, err := h.transferService.CreateTransfer(userID, budgetID, models.TransferType(req.TransferType), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSFER", "transfer", transfer.ID, c.ClientIP(),
		map[string]any{"name": transfer.Name, "value": transfer.Value, "transfer_type": transfer.TransferType})

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// GetTransfers handles the retrieval of the budget's transfers
// @Summary     Get transfers
// @Description Get a paginated list of transfers in the budget
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       transfer_type query string false "Filter by type (income/expense)"
// @Param       period_id     query string false "Filter by period"
// @Param       entity_id     query string false "Filter by entity"
// @Param       deposit_id    query string false "Filter by deposit"
// @Param       category_id   query string false "Filter by category"
// @Param       date_after    query string false "Filter by date lower bound (RFC 3339)"
// @Param       date_before   query string false "Filter by date upper bound (RFC 3339)"
// @Param       ordering      query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Transfer] "Paginated transfers"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers [get]
func (h *TransferHandler) GetTransfers(c *gin.Context) {
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

	filter := services.TransferFilter{Ordering: c.Query("ordering")}
	if raw := c.Query("transfer_type"); raw != "" {
		transferType := models.TransferType(raw)
		filter.TransferType = &transferType
	}
	if periodID := c.Query("period_id"); periodID != "" {
		filter.PeriodID = &periodID
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		filter.EntityID = &entityID
	}
	if depositID := c.Query("deposit_id"); depositID != "" {
		filter.DepositID = &depositID
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("date_after"); raw != "" {
		date, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_after"))
			return
		}
		filter.DateAfter = &date
	}
	if raw := c.Query("date_before"); raw != "" {
		date, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_before"))
			return
		}
		filter.DateBefore = &date
	}

	result, err := h.transferService.GetBudgetTransfers(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransfer handles the retrieval of a single transfer
// @Summary     Get transfer by ID
// @Description Get a transfer in the budget
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       transfer_id path string true "Transfer ID"
// @Success     200 {object} models.Transfer "Transfer"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers/{transfer_id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
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

	transferID, err := pathID(c, "transfer_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.GetTransferByID(userID, budgetID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// UpdateTransfer handles updating a transfer
// @Summary     Update a transfer
// @Description Update a transfer; the mirror income leg follows the change
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       transfer_id path string true "Transfer ID"
// @Param       request body TransferRequest true "Transfer details"
// @Success     200 {object} models.Transfer "Transfer updated"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers/{transfer_id} [put]
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
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

	transferID, err := pathID(c, "transfer_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transfer, err := h.transferService.UpdateTransfer(userID, budgetID, transferID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// DeleteTransfer handles deleting a transfer
// @Summary     Delete a transfer
// @Description Delete a transfer together with its mirror income leg
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       transfer_id path string true "Transfer ID"
// @Success     204 "Transfer deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers/{transfer_id} [delete]
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
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

	transferID, err := pathID(c, "transfer_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transferService.DeleteTransfer(userID, budgetID, transferID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// BulkDeleteTransfers handles deleting a batch of transfers
// @Summary     Bulk delete transfers
// @Description Delete a batch of transfers atomically; mirrors follow their originals
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body ObjectsIDsRequest true "Transfer IDs"
// @Success     204 "Transfers deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Some transfers not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers/bulk_delete [delete]
func (h *TransferHandler) BulkDeleteTransfers(c *gin.Context) {
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

	var req ObjectsIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.transferService.BulkDeleteTransfers(userID, budgetID, req.ObjectsIDs); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "BULK_DELETE_TRANSFERS", "budget", budgetID, c.ClientIP(),
		map[string]any{"count": len(req.ObjectsIDs)})

	c.Status(http.StatusNoContent)
}

// CopyTransfers handles copying a batch of transfers
// @Summary     Copy transfers
// @Description Duplicate a batch of transfers through full validation; mirrors regenerate
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body ObjectsIDsRequest true "Transfer IDs"
// @Success     201 {object} map[string][]string "IDs of the created copies"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Some transfers not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/transfers/copy [post]
func (h *TransferHandler) CopyTransfers(c *gin.Context) {
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

	var req ObjectsIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	newIDs, err := h.transferService.CopyTransfers(userID, budgetID, req.ObjectsIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COPY_TRANSFERS", "budget", budgetID, c.ClientIP(),
		map[string]any{"count": len(newIDs)})

	c.JSON(http.StatusCreated, gin.H{"objects_ids": newIDs})
}
