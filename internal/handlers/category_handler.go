package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
	"budgetbook/internal/services"
)

// CategoryHandler handles transfer category requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name         string  `json:"name" binding:"required,max=128"`
	Description  string  `json:"description" binding:"max=255"`
	CategoryType string  `json:"category_type" binding:"required,category_type"`
	Priority     int     `json:"priority" binding:"required,category_priority"`
	OwnerID      *string `json:"owner_id" binding:"omitempty,uuid"`
	DepositID    *string `json:"deposit_id" binding:"omitempty,uuid"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=128"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	Priority    *int    `json:"priority" binding:"omitempty,category_priority"`
	IsActive    *bool   `json:"is_active"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new transfer category in the budget
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.TransferCategory "Category created"
// @Failure     400 {object} ErrorResponse "Invalid priority, duplicate name or owner not a member"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
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

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(
		userID, budgetID, req.Name, req.Description,
		models.CategoryType(req.CategoryType), models.CategoryPriority(req.Priority),
		req.OwnerID, req.DepositID,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "category_type": category.CategoryType})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles the retrieval of the budget's categories
// @Summary     Get categories
// @Description Get a paginated list of categories in the budget
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       name          query string false "Filter by name (substring)"
// @Param       category_type query string false "Filter by type (income/expense)"
// @Param       priority      query int    false "Filter by priority tier"
// @Param       owner_id      query string false "Filter by owner"
// @Param       common_only   query bool   false "Only common (ownerless) categories"
// @Param       is_active     query bool   false "Filter by active flag"
// @Param       ordering      query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.TransferCategory] "Paginated categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
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

	filter := services.CategoryFilter{Ordering: c.Query("ordering")}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if raw := c.Query("category_type"); raw != "" {
		categoryType := models.CategoryType(raw)
		filter.CategoryType = &categoryType
	}
	if raw := c.Query("priority"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid priority"))
			return
		}
		priority := models.CategoryPriority(value)
		filter.Priority = &priority
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		filter.OwnerID = &ownerID
	}
	if raw := c.Query("common_only"); raw != "" {
		commonOnly, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid common_only"))
			return
		}
		filter.CommonOnly = commonOnly
	}
	if raw := c.Query("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid is_active"))
			return
		}
		filter.IsActive = &isActive
	}

	result, err := h.categoryService.GetBudgetCategories(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategory handles the retrieval of a single category
// @Summary     Get category by ID
// @Description Get a transfer category in the budget
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       category_id path string true "Category ID"
// @Success     200 {object} models.TransferCategory "Category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/categories/{category_id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
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

	categoryID, err := pathID(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, budgetID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update a category
// @Description Update the name, description, priority or active flag of a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       category_id path string true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} models.TransferCategory "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid priority or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/categories/{category_id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
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

	categoryID, err := pathID(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var priority *models.CategoryPriority
	if req.Priority != nil {
		value := models.CategoryPriority(*req.Priority)
		priority = &value
	}

	category, err := h.categoryService.UpdateCategory(userID, budgetID, categoryID, req.Name, req.Description, priority, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Description Delete a category that no transfer or prediction references
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       category_id path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category is referenced"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/categories/{category_id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
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

	categoryID, err := pathID(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
