package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/pagination"
	"budgetbook/internal/services"
)

// EntityHandler handles entity and deposit requests. Deposits are entities
// with the is_deposit flag set and share the same storage; the /deposits
// routes pin the flag.
type EntityHandler struct {
	entityService services.EntityServicer
	auditService  services.AuditServicer
}

// NewEntityHandler creates a new EntityHandler
func NewEntityHandler(entityService services.EntityServicer, auditService services.AuditServicer) *EntityHandler {
	return &EntityHandler{entityService: entityService, auditService: auditService}
}

// CreateEntityRequest represents the request payload for creating an entity
type CreateEntityRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=255"`
	IsDeposit   bool   `json:"is_deposit"`
}

// UpdateEntityRequest represents the request payload for updating an entity
type UpdateEntityRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=128"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
}

// CreateEntity handles the creation of a new entity
// @Summary     Create an entity
// @Description Create a new entity or deposit in the budget
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body CreateEntityRequest true "Entity details"
// @Success     201 {object} models.Entity "Entity created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	h.create(c, nil)
}

// CreateDeposit handles the creation of a new deposit
// @Summary     Create a deposit
// @Description Create a new deposit in the budget
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       request body CreateEntityRequest true "Deposit details"
// @Success     201 {object} models.Entity "Deposit created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/deposits [post]
func (h *EntityHandler) CreateDeposit(c *gin.Context) {
	deposit := true
	h.create(c, &deposit)
}

func (h *EntityHandler) create(c *gin.Context, forceDeposit *bool) {
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

	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	isDeposit := req.IsDeposit
	if forceDeposit != nil {
		isDeposit = *forceDeposit
	}

	entity, err := h.entityService.CreateEntity(userID, budgetID, req.Name, req.Description, isDeposit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ENTITY", "entity", entity.ID, c.ClientIP(), map[string]any{
		"name":       entity.Name,
		"is_deposit": entity.IsDeposit,
	})

	c.JSON(http.StatusCreated, gin.H{"entity": entity})
}

// GetEntities handles the retrieval of the budget's entities
// @Summary     Get entities
// @Description Get a paginated list of entities in the budget
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id  path  string true  "Budget ID"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       name       query string false "Filter by name (substring)"
// @Param       is_active  query bool   false "Filter by active flag"
// @Param       is_deposit query bool   false "Filter deposits or plain entities"
// @Param       ordering   query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Entity] "Paginated entities"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/entities [get]
func (h *EntityHandler) GetEntities(c *gin.Context) {
	h.list(c, nil)
}

// GetDeposits handles the retrieval of the budget's deposits
// @Summary     Get deposits
// @Description Get a paginated list of deposits in the budget
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path  string true  "Budget ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       name      query string false "Filter by name (substring)"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       ordering  query string false "Order by field, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Entity] "Paginated deposits"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/deposits [get]
func (h *EntityHandler) GetDeposits(c *gin.Context) {
	deposit := true
	h.list(c, &deposit)
}

func (h *EntityHandler) list(c *gin.Context, forceDeposit *bool) {
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

	filter := services.EntityFilter{Ordering: c.Query("ordering"), IsDeposit: forceDeposit}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if raw := c.Query("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid is_active"))
			return
		}
		filter.IsActive = &isActive
	}
	if forceDeposit == nil {
		if raw := c.Query("is_deposit"); raw != "" {
			isDeposit, err := strconv.ParseBool(raw)
			if err != nil {
				respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid is_deposit"))
				return
			}
			filter.IsDeposit = &isDeposit
		}
	}

	result, err := h.entityService.GetBudgetEntities(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEntity handles the retrieval of a single entity
// @Summary     Get entity by ID
// @Description Get an entity or deposit in the budget
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       entity_id path string true "Entity ID"
// @Success     200 {object} models.Entity "Entity"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/entities/{entity_id} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
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

	entityID, err := pathID(c, "entity_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entity, err := h.entityService.GetEntityByID(userID, budgetID, entityID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// UpdateEntity handles updating an entity
// @Summary     Update an entity
// @Description Update the name, description or active flag of an entity
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       entity_id path string true "Entity ID"
// @Param       request body UpdateEntityRequest true "Fields to update"
// @Success     200 {object} models.Entity "Entity updated"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/entities/{entity_id} [put]
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
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

	entityID, err := pathID(c, "entity_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entity, err := h.entityService.UpdateEntity(userID, budgetID, entityID, req.Name, req.Description, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ENTITY", "entity", entityID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// DeleteEntity handles deleting an entity
// @Summary     Delete an entity
// @Description Delete an entity that no transfer, category or prediction references
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       entity_id path string true "Entity ID"
// @Success     204 "Entity deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a budget member"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     409 {object} ErrorResponse "Entity is referenced"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/entities/{entity_id} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
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

	entityID, err := pathID(c, "entity_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entityService.DeleteEntity(userID, budgetID, entityID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ENTITY", "entity", entityID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
