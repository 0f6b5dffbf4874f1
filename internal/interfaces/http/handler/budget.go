package handler

import (
	"context"
	"time"

	budgetingapp "github.com/finstack/backend/internal/application/budgeting"
	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetHandler handles budget related API endpoints
type BudgetHandler struct {
	BaseHandler
	service *budgetingapp.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(service *budgetingapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// BudgetListFilter represents filter parameters for the budget list
type BudgetListFilter struct {
	IsActive *bool  `form:"is_active"`
	ActiveAt string `form:"active_at"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns a paginated list of budgets
func (h *BudgetHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var filter BudgetListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := budgeting.BudgetFilter{}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search
	domainFilter.IsActive = filter.IsActive

	if filter.ActiveAt != "" {
		t, err := time.Parse(dateLayout, filter.ActiveAt)
		if err != nil {
			h.BadRequest(c, "Invalid active_at date, expected YYYY-MM-DD")
			return
		}
		domainFilter.ActiveAt = &t
	}

	result, err := h.service.List(c.Request.Context(), tenantID, domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns a single budget by ID
func (h *BudgetHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Create creates a new budget
func (h *BudgetHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req budgetingapp.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Delete deletes a budget
func (h *BudgetHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, budgetID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate activates a budget
func (h *BudgetHandler) Activate(c *gin.Context) {
	h.transition(c, h.service.Activate)
}

// Deactivate deactivates a budget
func (h *BudgetHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.service.Deactivate)
}

// Recalculate re-derives per-category actuals from approved expenses
func (h *BudgetHandler) Recalculate(c *gin.Context) {
	h.transition(c, h.service.Recalculate)
}

// AddItem adds a category line to a budget
func (h *BudgetHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	var req budgetingapp.AddBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), tenantID, budgetID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateItem updates a category line on a budget
func (h *BudgetHandler) UpdateItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req budgetingapp.UpdateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), tenantID, budgetID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveItem removes a category line from a budget
func (h *BudgetHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	resp, err := h.service.RemoveItem(c.Request.Context(), tenantID, budgetID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

func (h *BudgetHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, budgetID uuid.UUID) (*budgetingapp.BudgetResponse, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers budget routes
func (h *BudgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	budgets := rg.Group("/budgets")
	{
		budgets.GET("", h.List)
		budgets.GET("/:id", h.Get)
		budgets.POST("", h.Create)
		budgets.DELETE("/:id", h.Delete)
		budgets.POST("/:id/activate", h.Activate)
		budgets.POST("/:id/deactivate", h.Deactivate)
		budgets.POST("/:id/recalculate", h.Recalculate)
		budgets.POST("/:id/items", h.AddItem)
		budgets.PUT("/:id/items/:itemId", h.UpdateItem)
		budgets.DELETE("/:id/items/:itemId", h.RemoveItem)
	}
}
