package handler

import (
	"context"
	"time"

	invoicingapp "github.com/finstack/backend/internal/application/invoicing"
	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecurringInvoiceHandler handles recurring invoice template endpoints
type RecurringInvoiceHandler struct {
	BaseHandler
	service *invoicingapp.RecurringInvoiceService
}

// NewRecurringInvoiceHandler creates a new RecurringInvoiceHandler
func NewRecurringInvoiceHandler(service *invoicingapp.RecurringInvoiceService) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{service: service}
}

// RecurringInvoiceListFilter represents filter parameters for the template list
type RecurringInvoiceListFilter struct {
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	IsActive   *bool  `form:"is_active"`
	Search     string `form:"search"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns a paginated list of recurring invoice templates
func (h *RecurringInvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var filter RecurringInvoiceListFilter
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

	domainFilter := invoicing.RecurringInvoiceFilter{}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search
	domainFilter.IsActive = filter.IsActive

	if filter.CustomerID != "" {
		customerID, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		domainFilter.CustomerID = &customerID
	}

	result, err := h.service.List(c.Request.Context(), tenantID, domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListDue returns templates whose next generation date has passed
func (h *RecurringInvoiceHandler) ListDue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid 'at' timestamp, expected RFC3339")
			return
		}
		at = parsed
	}

	resp, err := h.service.ListDue(c.Request.Context(), tenantID, at)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Get returns a single recurring invoice template by ID
func (h *RecurringInvoiceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, templateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Create creates a new recurring invoice template
func (h *RecurringInvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req invoicingapp.CreateRecurringInvoiceRequest
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

// Delete deletes a recurring invoice template
func (h *RecurringInvoiceHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, templateID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate resumes generation for a template
func (h *RecurringInvoiceHandler) Activate(c *gin.Context) {
	h.transition(c, h.service.Activate)
}

// Deactivate pauses generation for a template
func (h *RecurringInvoiceHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.service.Deactivate)
}

// ClearNextGeneration marks the current occurrence as generated and
// advances the template to its next date
func (h *RecurringInvoiceHandler) ClearNextGeneration(c *gin.Context) {
	h.transition(c, h.service.ClearNextGeneration)
}

// AddItem adds a template line item
func (h *RecurringInvoiceHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return
	}

	var req invoicingapp.AddRecurringItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), tenantID, templateID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveItem removes a template line item
func (h *RecurringInvoiceHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	resp, err := h.service.RemoveItem(c.Request.Context(), tenantID, templateID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

func (h *RecurringInvoiceHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, templateID uuid.UUID) (*invoicingapp.RecurringInvoiceResponse, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, templateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers recurring invoice routes
func (h *RecurringInvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	templates := rg.Group("/recurring-invoices")
	{
		templates.GET("", h.List)
		templates.GET("/due", h.ListDue)
		templates.GET("/:id", h.Get)
		templates.POST("", h.Create)
		templates.DELETE("/:id", h.Delete)
		templates.POST("/:id/activate", h.Activate)
		templates.POST("/:id/deactivate", h.Deactivate)
		templates.POST("/:id/generated", h.ClearNextGeneration)
		templates.POST("/:id/items", h.AddItem)
		templates.DELETE("/:id/items/:itemId", h.RemoveItem)
	}
}
