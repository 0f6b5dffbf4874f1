package handler

import (
	"context"

	crmapp "github.com/finstack/backend/internal/application/crm"
	"github.com/finstack/backend/internal/domain/crm"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientHandler handles client (CRM) related API endpoints
type ClientHandler struct {
	BaseHandler
	service *crmapp.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(service *crmapp.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// ClientListFilter represents filter parameters for the client list
type ClientListFilter struct {
	Type     string `form:"type"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns a paginated list of clients
func (h *ClientHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var filter ClientListFilter
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

	domainFilter := crm.ClientFilter{}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search

	if filter.Type != "" {
		clientType := crm.ClientType(filter.Type)
		domainFilter.Type = &clientType
	}
	if filter.Status != "" {
		status := crm.ClientStatus(filter.Status)
		domainFilter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), tenantID, domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns a single client with its child collections
func (h *ClientHandler) Get(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Create creates a new client
func (h *ClientHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req crmapp.CreateClientRequest
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

// SetStatus changes the client lifecycle status
func (h *ClientHandler) SetStatus(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req crmapp.UpdateClientStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetStatus(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete deletes a client and its child records
func (h *ClientHandler) Delete(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, clientID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// TouchActivity bumps the client's last activity timestamp
func (h *ClientHandler) TouchActivity(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	if err := h.service.TouchActivity(c.Request.Context(), tenantID, clientID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddNote attaches a note to a client
func (h *ClientHandler) AddNote(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req crmapp.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AddNote(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// RemoveNote removes a note from a client
func (h *ClientHandler) RemoveNote(c *gin.Context) {
	h.removeChild(c, "noteId", h.service.RemoveNote)
}

// AddDocument attaches a document reference to a client
func (h *ClientHandler) AddDocument(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req crmapp.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AddDocument(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// RemoveDocument removes a document reference from a client
func (h *ClientHandler) RemoveDocument(c *gin.Context) {
	h.removeChild(c, "documentId", h.service.RemoveDocument)
}

// RecordInteraction records an interaction with a client
func (h *ClientHandler) RecordInteraction(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req crmapp.RecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.RecordInteraction(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// RemoveInteraction removes an interaction from a client
func (h *ClientHandler) RemoveInteraction(c *gin.Context) {
	h.removeChild(c, "interactionId", h.service.RemoveInteraction)
}

// AssignTag assigns a tag to a client
func (h *ClientHandler) AssignTag(c *gin.Context) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req crmapp.AssignTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AssignTag(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// RemoveTag removes a tag from a client
func (h *ClientHandler) RemoveTag(c *gin.Context) {
	h.removeChild(c, "tagId", h.service.RemoveTag)
}

// tenantAndID resolves the tenant and the client ID path parameter,
// writing the error response itself when either is invalid
func (h *ClientHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return uuid.Nil, uuid.Nil, false
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return uuid.Nil, uuid.Nil, false
	}

	return tenantID, clientID, true
}

// removeChild handles the shared shape of child-record deletion endpoints
func (h *ClientHandler) removeChild(
	c *gin.Context,
	param string,
	fn func(ctx context.Context, tenantID, clientID, childID uuid.UUID) error,
) {
	tenantID, clientID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	childID, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param)
		return
	}

	if err := fn(c.Request.Context(), tenantID, clientID, childID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers client routes
func (h *ClientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.GET("", h.List)
		clients.GET("/:id", h.Get)
		clients.POST("", h.Create)
		clients.DELETE("/:id", h.Delete)
		clients.PUT("/:id/status", h.SetStatus)
		clients.POST("/:id/touch", h.TouchActivity)
		clients.POST("/:id/notes", h.AddNote)
		clients.DELETE("/:id/notes/:noteId", h.RemoveNote)
		clients.POST("/:id/documents", h.AddDocument)
		clients.DELETE("/:id/documents/:documentId", h.RemoveDocument)
		clients.POST("/:id/interactions", h.RecordInteraction)
		clients.DELETE("/:id/interactions/:interactionId", h.RemoveInteraction)
		clients.POST("/:id/tags", h.AssignTag)
		clients.DELETE("/:id/tags/:tagId", h.RemoveTag)
	}
}
