package crm

import (
	"time"

	"github.com/finstack/backend/internal/domain/crm"
	"github.com/google/uuid"
)

// CreateClientRequest represents a request to onboard a client
type CreateClientRequest struct {
	Name   string           `json:"name" binding:"required,min=1,max=200"`
	Email  string           `json:"email" binding:"omitempty,email"`
	Phone  string           `json:"phone"`
	Type   crm.ClientType   `json:"type" binding:"required"`
	Status crm.ClientStatus `json:"status" binding:"required"`
}

// UpdateClientStatusRequest represents a request to move a client in the
// funnel
type UpdateClientStatusRequest struct {
	Status crm.ClientStatus `json:"status" binding:"required"`
}

// AddNoteRequest represents a request to attach a note
type AddNoteRequest struct {
	Content  string     `json:"content" binding:"required,min=1"`
	AuthorID *uuid.UUID `json:"author_id"`
}

// AddDocumentRequest represents a request to attach a document reference
type AddDocumentRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	URL      string `json:"url" binding:"required,url"`
	MimeType string `json:"mime_type"`
}

// RecordInteractionRequest represents a request to record contact with a
// client
type RecordInteractionRequest struct {
	Kind    crm.InteractionKind `json:"kind" binding:"required"`
	Subject string              `json:"subject" binding:"required,min=1,max=200"`
	Summary string              `json:"summary"`
}

// AssignTagRequest represents a request to assign a classification tag
type AssignTagRequest struct {
	Label string `json:"label" binding:"required,min=1,max=100"`
}

// ClientNoteResponse represents a note in responses
type ClientNoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	Content   string     `json:"content"`
	AuthorID  *uuid.UUID `json:"author_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ClientDocumentResponse represents a document reference in responses
type ClientDocumentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientInteractionResponse represents an interaction in responses
type ClientInteractionResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientTagResponse represents a tag assignment in responses
type ClientTagResponse struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// ClientResponse represents a client in responses
type ClientResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	LastContactDate  *time.Time `json:"last_contact_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ClientDetailResponse is a client with all child records loaded
type ClientDetailResponse struct {
	ClientResponse
	Notes        []ClientNoteResponse        `json:"notes"`
	Documents    []ClientDocumentResponse    `json:"documents"`
	Interactions []ClientInteractionResponse `json:"interactions"`
	Tags         []ClientTagResponse         `json:"tags"`
}

// ToClientResponse converts a domain client to its response form
func ToClientResponse(c *crm.Client) ClientResponse {
	return ClientResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Type:             c.Type.String(),
		Status:           c.Status.String(),
		LastActivityDate: c.LastActivityDate,
		LastContactDate:  c.LastContactDate,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToClientNoteResponse converts a domain note to its response form
func ToClientNoteResponse(n *crm.ClientNote) ClientNoteResponse {
	return ClientNoteResponse{
		ID:        n.ID,
		Content:   n.Content,
		AuthorID:  n.AuthorID,
		CreatedAt: n.CreatedAt,
	}
}

// ToClientDocumentResponse converts a domain document to its response form
func ToClientDocumentResponse(d *crm.ClientDocument) ClientDocumentResponse {
	return ClientDocumentResponse{
		ID:        d.ID,
		Name:      d.Name,
		URL:       d.URL,
		MimeType:  d.MimeType,
		CreatedAt: d.CreatedAt,
	}
}

// ToClientInteractionResponse converts a domain interaction to its
// response form
func ToClientInteractionResponse(i *crm.ClientInteraction) ClientInteractionResponse {
	return ClientInteractionResponse{
		ID:        i.ID,
		Kind:      string(i.Kind),
		Subject:   i.Subject,
		Summary:   i.Summary,
		CreatedAt: i.CreatedAt,
	}
}

// ToClientTagResponse converts a domain tag to its response form
func ToClientTagResponse(tag *crm.ClientTag) ClientTagResponse {
	return ClientTagResponse{
		ID:    tag.ID,
		Label: tag.Label,
	}
}
