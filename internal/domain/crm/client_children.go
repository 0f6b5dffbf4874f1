package crm

import (
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientNote is a free-form note attached to a client
type ClientNote struct {
	shared.BaseEntity
	ClientID uuid.UUID `json:"client_id"`
	Content  string    `json:"content"`
	AuthorID *uuid.UUID `json:"author_id"`
}

// NewClientNote creates a new note for a client
func NewClientNote(clientID uuid.UUID, content string) (*ClientNote, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if content == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT", "Note content cannot be empty")
	}
	return &ClientNote{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Content:    content,
	}, nil
}

// ClientDocument is a document reference attached to a client
type ClientDocument struct {
	shared.BaseEntity
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	MimeType string    `json:"mime_type"`
}

// NewClientDocument creates a new document reference for a client
func NewClientDocument(clientID uuid.UUID, name, url, mimeType string) (*ClientDocument, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Document name cannot be empty")
	}
	if url == "" {
		return nil, shared.NewDomainError("INVALID_URL", "Document URL cannot be empty")
	}
	return &ClientDocument{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Name:       name,
		URL:        url,
		MimeType:   mimeType,
	}, nil
}

// InteractionKind represents the channel of a client interaction
type InteractionKind string

const (
	InteractionKindCall    InteractionKind = "CALL"
	InteractionKindEmail   InteractionKind = "EMAIL"
	InteractionKindMeeting InteractionKind = "MEETING"
	InteractionKindSystem  InteractionKind = "SYSTEM" // generated by the system, e.g. welcome
)

// IsValid checks if the kind is a valid InteractionKind
func (k InteractionKind) IsValid() bool {
	switch k {
	case InteractionKindCall, InteractionKindEmail, InteractionKindMeeting, InteractionKindSystem:
		return true
	}
	return false
}

// ClientInteraction records contact with a client (call, email, meeting).
// Interactions additionally stamp the client's last_contact_date.
type ClientInteraction struct {
	shared.BaseEntity
	ClientID uuid.UUID       `json:"client_id"`
	Kind     InteractionKind `json:"kind"`
	Subject  string          `json:"subject"`
	Summary  string          `json:"summary"`
}

// NewClientInteraction creates a new interaction record
func NewClientInteraction(clientID uuid.UUID, kind InteractionKind, subject, summary string) (*ClientInteraction, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Interaction kind is not valid")
	}
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Interaction subject cannot be empty")
	}
	return &ClientInteraction{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Kind:       kind,
		Subject:    subject,
		Summary:    summary,
	}, nil
}

// WelcomeInteraction builds the synthetic interaction recorded once when a
// client is onboarded.
func WelcomeInteraction(clientID uuid.UUID, clientName string) *ClientInteraction {
	return &ClientInteraction{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Kind:       InteractionKindSystem,
		Subject:    "Welcome",
		Summary:    "Client " + clientName + " was onboarded",
	}
}

// ClientTag is a classification label assigned to a client
type ClientTag struct {
	shared.BaseEntity
	ClientID uuid.UUID `json:"client_id"`
	Label    string    `json:"label"`
}

// NewClientTag creates a new tag assignment for a client
func NewClientTag(clientID uuid.UUID, label string) (*ClientTag, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "Tag label cannot be empty")
	}
	if len(label) > 100 {
		return nil, shared.NewDomainError("INVALID_LABEL", "Tag label cannot exceed 100 characters")
	}
	return &ClientTag{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Label:      label,
	}, nil
}
