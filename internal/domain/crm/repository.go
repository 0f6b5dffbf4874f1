package crm

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientFilter defines query filters for clients
type ClientFilter struct {
	shared.Filter
	Type   *ClientType   `json:"type"`
	Status *ClientStatus `json:"status"`
	Search string        `json:"search"`
}

// ClientRepository defines the persistence interface for clients and their
// child records
type ClientRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	// FindByIDForUpdate loads the client row under a write lock inside the
	// current transaction. Child writes that stamp activity go through it.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) ([]Client, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) (int64, error)
	Save(ctx context.Context, client *Client) error
	SaveWithLock(ctx context.Context, client *Client) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// UpdateActivityTimestamps writes only the activity columns, leaving the
	// rest of the row untouched.
	UpdateActivityTimestamps(ctx context.Context, id uuid.UUID, lastActivity time.Time, lastContact *time.Time) error

	FindNotes(ctx context.Context, clientID uuid.UUID) ([]ClientNote, error)
	SaveNote(ctx context.Context, note *ClientNote) error
	DeleteNote(ctx context.Context, id, clientID uuid.UUID) error

	FindDocuments(ctx context.Context, clientID uuid.UUID) ([]ClientDocument, error)
	SaveDocument(ctx context.Context, doc *ClientDocument) error
	DeleteDocument(ctx context.Context, id, clientID uuid.UUID) error

	FindInteractions(ctx context.Context, clientID uuid.UUID) ([]ClientInteraction, error)
	SaveInteraction(ctx context.Context, interaction *ClientInteraction) error
	DeleteInteraction(ctx context.Context, id, clientID uuid.UUID) error

	FindTags(ctx context.Context, clientID uuid.UUID) ([]ClientTag, error)
	FindTagByLabel(ctx context.Context, clientID uuid.UUID, label string) (*ClientTag, error)
	SaveTag(ctx context.Context, tag *ClientTag) error
	DeleteTag(ctx context.Context, id, clientID uuid.UUID) error
}
