package crm

import (
	"context"
	"errors"
	"time"

	"github.com/finstack/backend/internal/domain/crm"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// onboardingTTL is how long an onboarding key is remembered. Well past any
// realistic retry horizon.
const onboardingTTL = 24 * time.Hour

// ClientService is the mutation surface for clients and their child
// records. Every child write stamps the parent's activity timestamps with
// a targeted column update in the same transaction; interactions stamp the
// contact timestamp as well. The stamps are last-write-wins.
type ClientService struct {
	clientRepo     crm.ClientRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
}

// NewClientService creates a new ClientService
func NewClientService(
	clientRepo crm.ClientRepository,
	txManager shared.TransactionManager,
) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		txManager:  txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the store guarding one-time onboarding side
// effects. Without a store the side effects still run, unguarded.
func (s *ClientService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// Create onboards a new client: the client row, its default classification
// tags and a synthetic welcome interaction. The side effects run once; a
// retried creation for the same client is detected through the idempotency
// store and skipped.
func (s *ClientService) Create(ctx context.Context, tenantID uuid.UUID, req CreateClientRequest) (*ClientResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ClientService", "Create",
		telemetry.WithAttribute(telemetry.SpanAttrClientName, req.Name),
	)
	defer span.End()

	var client *crm.Client
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		client, err = crm.NewClient(tenantID, req.Name, req.Email, req.Type, req.Status)
		if err != nil {
			return err
		}
		if req.Phone != "" {
			client.Phone = req.Phone
		}
		return s.clientRepo.Save(txCtx, client)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.onboard(ctx, client); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &client.TenantAggregateRoot)
	resp := ToClientResponse(client)
	return &resp, nil
}

// onboard applies the one-time creation side effects: default tags and the
// welcome interaction, plus the initial contact stamp. Guarded by the
// idempotency store so a retried request does not duplicate them.
func (s *ClientService) onboard(ctx context.Context, client *crm.Client) error {
	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, "crm:onboarding:"+client.ID.String(), onboardingTTL)
		if err == nil && !fresh {
			return nil
		}
	}

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, label := range client.DefaultTags() {
			tag, err := crm.NewClientTag(client.ID, label)
			if err != nil {
				return err
			}
			if err := s.clientRepo.SaveTag(txCtx, tag); err != nil {
				return err
			}
		}

		welcome := crm.WelcomeInteraction(client.ID, client.Name)
		if err := s.clientRepo.SaveInteraction(txCtx, welcome); err != nil {
			return err
		}

		client.TouchContact(time.Now())
		return s.clientRepo.UpdateActivityTimestamps(txCtx, client.ID, *client.LastActivityDate, client.LastContactDate)
	})
}

// Get returns a client with all child records loaded
func (s *ClientService) Get(ctx context.Context, tenantID, clientID uuid.UUID) (*ClientDetailResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}

	notes, err := s.clientRepo.FindNotes(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	documents, err := s.clientRepo.FindDocuments(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	interactions, err := s.clientRepo.FindInteractions(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	tags, err := s.clientRepo.FindTags(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	detail := ClientDetailResponse{
		ClientResponse: ToClientResponse(client),
		Notes:          make([]ClientNoteResponse, 0, len(notes)),
		Documents:      make([]ClientDocumentResponse, 0, len(documents)),
		Interactions:   make([]ClientInteractionResponse, 0, len(interactions)),
		Tags:           make([]ClientTagResponse, 0, len(tags)),
	}
	for i := range notes {
		detail.Notes = append(detail.Notes, ToClientNoteResponse(&notes[i]))
	}
	for i := range documents {
		detail.Documents = append(detail.Documents, ToClientDocumentResponse(&documents[i]))
	}
	for i := range interactions {
		detail.Interactions = append(detail.Interactions, ToClientInteractionResponse(&interactions[i]))
	}
	for i := range tags {
		detail.Tags = append(detail.Tags, ToClientTagResponse(&tags[i]))
	}
	return &detail, nil
}

// List returns a paginated list of clients
func (s *ClientService) List(ctx context.Context, tenantID uuid.UUID, filter crm.ClientFilter) (*shared.Paginated[ClientResponse], error) {
	clients, err := s.clientRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.clientRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		responses = append(responses, ToClientResponse(&clients[i]))
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	result := shared.NewPaginated(responses, total, page, pageSize)
	return &result, nil
}

// SetStatus moves a client to a new funnel status
func (s *ClientService) SetStatus(ctx context.Context, tenantID, clientID uuid.UUID, req UpdateClientStatusRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	if err := client.SetStatus(req.Status); err != nil {
		return nil, err
	}
	if err := s.clientRepo.SaveWithLock(ctx, client); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &client.TenantAggregateRoot)
	resp := ToClientResponse(client)
	return &resp, nil
}

// AddNote attaches a note and touches the client's activity timestamp
func (s *ClientService) AddNote(ctx context.Context, tenantID, clientID uuid.UUID, req AddNoteRequest) (*ClientNoteResponse, error) {
	var note *crm.ClientNote
	err := s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		var err error
		note, err = crm.NewClientNote(client.ID, req.Content)
		if err != nil {
			return err
		}
		note.AuthorID = req.AuthorID
		return s.clientRepo.SaveNote(txCtx, note)
	})
	if err != nil {
		return nil, err
	}
	resp := ToClientNoteResponse(note)
	return &resp, nil
}

// RemoveNote deletes a note. Deletion is activity too, so the timestamp is
// touched as well.
func (s *ClientService) RemoveNote(ctx context.Context, tenantID, clientID, noteID uuid.UUID) error {
	return s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		return s.clientRepo.DeleteNote(txCtx, noteID, client.ID)
	})
}

// AddDocument attaches a document reference and touches the activity
// timestamp
func (s *ClientService) AddDocument(ctx context.Context, tenantID, clientID uuid.UUID, req AddDocumentRequest) (*ClientDocumentResponse, error) {
	var doc *crm.ClientDocument
	err := s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		var err error
		doc, err = crm.NewClientDocument(client.ID, req.Name, req.URL, req.MimeType)
		if err != nil {
			return err
		}
		return s.clientRepo.SaveDocument(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToClientDocumentResponse(doc)
	return &resp, nil
}

// RemoveDocument deletes a document reference and touches the activity
// timestamp
func (s *ClientService) RemoveDocument(ctx context.Context, tenantID, clientID, documentID uuid.UUID) error {
	return s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		return s.clientRepo.DeleteDocument(txCtx, documentID, client.ID)
	})
}

// RecordInteraction records contact with the client. Interactions stamp
// last_contact_date in addition to last_activity_date.
func (s *ClientService) RecordInteraction(ctx context.Context, tenantID, clientID uuid.UUID, req RecordInteractionRequest) (*ClientInteractionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ClientService", "RecordInteraction",
		telemetry.WithAttribute(telemetry.SpanAttrClientID, clientID.String()),
	)
	defer span.End()

	var interaction *crm.ClientInteraction
	err := s.touchingChild(ctx, tenantID, clientID, true, func(txCtx context.Context, client *crm.Client) error {
		var err error
		interaction, err = crm.NewClientInteraction(client.ID, req.Kind, req.Subject, req.Summary)
		if err != nil {
			return err
		}
		return s.clientRepo.SaveInteraction(txCtx, interaction)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToClientInteractionResponse(interaction)
	return &resp, nil
}

// RemoveInteraction deletes an interaction. The deletion touches only the
// activity timestamp; last_contact_date keeps its last stamped value.
func (s *ClientService) RemoveInteraction(ctx context.Context, tenantID, clientID, interactionID uuid.UUID) error {
	return s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		return s.clientRepo.DeleteInteraction(txCtx, interactionID, client.ID)
	})
}

// AssignTag assigns a classification tag. Assigning a label the client
// already carries is a no-op that still counts as activity.
func (s *ClientService) AssignTag(ctx context.Context, tenantID, clientID uuid.UUID, req AssignTagRequest) (*ClientTagResponse, error) {
	var tag *crm.ClientTag
	err := s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		existing, err := s.clientRepo.FindTagByLabel(txCtx, client.ID, req.Label)
		if err == nil {
			tag = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		tag, err = crm.NewClientTag(client.ID, req.Label)
		if err != nil {
			return err
		}
		return s.clientRepo.SaveTag(txCtx, tag)
	})
	if err != nil {
		return nil, err
	}
	resp := ToClientTagResponse(tag)
	return &resp, nil
}

// RemoveTag deletes a tag assignment and touches the activity timestamp
func (s *ClientService) RemoveTag(ctx context.Context, tenantID, clientID, tagID uuid.UUID) error {
	return s.touchingChild(ctx, tenantID, clientID, false, func(txCtx context.Context, client *crm.Client) error {
		return s.clientRepo.DeleteTag(txCtx, tagID, client.ID)
	})
}

// TouchActivity stamps the client's activity timestamp without any child
// mutation. Used by event handlers reacting to financial documents.
func (s *ClientService) TouchActivity(ctx context.Context, tenantID, clientID uuid.UUID) error {
	return s.touchingChild(ctx, tenantID, clientID, false, func(context.Context, *crm.Client) error {
		return nil
	})
}

// Delete removes a client and all child records
func (s *ClientService) Delete(ctx context.Context, tenantID, clientID uuid.UUID) error {
	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID); err != nil {
		return err
	}
	return s.clientRepo.DeleteForTenant(ctx, tenantID, clientID)
}

// touchingChild runs a child mutation and the activity stamp as one
// transaction, with the client row locked first. The stamp is a targeted
// column update; the client's own save path is not involved.
func (s *ClientService) touchingChild(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	contact bool,
	mutate func(txCtx context.Context, client *crm.Client) error,
) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		client, err := s.clientRepo.FindByIDForUpdate(txCtx, tenantID, clientID)
		if err != nil {
			return err
		}
		if err := mutate(txCtx, client); err != nil {
			return err
		}

		now := time.Now()
		if contact {
			client.TouchContact(now)
		} else {
			client.TouchActivity(now)
		}
		return s.clientRepo.UpdateActivityTimestamps(txCtx, client.ID, *client.LastActivityDate, client.LastContactDate)
	})
}

func (s *ClientService) publishEvents(ctx context.Context, root *shared.TenantAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range root.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
