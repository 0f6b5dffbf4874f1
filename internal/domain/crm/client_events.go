package crm

import (
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientCreatedEvent is raised when a new client is onboarded
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID    `json:"client_id"`
	Name     string       `json:"name"`
	Type     ClientType   `json:"type"`
	Status   ClientStatus `json:"status"`
}

// EventType returns the event type name
func (e *ClientCreatedEvent) EventType() string {
	return "ClientCreated"
}

// NewClientCreatedEvent creates a new ClientCreatedEvent
func NewClientCreatedEvent(c *Client) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ClientCreated", "Client", c.ID, c.TenantID),
		ClientID:        c.ID,
		Name:            c.Name,
		Type:            c.Type,
		Status:          c.Status,
	}
}

// ClientActivityTouchedEvent is raised when a child record write stamps the
// client's activity timestamps
type ClientActivityTouchedEvent struct {
	shared.BaseDomainEvent
	ClientID         uuid.UUID  `json:"client_id"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	LastContactDate  *time.Time `json:"last_contact_date,omitempty"`
}

// EventType returns the event type name
func (e *ClientActivityTouchedEvent) EventType() string {
	return "ClientActivityTouched"
}

// NewClientActivityTouchedEvent creates a new ClientActivityTouchedEvent
func NewClientActivityTouchedEvent(c *Client) *ClientActivityTouchedEvent {
	return &ClientActivityTouchedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ClientActivityTouched", "Client", c.ID, c.TenantID),
		ClientID:         c.ID,
		LastActivityDate: c.LastActivityDate,
		LastContactDate:  c.LastContactDate,
	}
}

// ClientStatusChangedEvent is raised when a client moves between funnel
// statuses
type ClientStatusChangedEvent struct {
	shared.BaseDomainEvent
	ClientID  uuid.UUID    `json:"client_id"`
	OldStatus ClientStatus `json:"old_status"`
	NewStatus ClientStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *ClientStatusChangedEvent) EventType() string {
	return "ClientStatusChanged"
}

// NewClientStatusChangedEvent creates a new ClientStatusChangedEvent
func NewClientStatusChangedEvent(c *Client, oldStatus ClientStatus) *ClientStatusChangedEvent {
	return &ClientStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ClientStatusChanged", "Client", c.ID, c.TenantID),
		ClientID:        c.ID,
		OldStatus:       oldStatus,
		NewStatus:       c.Status,
	}
}

// InteractionRecordedEvent is raised when an interaction is logged for a
// client
type InteractionRecordedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID       `json:"client_id"`
	Kind     InteractionKind `json:"kind"`
	Subject  string          `json:"subject"`
}

// EventType returns the event type name
func (e *InteractionRecordedEvent) EventType() string {
	return "InteractionRecorded"
}

// NewInteractionRecordedEvent creates a new InteractionRecordedEvent
func NewInteractionRecordedEvent(tenantID uuid.UUID, interaction *ClientInteraction) *InteractionRecordedEvent {
	return &InteractionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InteractionRecorded", "ClientInteraction", interaction.ID, tenantID),
		ClientID:        interaction.ClientID,
		Kind:            interaction.Kind,
		Subject:         interaction.Subject,
	}
}
