package crm

import (
	"fmt"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientType distinguishes individual and company clients
type ClientType string

const (
	ClientTypePerson  ClientType = "PERSON"
	ClientTypeCompany ClientType = "COMPANY"
)

// IsValid checks if the type is a valid ClientType
func (t ClientType) IsValid() bool {
	return t == ClientTypePerson || t == ClientTypeCompany
}

// String returns the string representation of ClientType
func (t ClientType) String() string {
	return string(t)
}

// ClientStatus represents where a client sits in the sales funnel
type ClientStatus string

const (
	ClientStatusLead     ClientStatus = "LEAD"
	ClientStatusProspect ClientStatus = "PROSPECT"
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusInactive ClientStatus = "INACTIVE"
)

// IsValid checks if the status is a valid ClientStatus
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusLead, ClientStatusProspect, ClientStatusActive, ClientStatusInactive:
		return true
	}
	return false
}

// String returns the string representation of ClientStatus
func (s ClientStatus) String() string {
	return string(s)
}

// Client is the CRM client aggregate root. Its last_activity_date and
// last_contact_date are touch fields: any child record mutation stamps
// them to the current time through a direct field update. They are
// last-write-wins, not derived from a formula.
type Client struct {
	shared.TenantAggregateRoot
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	Type             ClientType   `json:"type"`
	Status           ClientStatus `json:"status"`
	LastActivityDate *time.Time   `json:"last_activity_date"`
	LastContactDate  *time.Time   `json:"last_contact_date"`
	Notes            []ClientNote `json:"-"`
}

// NewClient creates a new client
func NewClient(tenantID uuid.UUID, name, email string, clientType ClientType, status ClientStatus) (*Client, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	if !clientType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", fmt.Sprintf("Client type %q is not valid", clientType))
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Client status %q is not valid", status))
	}

	c := &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Email:               email,
		Type:                clientType,
		Status:              status,
	}

	c.AddDomainEvent(NewClientCreatedEvent(c))
	return c, nil
}

// TouchActivity stamps last_activity_date to now. Called on any child
// record mutation. Last writer wins; no monotonicity guard.
func (c *Client) TouchActivity(at time.Time) {
	c.LastActivityDate = &at
	c.UpdatedAt = at
}

// TouchContact stamps both last_activity_date and last_contact_date.
// Called for interactions, which represent actual contact with the client.
func (c *Client) TouchContact(at time.Time) {
	c.LastActivityDate = &at
	c.LastContactDate = &at
	c.UpdatedAt = at
}

// SetStatus moves the client to a new funnel status
func (c *Client) SetStatus(status ClientStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Client status %q is not valid", status))
	}
	old := c.Status
	c.Status = status
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	if old != status {
		c.AddDomainEvent(NewClientStatusChangedEvent(c, old))
	}
	return nil
}

// DefaultTags returns the classification tags every new client receives:
// one for its type and one for its funnel status.
func (c *Client) DefaultTags() []string {
	return []string{
		"type:" + string(c.Type),
		"status:" + string(c.Status),
	}
}
