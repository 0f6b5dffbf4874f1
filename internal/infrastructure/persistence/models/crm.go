package models

import (
	"time"

	"github.com/finstack/backend/internal/domain/crm"
	"github.com/google/uuid"
)

// ClientModel is the persistence model for the Client aggregate root.
// last_activity_date and last_contact_date are touch columns written by
// UpdateActivityTimestamps alongside child record writes.
type ClientModel struct {
	TenantAggregateModel
	Name             string           `gorm:"type:varchar(200);not null;index"`
	Email            string           `gorm:"type:varchar(200)"`
	Phone            string           `gorm:"type:varchar(50)"`
	Type             crm.ClientType   `gorm:"type:varchar(20);not null;index"`
	Status           crm.ClientStatus `gorm:"type:varchar(20);not null;index"`
	LastActivityDate *time.Time       `gorm:"index"`
	LastContactDate  *time.Time
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *crm.Client {
	return &crm.Client{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Type:                m.Type,
		Status:              m.Status,
		LastActivityDate:    m.LastActivityDate,
		LastContactDate:     m.LastContactDate,
	}
}

// FromDomain populates the persistence model from a domain Client
func (m *ClientModel) FromDomain(c *crm.Client) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Type = c.Type
	m.Status = c.Status
	m.LastActivityDate = c.LastActivityDate
	m.LastContactDate = c.LastContactDate
}

// ClientModelFromDomain creates a new persistence model from a domain Client
func ClientModelFromDomain(c *crm.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ClientNoteModel is the persistence model for client notes
type ClientNoteModel struct {
	BaseModel
	ClientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Content  string     `gorm:"type:text;not null"`
	AuthorID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ClientNoteModel) TableName() string {
	return "client_notes"
}

// ToDomain converts the persistence model to a domain ClientNote
func (m *ClientNoteModel) ToDomain() *crm.ClientNote {
	return &crm.ClientNote{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Content:    m.Content,
		AuthorID:   m.AuthorID,
	}
}

// FromDomain populates the persistence model from a domain ClientNote
func (m *ClientNoteModel) FromDomain(n *crm.ClientNote) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.ClientID = n.ClientID
	m.Content = n.Content
	m.AuthorID = n.AuthorID
}

// ClientDocumentModel is the persistence model for client document references
type ClientDocumentModel struct {
	BaseModel
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	URL      string    `gorm:"type:varchar(1000);not null"`
	MimeType string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ClientDocumentModel) TableName() string {
	return "client_documents"
}

// ToDomain converts the persistence model to a domain ClientDocument
func (m *ClientDocumentModel) ToDomain() *crm.ClientDocument {
	return &crm.ClientDocument{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Name:       m.Name,
		URL:        m.URL,
		MimeType:   m.MimeType,
	}
}

// FromDomain populates the persistence model from a domain ClientDocument
func (m *ClientDocumentModel) FromDomain(d *crm.ClientDocument) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.ClientID = d.ClientID
	m.Name = d.Name
	m.URL = d.URL
	m.MimeType = d.MimeType
}

// ClientInteractionModel is the persistence model for client interactions
type ClientInteractionModel struct {
	BaseModel
	ClientID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Kind     crm.InteractionKind `gorm:"type:varchar(20);not null"`
	Subject  string              `gorm:"type:varchar(200);not null"`
	Summary  string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientInteractionModel) TableName() string {
	return "client_interactions"
}

// ToDomain converts the persistence model to a domain ClientInteraction
func (m *ClientInteractionModel) ToDomain() *crm.ClientInteraction {
	return &crm.ClientInteraction{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Kind:       m.Kind,
		Subject:    m.Subject,
		Summary:    m.Summary,
	}
}

// FromDomain populates the persistence model from a domain ClientInteraction
func (m *ClientInteractionModel) FromDomain(i *crm.ClientInteraction) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ClientID = i.ClientID
	m.Kind = i.Kind
	m.Subject = i.Subject
	m.Summary = i.Summary
}

// ClientTagModel is the persistence model for client tags
type ClientTagModel struct {
	BaseModel
	ClientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_client_tag_label,priority:1"`
	Label    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_client_tag_label,priority:2"`
}

// TableName returns the table name for GORM
func (ClientTagModel) TableName() string {
	return "client_tags"
}

// ToDomain converts the persistence model to a domain ClientTag
func (m *ClientTagModel) ToDomain() *crm.ClientTag {
	return &crm.ClientTag{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Label:      m.Label,
	}
}

// FromDomain populates the persistence model from a domain ClientTag
func (m *ClientTagModel) FromDomain(tag *crm.ClientTag) {
	m.FromDomainBaseEntity(tag.BaseEntity)
	m.ClientID = tag.ClientID
	m.Label = tag.Label
}
