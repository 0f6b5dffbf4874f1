package models

import (
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The derived columns (subtotal, tax_amount, total_amount, paid_amount)
// are written only by the recalculation paths in the invoice repository.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	CustomerID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	CustomerName   string                  `gorm:"type:varchar(200);not null"`
	Subtotal       decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TaxRate        decimal.Decimal         `gorm:"type:decimal(7,4);not null"`
	TaxAmount      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status         invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssueDate      time.Time               `gorm:"not null"`
	DueDate        *time.Time              `gorm:"index"`
	PaidDate       *time.Time
	SentAt         *time.Time
	ViewedAt       *time.Time
	CancelledAt    *time.Time
	CancelReason   string             `gorm:"type:varchar(500)"`
	Notes          string             `gorm:"type:text"`
	Items          []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	items := make([]invoicing.InvoiceItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = *item.ToDomain()
	}
	return &invoicing.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		InvoiceNumber:       m.InvoiceNumber,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		Subtotal:            m.Subtotal,
		TaxRate:             m.TaxRate,
		TaxAmount:           m.TaxAmount,
		DiscountAmount:      m.DiscountAmount,
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		Status:              m.Status,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		PaidDate:            m.PaidDate,
		SentAt:              m.SentAt,
		ViewedAt:            m.ViewedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Notes:               m.Notes,
		Items:               items,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
// Items are persisted separately and are not copied here.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.DiscountAmount = inv.DiscountAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.Status = inv.Status
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
	m.SentAt = inv.SentAt
	m.ViewedAt = inv.ViewedAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Notes = inv.Notes
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for invoice line items
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() *invoicing.InvoiceItem {
	return &invoicing.InvoiceItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalPrice:  m.TotalPrice,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem
func (m *InvoiceItemModel) FromDomain(item *invoicing.InvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.TotalPrice = item.TotalPrice
}

// InvoiceItemModelFromDomain creates a new persistence model from a domain InvoiceItem
func InvoiceItemModelFromDomain(item *invoicing.InvoiceItem) *InvoiceItemModel {
	m := &InvoiceItemModel{}
	m.FromDomain(item)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_tenant_number,priority:2"`
	InvoiceID     *uuid.UUID              `gorm:"type:uuid;index"`
	CustomerID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Method        invoicing.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentDate   time.Time               `gorm:"not null;index"`
	Reference     string                  `gorm:"type:varchar(200)"`
	Notes         string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	return &invoicing.Payment{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		PaymentNumber:       m.PaymentNumber,
		InvoiceID:           m.InvoiceID,
		CustomerID:          m.CustomerID,
		Amount:              m.Amount,
		Method:              m.Method,
		PaymentDate:         m.PaymentDate,
		Reference:           m.Reference,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *invoicing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.InvoiceID = p.InvoiceID
	m.CustomerID = p.CustomerID
	m.Amount = p.Amount
	m.Method = p.Method
	m.PaymentDate = p.PaymentDate
	m.Reference = p.Reference
	m.Notes = p.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// RecurringInvoiceModel is the persistence model for recurring invoice templates
type RecurringInvoiceModel struct {
	TenantAggregateModel
	TemplateName   string              `gorm:"type:varchar(200);not null"`
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerName   string              `gorm:"type:varchar(200);not null"`
	Frequency      invoicing.Frequency `gorm:"type:varchar(20);not null"`
	Interval       int                 `gorm:"not null;default:1"`
	StartDate      time.Time           `gorm:"not null"`
	EndDate        *time.Time
	NextGeneration *time.Time                  `gorm:"index"`
	TaxRate        decimal.Decimal             `gorm:"type:decimal(7,4);not null"`
	DiscountAmount decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	IsActive       bool                        `gorm:"not null;default:true;index"`
	Items          []RecurringInvoiceItemModel `gorm:"foreignKey:RecurringInvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (RecurringInvoiceModel) TableName() string {
	return "recurring_invoices"
}

// ToDomain converts the persistence model to a domain RecurringInvoice
func (m *RecurringInvoiceModel) ToDomain() *invoicing.RecurringInvoice {
	items := make([]invoicing.RecurringInvoiceItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = *item.ToDomain()
	}
	return &invoicing.RecurringInvoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		TemplateName:        m.TemplateName,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		Frequency:           m.Frequency,
		Interval:            m.Interval,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		NextGeneration:      m.NextGeneration,
		TaxRate:             m.TaxRate,
		DiscountAmount:      m.DiscountAmount,
		IsActive:            m.IsActive,
		Items:               items,
	}
}

// FromDomain populates the persistence model from a domain RecurringInvoice
func (m *RecurringInvoiceModel) FromDomain(ri *invoicing.RecurringInvoice) {
	m.FromDomainTenantAggregateRoot(ri.TenantAggregateRoot)
	m.TemplateName = ri.TemplateName
	m.CustomerID = ri.CustomerID
	m.CustomerName = ri.CustomerName
	m.Frequency = ri.Frequency
	m.Interval = ri.Interval
	m.StartDate = ri.StartDate
	m.EndDate = ri.EndDate
	m.NextGeneration = ri.NextGeneration
	m.TaxRate = ri.TaxRate
	m.DiscountAmount = ri.DiscountAmount
	m.IsActive = ri.IsActive
}

// RecurringInvoiceModelFromDomain creates a new persistence model from a domain RecurringInvoice
func RecurringInvoiceModelFromDomain(ri *invoicing.RecurringInvoice) *RecurringInvoiceModel {
	m := &RecurringInvoiceModel{}
	m.FromDomain(ri)
	return m
}

// RecurringInvoiceItemModel is the persistence model for template line items
type RecurringInvoiceItemModel struct {
	BaseModel
	RecurringInvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description        string          `gorm:"type:varchar(500);not null"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (RecurringInvoiceItemModel) TableName() string {
	return "recurring_invoice_items"
}

// ToDomain converts the persistence model to a domain RecurringInvoiceItem
func (m *RecurringInvoiceItemModel) ToDomain() *invoicing.RecurringInvoiceItem {
	return &invoicing.RecurringInvoiceItem{
		BaseEntity:         m.BaseModel.ToDomain(),
		RecurringInvoiceID: m.RecurringInvoiceID,
		Description:        m.Description,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain RecurringInvoiceItem
func (m *RecurringInvoiceItemModel) FromDomain(item *invoicing.RecurringInvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.RecurringInvoiceID = item.RecurringInvoiceID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
}

// RecurringInvoiceItemModelFromDomain creates a new persistence model from a domain RecurringInvoiceItem
func RecurringInvoiceItemModelFromDomain(item *invoicing.RecurringInvoiceItem) *RecurringInvoiceItemModel {
	m := &RecurringInvoiceItemModel{}
	m.FromDomain(item)
	return m
}
