package invoicing

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *InvoiceStatus
	FromDate   *time.Time
	ToDate     *time.Time
	Overdue    *bool
}

// InvoiceRepository defines the persistence interface for invoices.
// The ForUpdate variant takes a row-level lock on the invoice so concurrent
// recalculations against the same parent serialize instead of folding over
// a stale sibling set.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// Line item access for the recalculation engine.
	FindItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error)
	FindItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*InvoiceItem, error)
	SaveItem(ctx context.Context, item *InvoiceItem) error
	DeleteItem(ctx context.Context, invoiceID, itemID uuid.UUID) error

	// UpdateDerivedTotals persists only the derived columns (subtotal,
	// tax_amount, total_amount) through a targeted update that cannot
	// re-trigger recalculation.
	UpdateDerivedTotals(ctx context.Context, invoice *Invoice) error

	// UpdatePaymentState persists paid_amount, status and paid_date.
	UpdatePaymentState(ctx context.Context, invoice *Invoice) error

	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID  *uuid.UUID
	CustomerID *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
}

// PaymentRepository defines the persistence interface for payments
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)

	Save(ctx context.Context, payment *Payment) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// RecurringInvoiceFilter defines filtering options for recurring templates
type RecurringInvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	IsActive   *bool
}

// RecurringInvoiceRepository defines the persistence interface for
// recurring invoice templates
type RecurringInvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RecurringInvoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter RecurringInvoiceFilter) ([]RecurringInvoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter RecurringInvoiceFilter) (int64, error)

	// FindDue lists active templates whose next_generation is at or before
	// the given time. Read by the external generation batch.
	FindDue(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]RecurringInvoice, error)

	Save(ctx context.Context, template *RecurringInvoice) error
	SaveWithLock(ctx context.Context, template *RecurringInvoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	FindTemplateItems(ctx context.Context, recurringID uuid.UUID) ([]RecurringInvoiceItem, error)
	SaveTemplateItem(ctx context.Context, item *RecurringInvoiceItem) error
	DeleteTemplateItem(ctx context.Context, recurringID, itemID uuid.UUID) error

	// UpdateNextGeneration persists only the next_generation column.
	UpdateNextGeneration(ctx context.Context, template *RecurringInvoice) error
}
