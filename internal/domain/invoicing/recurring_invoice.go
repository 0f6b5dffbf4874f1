package invoicing

import (
	"fmt"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency represents how often a recurring invoice is generated
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// IsValid checks if the frequency is a valid Frequency
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// String returns the string representation of Frequency
func (f Frequency) String() string {
	return string(f)
}

// UnitDays returns the fixed day count for one frequency unit.
// Months, quarters and years are approximated with 30/90/365 days rather
// than calendar arithmetic; downstream consumers depend on these exact
// offsets, so changing them is a business decision, not a bug fix.
func (f Frequency) UnitDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	case FrequencyQuarterly:
		return 90
	case FrequencyYearly:
		return 365
	default:
		return 0
	}
}

// RecurringInvoiceItem is a line item template within a RecurringInvoice
type RecurringInvoiceItem struct {
	shared.BaseEntity
	RecurringInvoiceID uuid.UUID       `json:"recurring_invoice_id"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
}

// NewRecurringInvoiceItem creates a new recurring invoice line item template
func NewRecurringInvoiceItem(recurringID uuid.UUID, description string, quantity, unitPrice decimal.Decimal) (*RecurringInvoiceItem, error) {
	if recurringID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECURRING_INVOICE", "Recurring invoice ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	return &RecurringInvoiceItem{
		BaseEntity:         shared.NewBaseEntity(),
		RecurringInvoiceID: recurringID,
		Description:        description,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
	}, nil
}

// RecurringInvoice is a template from which invoices are generated
// periodically. The template itself never fires: an external batch
// collaborator reads next_generation to decide when to materialize an
// invoice. next_generation is projected once at creation and is not
// re-derived unless explicitly cleared.
type RecurringInvoice struct {
	shared.TenantAggregateRoot
	TemplateName   string                 `json:"template_name"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	CustomerName   string                 `json:"customer_name"`
	Frequency      Frequency              `json:"frequency"`
	Interval       int                    `json:"interval"` // every N frequency units
	StartDate      time.Time              `json:"start_date"`
	EndDate        *time.Time             `json:"end_date"`
	NextGeneration *time.Time             `json:"next_generation"`
	TaxRate        decimal.Decimal        `json:"tax_rate"`
	DiscountAmount decimal.Decimal        `json:"discount_amount"`
	IsActive       bool                   `json:"is_active"`
	Items          []RecurringInvoiceItem `json:"items"`
}

// NewRecurringInvoice creates a new recurring invoice template and projects
// its first generation date.
func NewRecurringInvoice(
	tenantID uuid.UUID,
	templateName string,
	customerID uuid.UUID,
	customerName string,
	frequency Frequency,
	interval int,
	startDate time.Time,
	taxRate decimal.Decimal,
	discountAmount decimal.Decimal,
) (*RecurringInvoice, error) {
	if templateName == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !frequency.IsValid() {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", fmt.Sprintf("Frequency %q is not valid", frequency))
	}
	if interval < 1 {
		return nil, shared.NewDomainError("INVALID_INTERVAL", "Interval must be a positive integer")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount amount cannot be negative")
	}

	ri := &RecurringInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TemplateName:        templateName,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Frequency:           frequency,
		Interval:            interval,
		StartDate:           startDate,
		TaxRate:             taxRate,
		DiscountAmount:      discountAmount,
		IsActive:            true,
		Items:               []RecurringInvoiceItem{},
	}
	ri.ProjectNextGeneration()

	ri.AddDomainEvent(NewRecurringInvoiceCreatedEvent(ri))
	return ri, nil
}

// ProjectNextGeneration computes next_generation as
// start_date + interval * frequency unit, using the fixed day counts from
// Frequency.UnitDays. The projection happens at most once: it is a no-op
// when the date is already set or the template is inactive.
func (ri *RecurringInvoice) ProjectNextGeneration() {
	if ri.NextGeneration != nil || !ri.IsActive {
		return
	}
	next := ri.StartDate.AddDate(0, 0, ri.Interval*ri.Frequency.UnitDays())
	ri.NextGeneration = &next
	ri.UpdatedAt = time.Now()
}

// ClearNextGeneration unsets the projected date so a subsequent
// ProjectNextGeneration re-derives it. Intended for external callers that
// consumed the current projection.
func (ri *RecurringInvoice) ClearNextGeneration() {
	ri.NextGeneration = nil
	ri.UpdatedAt = time.Now()
	ri.IncrementVersion()
}

// Activate re-enables the template
func (ri *RecurringInvoice) Activate() {
	if ri.IsActive {
		return
	}
	ri.IsActive = true
	ri.UpdatedAt = time.Now()
	ri.IncrementVersion()
}

// Deactivate disables the template without discarding it
func (ri *RecurringInvoice) Deactivate() {
	if !ri.IsActive {
		return
	}
	ri.IsActive = false
	ri.UpdatedAt = time.Now()
	ri.IncrementVersion()
}

// SetEndDate sets the optional end of the recurrence
func (ri *RecurringInvoice) SetEndDate(endDate *time.Time) error {
	if endDate != nil && endDate.Before(ri.StartDate) {
		return shared.NewDomainError("INVALID_END_DATE", "End date cannot be before start date")
	}
	ri.EndDate = endDate
	ri.UpdatedAt = time.Now()
	ri.IncrementVersion()
	return nil
}

// IsDue returns true if the template is active and its projected
// generation date is at or before the given time.
func (ri *RecurringInvoice) IsDue(at time.Time) bool {
	if !ri.IsActive || ri.NextGeneration == nil {
		return false
	}
	if ri.EndDate != nil && at.After(*ri.EndDate) {
		return false
	}
	return !ri.NextGeneration.After(at)
}
