package invoicing

import (
	"fmt"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Being edited, not yet sent
	InvoiceStatusSent      InvoiceStatus = "SENT"      // Sent to the customer
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"    // Opened by the customer
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully paid
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Past due date, not fully paid
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Cancelled, no longer collectible
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled
}

// CanAutoTransitionToPaid returns true if full payment may move the invoice
// to PAID automatically. Only sent/viewed invoices transition; drafts stay
// drafts even when prepaid.
func (s InvoiceStatus) CanAutoTransitionToPaid() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed
}

// IsEditable returns true if line items may still be changed
func (s InvoiceStatus) IsEditable() bool {
	return s != InvoiceStatusCancelled
}

// InvoiceItem is a line item within the Invoice aggregate.
// Its total_price is always derived as quantity * unit_price.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// NewInvoiceItem creates a new invoice line item with its total derived
func NewInvoiceItem(invoiceID uuid.UUID, description string, quantity, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot exceed 500 characters")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	item := &InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   invoiceID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	item.deriveTotal()
	return item, nil
}

// Update changes the item's description, quantity and unit price,
// re-deriving the line total. Caller-supplied totals are never trusted.
func (i *InvoiceItem) Update(description string, quantity, unitPrice decimal.Decimal) error {
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	i.Description = description
	i.Quantity = quantity
	i.UnitPrice = unitPrice
	i.deriveTotal()
	i.UpdatedAt = time.Now()
	return nil
}

func (i *InvoiceItem) deriveTotal() {
	i.TotalPrice = i.Quantity.Mul(i.UnitPrice)
}

// Invoice is the invoice aggregate root. Its monetary fields
// (subtotal, tax_amount, total_amount, paid_amount) are derived: they are
// recomputed from the full current set of items and payments and persisted
// by the recalculation engine, never written directly by callers.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxRate        decimal.Decimal `json:"tax_rate"` // percentage, e.g. 7.5
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Status         InvoiceStatus   `json:"status"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date"`
	SentAt         *time.Time      `json:"sent_at"`
	ViewedAt       *time.Time      `json:"viewed_at"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	CancelReason   string          `json:"cancel_reason"`
	Notes          string          `json:"notes"`
	Items          []InvoiceItem   `json:"items"`
}

// NewInvoice creates a new draft invoice with zeroed derived fields
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	customerID uuid.UUID,
	customerName string,
	taxRate decimal.Decimal,
	discountAmount decimal.Decimal,
	dueDate *time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount amount cannot be negative")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Subtotal:            decimal.Zero,
		TaxRate:             taxRate,
		TaxAmount:           decimal.Zero,
		DiscountAmount:      discountAmount,
		TotalAmount:         decimal.Zero,
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusDraft,
		IssueDate:           time.Now(),
		DueDate:             dueDate,
		Items:               []InvoiceItem{},
	}
	inv.Recalculate(nil)

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Recalculate folds the full current set of line items into the invoice's
// derived monetary fields, applying the parent formulas in fixed order:
// subtotal, then tax, then total. The fold is a pure sum, so item order
// does not matter.
func (inv *Invoice) Recalculate(items []InvoiceItem) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	inv.TotalAmount = subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)
	inv.Items = items
	inv.UpdatedAt = time.Now()
}

// RecalculatePayments folds the full current set of payments into
// paid_amount and applies the automatic status transitions:
// fully paid sent/viewed invoices become PAID with a paid date; a PAID
// invoice whose payments no longer cover the total reverts to SENT and
// loses its paid date. No other transitions happen automatically.
func (inv *Invoice) RecalculatePayments(payments []Payment) {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	inv.PaidAmount = paid

	switch {
	case paid.GreaterThanOrEqual(inv.TotalAmount) && inv.Status.CanAutoTransitionToPaid():
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		inv.PaidDate = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	case paid.LessThan(inv.TotalAmount) && inv.Status == InvoiceStatusPaid:
		inv.Status = InvoiceStatusSent
		inv.PaidDate = nil
		inv.AddDomainEvent(NewInvoicePaymentRevertedEvent(inv))
	}
	inv.UpdatedAt = time.Now()
}

// Send marks a draft invoice as sent
func (inv *Invoice) Send() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceSentEvent(inv))
	return nil
}

// MarkViewed records that the customer opened the invoice
func (inv *Invoice) MarkViewed() error {
	if inv.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice in %s status as viewed", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusViewed
	inv.ViewedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// Cancel cancels the invoice. Paid invoices cannot be cancelled.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a paid invoice")
	}
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))
	return nil
}

// SetNotes sets the free-form notes
func (inv *Invoice) SetNotes(notes string) {
	inv.Notes = notes
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// OutstandingAmount returns total_amount - paid_amount
func (inv *Invoice) OutstandingAmount() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is past its due date and not settled
func (inv *Invoice) IsOverdue() bool {
	if inv.Status == InvoiceStatusPaid || inv.Status.IsTerminal() {
		return false
	}
	if inv.DueDate == nil {
		return false
	}
	return time.Now().After(*inv.DueDate)
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.Items)
}
