package invoicing

import (
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodBank     PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCheck    PaymentMethod = "CHECK"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodCard,
		PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is money received from a customer. A payment may be linked to an
// invoice, in which case it contributes additively to that invoice's
// paid_amount; unlinked payments are held on account.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     *uuid.UUID      `json:"invoice_id"` // nullable: payments can be on account
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// NewPayment creates a new payment record
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	customerID uuid.UUID,
	invoiceID *uuid.UUID,
	amount decimal.Decimal,
	method PaymentMethod,
	paymentDate time.Time,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		InvoiceID:           invoiceID,
		CustomerID:          customerID,
		Amount:              amount,
		Method:              method,
		PaymentDate:         paymentDate,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// WithReference sets an external reference (e.g. bank transaction ID)
func (p *Payment) WithReference(reference string) *Payment {
	p.Reference = reference
	return p
}

// WithNotes sets free-form notes
func (p *Payment) WithNotes(notes string) *Payment {
	p.Notes = notes
	return p
}

// IsLinked returns true if the payment is applied to an invoice
func (p *Payment) IsLinked() bool {
	return p.InvoiceID != nil
}
