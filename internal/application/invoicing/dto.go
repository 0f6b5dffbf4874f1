package invoicing

import (
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	CustomerID     uuid.UUID                `json:"customer_id" binding:"required"`
	CustomerName   string                   `json:"customer_name" binding:"required,min=1,max=200"`
	TaxRate        decimal.Decimal          `json:"tax_rate"`
	DiscountAmount decimal.Decimal          `json:"discount_amount"`
	DueDate        *time.Time               `json:"due_date"`
	Notes          string                   `json:"notes"`
	Items          []CreateInvoiceItemInput `json:"items"`
}

// CreateInvoiceItemInput represents a line item in the create request
type CreateInvoiceItemInput struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// AddInvoiceItemRequest represents a request to add a line item
type AddInvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateInvoiceItemRequest represents a request to update a line item
type UpdateInvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RecordPaymentRequest represents a request to record a payment against
// an invoice
type RecordPaymentRequest struct {
	Amount      decimal.Decimal         `json:"amount" binding:"required"`
	Method      invoicing.PaymentMethod `json:"method" binding:"required"`
	PaymentDate time.Time               `json:"payment_date"`
	Reference   string                  `json:"reference"`
	Notes       string                  `json:"notes"`
}

// InvoiceItemResponse represents a line item in responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// InvoiceResponse represents an invoice in responses
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	InvoiceNumber  string                `json:"invoice_number"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	CustomerName   string                `json:"customer_name"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	TaxRate        decimal.Decimal       `json:"tax_rate"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	PaidAmount     decimal.Decimal       `json:"paid_amount"`
	Outstanding    decimal.Decimal       `json:"outstanding"`
	Status         string                `json:"status"`
	IssueDate      time.Time             `json:"issue_date"`
	DueDate        *time.Time            `json:"due_date,omitempty"`
	PaidDate       *time.Time            `json:"paid_date,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToInvoiceItemResponse converts a domain line item to its response form
func ToInvoiceItemResponse(item *invoicing.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:          item.ID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
	}
}

// ToInvoiceResponse converts a domain invoice to its response form
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for i := range inv.Items {
		items = append(items, ToInvoiceItemResponse(&inv.Items[i]))
	}
	return InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		CustomerID:     inv.CustomerID,
		CustomerName:   inv.CustomerName,
		Subtotal:       inv.Subtotal,
		TaxRate:        inv.TaxRate,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		TotalAmount:    inv.TotalAmount,
		PaidAmount:     inv.PaidAmount,
		Outstanding:    inv.OutstandingAmount(),
		Status:         inv.Status.String(),
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		PaidDate:       inv.PaidDate,
		Notes:          inv.Notes,
		Items:          items,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// PaymentResponse represents a payment in responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		InvoiceID:     p.InvoiceID,
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		Method:        p.Method.String(),
		PaymentDate:   p.PaymentDate,
		Reference:     p.Reference,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// ==================== Recurring Invoice DTOs ====================

// CreateRecurringInvoiceRequest represents a request to create a recurring
// invoice template
type CreateRecurringInvoiceRequest struct {
	TemplateName   string                     `json:"template_name" binding:"required,min=1,max=200"`
	CustomerID     uuid.UUID                  `json:"customer_id" binding:"required"`
	CustomerName   string                     `json:"customer_name" binding:"required,min=1,max=200"`
	Frequency      invoicing.Frequency        `json:"frequency" binding:"required"`
	Interval       int                        `json:"interval" binding:"required,min=1"`
	StartDate      time.Time                  `json:"start_date" binding:"required"`
	EndDate        *time.Time                 `json:"end_date"`
	TaxRate        decimal.Decimal            `json:"tax_rate"`
	DiscountAmount decimal.Decimal            `json:"discount_amount"`
	Items          []CreateRecurringItemInput `json:"items"`
}

// CreateRecurringItemInput represents a template line item
type CreateRecurringItemInput struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// AddRecurringItemRequest represents a request to add a template line item
type AddRecurringItemRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// RecurringItemResponse represents a template line item in responses
type RecurringItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// RecurringInvoiceResponse represents a recurring template in responses
type RecurringInvoiceResponse struct {
	ID             uuid.UUID               `json:"id"`
	TemplateName   string                  `json:"template_name"`
	CustomerID     uuid.UUID               `json:"customer_id"`
	CustomerName   string                  `json:"customer_name"`
	Frequency      string                  `json:"frequency"`
	Interval       int                     `json:"interval"`
	StartDate      time.Time               `json:"start_date"`
	EndDate        *time.Time              `json:"end_date,omitempty"`
	NextGeneration *time.Time              `json:"next_generation,omitempty"`
	TaxRate        decimal.Decimal         `json:"tax_rate"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
	IsActive       bool                    `json:"is_active"`
	Items          []RecurringItemResponse `json:"items"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ToRecurringInvoiceResponse converts a domain template to its response form
func ToRecurringInvoiceResponse(ri *invoicing.RecurringInvoice) RecurringInvoiceResponse {
	items := make([]RecurringItemResponse, 0, len(ri.Items))
	for i := range ri.Items {
		items = append(items, RecurringItemResponse{
			ID:          ri.Items[i].ID,
			Description: ri.Items[i].Description,
			Quantity:    ri.Items[i].Quantity,
			UnitPrice:   ri.Items[i].UnitPrice,
		})
	}
	return RecurringInvoiceResponse{
		ID:             ri.ID,
		TemplateName:   ri.TemplateName,
		CustomerID:     ri.CustomerID,
		CustomerName:   ri.CustomerName,
		Frequency:      ri.Frequency.String(),
		Interval:       ri.Interval,
		StartDate:      ri.StartDate,
		EndDate:        ri.EndDate,
		NextGeneration: ri.NextGeneration,
		TaxRate:        ri.TaxRate,
		DiscountAmount: ri.DiscountAmount,
		IsActive:       ri.IsActive,
		Items:          items,
		CreatedAt:      ri.CreatedAt,
		UpdatedAt:      ri.UpdatedAt,
	}
}
