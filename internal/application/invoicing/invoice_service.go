package invoicing

import (
	"context"
	"fmt"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// InvoiceService is the mutation surface for invoices: every write that can
// change a derived field runs here, as an explicit transaction that locks
// the parent row, rewrites the child set, re-folds the aggregate and
// persists only the derived columns. There are no persistence hooks; a
// write that bypasses this service changes no derived state.
type InvoiceService struct {
	invoiceRepo    invoicing.InvoiceRepository
	paymentRepo    invoicing.PaymentRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	txManager shared.TransactionManager,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *InvoiceService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Create creates a new draft invoice, deriving totals from the initial
// line items in the same transaction.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Create",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(txCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}

		inv, err = invoicing.NewInvoice(tenantID, invoiceNumber, req.CustomerID, req.CustomerName, req.TaxRate, req.DiscountAmount, req.DueDate)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			inv.SetNotes(req.Notes)
		}
		if err := s.invoiceRepo.Save(txCtx, inv); err != nil {
			return err
		}

		items := make([]invoicing.InvoiceItem, 0, len(req.Items))
		for _, in := range req.Items {
			item, err := invoicing.NewInvoiceItem(inv.ID, in.Description, in.Quantity, in.UnitPrice)
			if err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveItem(txCtx, item); err != nil {
				return err
			}
			items = append(items, *item)
		}

		inv.Recalculate(items)
		return s.invoiceRepo.UpdateDerivedTotals(txCtx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber)
	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	s.recordRecalc(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Get returns an invoice with its line items
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a paginated list of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[InvoiceResponse], error) {
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, ToInvoiceResponse(&invoices[i]))
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

// Send marks a draft invoice as sent
func (s *InvoiceService) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Send",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := inv.Send(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkViewed records that the customer opened the invoice
func (s *InvoiceService) MarkViewed(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkViewed(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Cancel cancels an invoice with a reason
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Cancel",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := inv.Cancel(req.Reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// AddItem adds a line item and re-derives the invoice totals in one
// transaction.
func (s *InvoiceService) AddItem(ctx context.Context, tenantID, invoiceID uuid.UUID, req AddInvoiceItemRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "AddItem",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	inv, err := s.recalculateAfter(ctx, tenantID, invoiceID, func(txCtx context.Context, inv *invoicing.Invoice) error {
		item, err := invoicing.NewInvoiceItem(inv.ID, req.Description, req.Quantity, req.UnitPrice)
		if err != nil {
			return err
		}
		return s.invoiceRepo.SaveItem(txCtx, item)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateItem updates a line item and re-derives the invoice totals in one
// transaction. The item's total_price is re-derived from quantity and
// unit price, never taken from the caller.
func (s *InvoiceService) UpdateItem(ctx context.Context, tenantID, invoiceID, itemID uuid.UUID, req UpdateInvoiceItemRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "UpdateItem",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	inv, err := s.recalculateAfter(ctx, tenantID, invoiceID, func(txCtx context.Context, inv *invoicing.Invoice) error {
		item, err := s.invoiceRepo.FindItem(txCtx, inv.ID, itemID)
		if err != nil {
			return err
		}
		if err := item.Update(req.Description, req.Quantity, req.UnitPrice); err != nil {
			return err
		}
		return s.invoiceRepo.SaveItem(txCtx, item)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RemoveItem deletes a line item and re-derives the invoice totals in one
// transaction.
func (s *InvoiceService) RemoveItem(ctx context.Context, tenantID, invoiceID, itemID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "RemoveItem",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	inv, err := s.recalculateAfter(ctx, tenantID, invoiceID, func(txCtx context.Context, inv *invoicing.Invoice) error {
		return s.invoiceRepo.DeleteItem(txCtx, inv.ID, itemID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RecordPayment records a payment against an invoice and re-folds
// paid_amount and the automatic status transitions in one transaction.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "RecordPayment",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount.String()),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on %s invoice", inv.Status))
		}

		paymentNumber, err := s.paymentRepo.GeneratePaymentNumber(txCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		payment, err := invoicing.NewPayment(tenantID, paymentNumber, inv.CustomerID, &inv.ID, req.Amount, req.Method, req.PaymentDate)
		if err != nil {
			return err
		}
		if req.Reference != "" {
			payment.WithReference(req.Reference)
		}
		if req.Notes != "" {
			payment.WithNotes(req.Notes)
		}
		if err := s.paymentRepo.Save(txCtx, payment); err != nil {
			return err
		}

		payments, err := s.paymentRepo.FindByInvoice(txCtx, inv.ID)
		if err != nil {
			return err
		}
		inv.RecalculatePayments(payments)
		return s.invoiceRepo.UpdatePaymentState(txCtx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	if s.metrics != nil {
		s.metrics.RecordPaymentRecorded(ctx, tenantID, req.Method.String(), req.Amount)
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RemovePayment deletes a payment and re-folds the linked invoice's
// paid_amount in one transaction. A fully paid invoice whose payments no
// longer cover the total reverts to SENT.
func (s *InvoiceService) RemovePayment(ctx context.Context, tenantID, invoiceID, paymentID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "RemovePayment",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentID, paymentID.String()),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		payment, err := s.paymentRepo.FindByIDForTenant(txCtx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if payment.InvoiceID == nil || *payment.InvoiceID != inv.ID {
			return shared.NewDomainError("PAYMENT_NOT_LINKED", "Payment is not linked to this invoice")
		}
		if err := s.paymentRepo.DeleteForTenant(txCtx, tenantID, paymentID); err != nil {
			return err
		}

		payments, err := s.paymentRepo.FindByInvoice(txCtx, inv.ID)
		if err != nil {
			return err
		}
		inv.RecalculatePayments(payments)
		return s.invoiceRepo.UpdatePaymentState(txCtx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Recalculate re-derives all of an invoice's derived fields from its
// current children. Idempotent: running it twice in a row leaves every
// field unchanged.
func (s *InvoiceService) Recalculate(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Recalculate",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		items, err := s.invoiceRepo.FindItems(txCtx, inv.ID)
		if err != nil {
			return err
		}
		inv.Recalculate(items)
		if err := s.invoiceRepo.UpdateDerivedTotals(txCtx, inv); err != nil {
			return err
		}

		payments, err := s.paymentRepo.FindByInvoice(txCtx, inv.ID)
		if err != nil {
			return err
		}
		inv.RecalculatePayments(payments)
		return s.invoiceRepo.UpdatePaymentState(txCtx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	s.recordRecalc(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Delete deletes a draft invoice
func (s *InvoiceService) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != invoicing.InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
	}
	return s.invoiceRepo.DeleteForTenant(ctx, tenantID, invoiceID)
}

// recalculateAfter runs the item mutation and the totals re-fold as one
// transaction: lock parent, mutate child set, reload the full set, fold,
// write only the derived columns.
func (s *InvoiceService) recalculateAfter(
	ctx context.Context,
	tenantID, invoiceID uuid.UUID,
	mutate func(txCtx context.Context, inv *invoicing.Invoice) error,
) (*invoicing.Invoice, error) {
	var inv *invoicing.Invoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.IsEditable() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify items of %s invoice", inv.Status))
		}

		if err := mutate(txCtx, inv); err != nil {
			return err
		}

		items, err := s.invoiceRepo.FindItems(txCtx, inv.ID)
		if err != nil {
			return err
		}
		inv.Recalculate(items)
		inv.AddDomainEvent(invoicing.NewInvoiceRecalculatedEvent(inv))
		return s.invoiceRepo.UpdateDerivedTotals(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, &inv.TenantAggregateRoot)
	s.recordRecalc(ctx, inv)
	return inv, nil
}

// publishEvents publishes the aggregate's pending domain events after
// commit. Publish failures are swallowed: event handling is best-effort.
func (s *InvoiceService) publishEvents(ctx context.Context, root *shared.TenantAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range root.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}

func (s *InvoiceService) recordRecalc(ctx context.Context, inv *invoicing.Invoice) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordInvoiceRecalculated(ctx, inv.TenantID, inv.Status.String())
}
