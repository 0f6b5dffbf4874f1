package invoicing

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// RecurringInvoiceService manages recurring invoice templates. The
// projection of next_generation is the only derived field here: it is
// computed once at creation (and on explicit re-projection after a clear),
// never re-derived reactively.
type RecurringInvoiceService struct {
	recurringRepo  invoicing.RecurringInvoiceRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
}

// NewRecurringInvoiceService creates a new RecurringInvoiceService
func NewRecurringInvoiceService(
	recurringRepo invoicing.RecurringInvoiceRepository,
	txManager shared.TransactionManager,
) *RecurringInvoiceService {
	return &RecurringInvoiceService{
		recurringRepo: recurringRepo,
		txManager:     txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RecurringInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *RecurringInvoiceService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Create creates a recurring invoice template and projects its first
// generation date from start_date, interval and frequency.
func (s *RecurringInvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRecurringInvoiceRequest) (*RecurringInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RecurringInvoiceService", "Create",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrFrequency, string(req.Frequency)),
	)
	defer span.End()

	var template *invoicing.RecurringInvoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		template, err = invoicing.NewRecurringInvoice(
			tenantID, req.TemplateName, req.CustomerID, req.CustomerName,
			req.Frequency, req.Interval, req.StartDate, req.TaxRate, req.DiscountAmount,
		)
		if err != nil {
			return err
		}
		if req.EndDate != nil {
			if err := template.SetEndDate(req.EndDate); err != nil {
				return err
			}
		}
		if err := s.recurringRepo.Save(txCtx, template); err != nil {
			return err
		}

		items := make([]invoicing.RecurringInvoiceItem, 0, len(req.Items))
		for _, in := range req.Items {
			item, err := invoicing.NewRecurringInvoiceItem(template.ID, in.Description, in.Quantity, in.UnitPrice)
			if err != nil {
				return err
			}
			if err := s.recurringRepo.SaveTemplateItem(txCtx, item); err != nil {
				return err
			}
			items = append(items, *item)
		}
		template.Items = items
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &template.TenantAggregateRoot)
	if s.metrics != nil {
		s.metrics.RecordRecurringProjection(ctx, tenantID, template.Frequency.String())
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// Get returns a template with its line items
func (s *RecurringInvoiceService) Get(ctx context.Context, tenantID, templateID uuid.UUID) (*RecurringInvoiceResponse, error) {
	template, err := s.recurringRepo.FindByIDForTenant(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// List returns a paginated list of templates
func (s *RecurringInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.RecurringInvoiceFilter) (*shared.Paginated[RecurringInvoiceResponse], error) {
	templates, err := s.recurringRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.recurringRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]RecurringInvoiceResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, ToRecurringInvoiceResponse(&templates[i]))
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

// ListDue returns active templates whose projected generation date is at
// or before the given time. Read by the external generation batch.
func (s *RecurringInvoiceService) ListDue(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]RecurringInvoiceResponse, error) {
	templates, err := s.recurringRepo.FindDue(ctx, tenantID, at)
	if err != nil {
		return nil, err
	}
	responses := make([]RecurringInvoiceResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, ToRecurringInvoiceResponse(&templates[i]))
	}
	return responses, nil
}

// Activate re-enables a template. The next generation date is re-projected
// if the template lost it while inactive.
func (s *RecurringInvoiceService) Activate(ctx context.Context, tenantID, templateID uuid.UUID) (*RecurringInvoiceResponse, error) {
	template, err := s.recurringRepo.FindByIDForTenant(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}

	template.Activate()
	template.ProjectNextGeneration()
	if err := s.recurringRepo.SaveWithLock(ctx, template); err != nil {
		return nil, err
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// Deactivate disables a template without discarding it
func (s *RecurringInvoiceService) Deactivate(ctx context.Context, tenantID, templateID uuid.UUID) (*RecurringInvoiceResponse, error) {
	template, err := s.recurringRepo.FindByIDForTenant(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}

	template.Deactivate()
	if err := s.recurringRepo.SaveWithLock(ctx, template); err != nil {
		return nil, err
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// AddItem adds a template line item. Template items carry no derived
// parent state, so no re-fold happens here.
func (s *RecurringInvoiceService) AddItem(ctx context.Context, tenantID, templateID uuid.UUID, req AddRecurringItemRequest) (*RecurringInvoiceResponse, error) {
	var template *invoicing.RecurringInvoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		template, err = s.recurringRepo.FindByIDForTenant(txCtx, tenantID, templateID)
		if err != nil {
			return err
		}

		item, err := invoicing.NewRecurringInvoiceItem(template.ID, req.Description, req.Quantity, req.UnitPrice)
		if err != nil {
			return err
		}
		if err := s.recurringRepo.SaveTemplateItem(txCtx, item); err != nil {
			return err
		}

		template.Items, err = s.recurringRepo.FindTemplateItems(txCtx, template.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// RemoveItem deletes a template line item
func (s *RecurringInvoiceService) RemoveItem(ctx context.Context, tenantID, templateID, itemID uuid.UUID) (*RecurringInvoiceResponse, error) {
	var template *invoicing.RecurringInvoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		template, err = s.recurringRepo.FindByIDForTenant(txCtx, tenantID, templateID)
		if err != nil {
			return err
		}
		if err := s.recurringRepo.DeleteTemplateItem(txCtx, template.ID, itemID); err != nil {
			return err
		}
		template.Items, err = s.recurringRepo.FindTemplateItems(txCtx, template.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// ClearNextGeneration unsets the projected date after the external batch
// consumed it. The template stays active with no projection until a caller
// re-projects it.
func (s *RecurringInvoiceService) ClearNextGeneration(ctx context.Context, tenantID, templateID uuid.UUID) (*RecurringInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RecurringInvoiceService", "ClearNextGeneration",
		telemetry.WithAttribute(telemetry.SpanAttrTemplateID, templateID.String()),
	)
	defer span.End()

	var template *invoicing.RecurringInvoice
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		template, err = s.recurringRepo.FindByIDForTenant(txCtx, tenantID, templateID)
		if err != nil {
			return err
		}
		if !template.IsActive {
			return shared.NewDomainError("INVALID_STATE", "Cannot clear projection of an inactive template")
		}
		template.ClearNextGeneration()
		return s.recurringRepo.UpdateNextGeneration(txCtx, template)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToRecurringInvoiceResponse(template)
	return &resp, nil
}

// Delete removes a template and its items
func (s *RecurringInvoiceService) Delete(ctx context.Context, tenantID, templateID uuid.UUID) error {
	if _, err := s.recurringRepo.FindByIDForTenant(ctx, tenantID, templateID); err != nil {
		return err
	}
	return s.recurringRepo.DeleteForTenant(ctx, tenantID, templateID)
}

func (s *RecurringInvoiceService) publishEvents(ctx context.Context, root *shared.TenantAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range root.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
