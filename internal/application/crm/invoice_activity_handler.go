package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceActivityHandler touches a client's activity timestamp when a
// financial document references them: creating or sending an invoice and
// getting one paid all count as activity on the customer. The touch is
// best-effort; a client the invoicing side knows but the CRM side does not
// is skipped, not an error.
type InvoiceActivityHandler struct {
	clientService *ClientService
	logger        *zap.Logger
}

// NewInvoiceActivityHandler creates a new handler for invoicing events
func NewInvoiceActivityHandler(clientService *ClientService, logger *zap.Logger) *InvoiceActivityHandler {
	return &InvoiceActivityHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceActivityHandler) EventTypes() []string {
	return []string{"InvoiceCreated", "InvoiceSent", "InvoicePaid"}
}

// Handle touches the client named by the event's customer ID
func (h *InvoiceActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	customerID, err := customerIDOf(event)
	if err != nil {
		h.logger.Error("unexpected event payload",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}

	if err := h.clientService.TouchActivity(ctx, event.TenantID(), customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Debug("no client for invoicing customer, skipping touch",
				zap.String("customer_id", customerID.String()),
				zap.String("event_type", event.EventType()),
			)
			return nil
		}
		return fmt.Errorf("failed to touch client activity: %w", err)
	}

	h.logger.Debug("touched client activity from invoicing event",
		zap.String("customer_id", customerID.String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

func customerIDOf(event shared.DomainEvent) (uuid.UUID, error) {
	switch e := event.(type) {
	case *invoicing.InvoiceCreatedEvent:
		return e.CustomerID, nil
	case *invoicing.InvoiceSentEvent:
		return e.CustomerID, nil
	case *invoicing.InvoicePaidEvent:
		return e.CustomerID, nil
	default:
		return uuid.Nil, fmt.Errorf("unexpected event type %s", event.EventType())
	}
}
