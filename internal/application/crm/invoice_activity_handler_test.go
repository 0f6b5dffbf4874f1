package crm

import (
	"context"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func invoiceCreatedFor(t *testing.T, tenantID, customerID uuid.UUID) *invoicing.InvoiceCreatedEvent {
	t.Helper()

	inv, err := invoicing.NewInvoice(tenantID, "INV-000001", customerID, "Jordan Reeves", decimal.Zero, decimal.Zero, nil)
	require.NoError(t, err)
	return invoicing.NewInvoiceCreatedEvent(inv)
}

func TestInvoiceActivityHandler_TouchesClient(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	before, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	handler := NewInvoiceActivityHandler(env.clients, zap.NewNop())
	err = handler.Handle(ctx, invoiceCreatedFor(t, tenantID, client.ID))
	require.NoError(t, err)

	after, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	assert.True(t, after.LastActivityDate.After(*before.LastActivityDate))
	// Financial documents are activity, not direct contact.
	assert.True(t, after.LastContactDate.Equal(*before.LastContactDate))
}

func TestInvoiceActivityHandler_UnknownCustomerSkipped(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()

	handler := NewInvoiceActivityHandler(env.clients, zap.NewNop())
	err := handler.Handle(context.Background(), invoiceCreatedFor(t, tenantID, uuid.New()))
	assert.NoError(t, err, "a customer without a CRM record is skipped, not an error")
}

func TestInvoiceActivityHandler_EventTypes(t *testing.T) {
	handler := NewInvoiceActivityHandler(nil, zap.NewNop())
	assert.ElementsMatch(t, []string{"InvoiceCreated", "InvoiceSent", "InvoicePaid"}, handler.EventTypes())
}
