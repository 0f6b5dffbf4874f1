// Package integration contains end-to-end tests that wire real
// repositories, services and the event bus against an in-memory
// database, plus HTTP-level tests through the full router and
// middleware chain.
package integration

import (
	"context"
	"testing"

	budgetingapp "github.com/finstack/backend/internal/application/budgeting"
	crmapp "github.com/finstack/backend/internal/application/crm"
	invoicingapp "github.com/finstack/backend/internal/application/invoicing"
	"github.com/finstack/backend/internal/infrastructure/event"
	"github.com/finstack/backend/internal/infrastructure/persistence"
	"github.com/finstack/backend/internal/interfaces/http/handler"
	"github.com/finstack/backend/internal/interfaces/http/middleware"
	"github.com/finstack/backend/internal/interfaces/http/router"
	"github.com/finstack/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// FlowEnv wires the full application stack for end-to-end tests:
// real repositories over SQLite, real services, and a synchronous
// event bus with the cross-context handlers subscribed.
type FlowEnv struct {
	DB  *gorm.DB
	Bus *event.InMemoryEventBus

	Invoices  *invoicingapp.InvoiceService
	Recurring *invoicingapp.RecurringInvoiceService
	Budgets   *budgetingapp.BudgetService
	Expenses  *budgetingapp.ExpenseService
	Clients   *crmapp.ClientService

	// Recorder captures the invoicing events crossing the bus
	Recorder *testutil.RecordingEventHandler

	TenantID uuid.UUID
}

// NewFlowEnv builds the stack the way cmd/server does, minus the
// transport and telemetry layers.
func NewFlowEnv(t *testing.T) *FlowEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)

	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	recurringRepo := persistence.NewGormRecurringInvoiceRepository(db)
	budgetRepo := persistence.NewGormBudgetRepository(db)
	expenseRepo := persistence.NewGormExpenseRepository(db)
	clientRepo := persistence.NewGormClientRepository(db)
	txManager := persistence.NewGormTransactionManager(db)

	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, paymentRepo, txManager)
	recurringService := invoicingapp.NewRecurringInvoiceService(recurringRepo, txManager)
	budgetService := budgetingapp.NewBudgetService(budgetRepo, expenseRepo, txManager)
	expenseService := budgetingapp.NewExpenseService(expenseRepo, budgetRepo, txManager)
	clientService := crmapp.NewClientService(clientRepo, txManager)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(crmapp.NewInvoiceActivityHandler(clientService, log))

	recorder := testutil.NewRecordingEventHandler("InvoiceCreated", "InvoiceSent", "InvoicePaid")
	bus.Subscribe(recorder)

	invoiceService.SetEventPublisher(bus)
	recurringService.SetEventPublisher(bus)
	budgetService.SetEventPublisher(bus)
	expenseService.SetEventPublisher(bus)
	clientService.SetEventPublisher(bus)

	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		_ = bus.Stop(context.Background())
	})

	return &FlowEnv{
		DB:        db,
		Bus:       bus,
		Invoices:  invoiceService,
		Recurring: recurringService,
		Budgets:   budgetService,
		Expenses:  expenseService,
		Clients:   clientService,
		Recorder:  recorder,
		TenantID:  uuid.New(),
	}
}

// NewAPIServer builds a gin engine with the tenant middleware and the
// full route table on top of the environment's services.
func (env *FlowEnv) NewAPIServer(t *testing.T) *gin.Engine {
	t.Helper()

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewSystemHandler()).
		Register(handler.NewInvoiceHandler(env.Invoices)).
		Register(handler.NewRecurringInvoiceHandler(env.Recurring)).
		Register(handler.NewBudgetHandler(env.Budgets)).
		Register(handler.NewExpenseHandler(env.Expenses)).
		Register(handler.NewClientHandler(env.Clients)).
		Setup()

	return engine
}
