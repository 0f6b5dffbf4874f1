package invoicing

import (
	"testing"
	"time"

	"github.com/finstack/backend/internal/infrastructure/persistence"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the invoicing services against an in-memory SQLite
// database with real repositories and a real transaction manager.
type testEnv struct {
	db        *gorm.DB
	invoices  *InvoiceService
	recurring *RecurringInvoiceService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
		&models.RecurringInvoiceModel{},
		&models.RecurringInvoiceItemModel{},
	)
	require.NoError(t, err)

	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	recurringRepo := persistence.NewGormRecurringInvoiceRepository(db)
	txManager := persistence.NewGormTransactionManager(db)

	return &testEnv{
		db:        db,
		invoices:  NewInvoiceService(invoiceRepo, paymentRepo, txManager),
		recurring: NewRecurringInvoiceService(recurringRepo, txManager),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
