package persistence

import (
	"testing"

	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with all tables migrated.
// lockForUpdate skips the FOR UPDATE clause on this dialect.
func setupTestDB(t *testing.T) *gorm.DB {
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
		&models.BudgetModel{},
		&models.BudgetItemModel{},
		&models.ExpenseModel{},
		&models.ClientModel{},
		&models.ClientNoteModel{},
		&models.ClientDocumentModel{},
		&models.ClientInteractionModel{},
		&models.ClientTagModel{},
	)
	require.NoError(t, err)

	return db
}
