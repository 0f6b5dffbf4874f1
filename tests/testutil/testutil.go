// Package testutil provides common test utilities for the FinStack
// backend: database setup, HTTP helpers and event capture used by the
// integration suite.
package testutil

import (
	"os"
	"testing"

	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestDB opens an in-memory SQLite database with every table
// migrated. Each call returns an isolated database; no cleanup is
// needed.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	// Every connection to :memory: is its own database; pin the pool to
	// one connection so concurrent goroutines share state.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

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
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// NewTestLogger returns a logger suitable for tests. Set TEST_LOG_DEBUG
// in the environment to see development output instead.
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()

	if os.Getenv("TEST_LOG_DEBUG") != "" {
		log, err := zap.NewDevelopment()
		require.NoError(t, err)
		return log
	}
	return zap.NewNop()
}
