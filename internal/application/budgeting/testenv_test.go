package budgeting

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

// testEnv wires the budgeting services against an in-memory SQLite
// database with real repositories and a real transaction manager, so the
// re-roll paths run end to end.
type testEnv struct {
	db       *gorm.DB
	budgets  *BudgetService
	expenses *ExpenseService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.BudgetModel{},
		&models.BudgetItemModel{},
		&models.ExpenseModel{},
	)
	require.NoError(t, err)

	budgetRepo := persistence.NewGormBudgetRepository(db)
	expenseRepo := persistence.NewGormExpenseRepository(db)
	txManager := persistence.NewGormTransactionManager(db)

	return &testEnv{
		db:       db,
		budgets:  NewBudgetService(budgetRepo, expenseRepo, txManager),
		expenses: NewExpenseService(expenseRepo, budgetRepo, txManager),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
