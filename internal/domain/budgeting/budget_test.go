package budgeting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	budgetStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	budgetEnd   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func newTestBudget(t *testing.T) *Budget {
	t.Helper()
	b, err := NewBudget(uuid.New(), "Q1 operations", dec("10000"), budgetStart, budgetEnd)
	require.NoError(t, err)
	return b
}

func approvedExpense(t *testing.T, tenantID uuid.UUID, category ExpenseCategory, total string, date time.Time) Expense {
	t.Helper()
	e, err := NewExpense(tenantID, "EXP-00001", category, dec(total), decimal.Zero, date, "test expense")
	require.NoError(t, err)
	require.NoError(t, e.Submit())
	require.NoError(t, e.Approve(uuid.New()))
	return *e
}

func TestNewBudget(t *testing.T) {
	t.Run("creates an active budget with zero spent", func(t *testing.T) {
		b := newTestBudget(t)
		assert.True(t, b.IsActive)
		assert.True(t, b.SpentAmount.IsZero())
		assert.True(t, b.Remaining().Equal(dec("10000")))
	})

	t.Run("rejects end date not after start date", func(t *testing.T) {
		_, err := NewBudget(uuid.New(), "Bad", dec("100"), budgetEnd, budgetStart)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewBudget(uuid.New(), "Bad", decimal.Zero, budgetStart, budgetEnd)
		assert.Error(t, err)
	})
}

func TestBudgetContains(t *testing.T) {
	b := newTestBudget(t)

	t.Run("boundaries are inclusive", func(t *testing.T) {
		assert.True(t, b.Contains(budgetStart))
		assert.True(t, b.Contains(budgetEnd))
	})

	t.Run("outside window is excluded", func(t *testing.T) {
		assert.False(t, b.Contains(budgetStart.AddDate(0, 0, -1)))
		assert.False(t, b.Contains(budgetEnd.AddDate(0, 0, 1)))
	})
}

func TestBudgetItemRecalculateSpent(t *testing.T) {
	b := newTestBudget(t)
	item, err := NewBudgetItem(b.ID, ExpenseCategoryTravel, dec("2000"))
	require.NoError(t, err)

	t.Run("folds expense totals into spent", func(t *testing.T) {
		expenses := []Expense{
			approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "300.50", budgetStart.AddDate(0, 0, 5)),
			approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "199.50", budgetStart.AddDate(0, 1, 0)),
		}
		item.RecalculateSpent(expenses)
		assert.True(t, item.SpentAmount.Equal(dec("500.00")), "got %s", item.SpentAmount)
		assert.True(t, item.Remaining().Equal(dec("1500.00")))
		assert.False(t, item.IsOverspent())
	})

	t.Run("empty set resets spent to zero", func(t *testing.T) {
		item.RecalculateSpent(nil)
		assert.True(t, item.SpentAmount.IsZero())
	})

	t.Run("overspend is reported", func(t *testing.T) {
		item.RecalculateSpent([]Expense{
			approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "2500", budgetStart),
		})
		assert.True(t, item.IsOverspent())
	})

	t.Run("fold is order independent", func(t *testing.T) {
		e1 := approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "10.10", budgetStart)
		e2 := approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "20.20", budgetStart)
		e3 := approvedExpense(t, b.TenantID, ExpenseCategoryTravel, "30.30", budgetStart)

		item.RecalculateSpent([]Expense{e1, e2, e3})
		first := item.SpentAmount
		item.RecalculateSpent([]Expense{e3, e1, e2})
		assert.True(t, item.SpentAmount.Equal(first))
	})
}

func TestBudgetRecalculateSpent(t *testing.T) {
	b := newTestBudget(t)

	newItem := func(category ExpenseCategory, budgeted, spent string) BudgetItem {
		item, err := NewBudgetItem(b.ID, category, dec(budgeted))
		require.NoError(t, err)
		item.SpentAmount = dec(spent)
		return *item
	}

	t.Run("sums item spent amounts", func(t *testing.T) {
		b.RecalculateSpent([]BudgetItem{
			newItem(ExpenseCategoryRent, "3000", "3000"),
			newItem(ExpenseCategoryTravel, "2000", "750.25"),
			newItem(ExpenseCategoryOffice, "1000", "0"),
		})
		assert.True(t, b.SpentAmount.Equal(dec("3750.25")), "got %s", b.SpentAmount)
		assert.True(t, b.Remaining().Equal(dec("6249.75")))
	})

	t.Run("utilization percent", func(t *testing.T) {
		b.RecalculateSpent([]BudgetItem{newItem(ExpenseCategoryRent, "3000", "2500")})
		assert.True(t, b.UtilizationPercent().Equal(dec("25")), "got %s", b.UtilizationPercent())
	})

	t.Run("empty item set zeroes spent", func(t *testing.T) {
		b.RecalculateSpent(nil)
		assert.True(t, b.SpentAmount.IsZero())
	})
}
