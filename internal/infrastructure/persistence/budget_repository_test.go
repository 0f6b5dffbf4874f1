package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	budgetTestStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	budgetTestEnd   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func newTestBudget(t *testing.T, tenantID uuid.UUID, name string) *budgeting.Budget {
	t.Helper()
	budget, err := budgeting.NewBudget(tenantID, name, decimal.NewFromInt(10000), budgetTestStart, budgetTestEnd)
	require.NoError(t, err)
	return budget
}

func TestBudgetRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	budget := newTestBudget(t, tenantID, "Q1 operations")
	require.NoError(t, repo.Save(ctx, budget))

	item, err := budgeting.NewBudgetItem(budget.ID, budgeting.ExpenseCategoryMarketing, decimal.NewFromInt(3000))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	found, err := repo.FindByIDForTenant(ctx, tenantID, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 operations", found.Name)
	require.Len(t, found.Items, 1)
	assert.Equal(t, budgeting.ExpenseCategoryMarketing, found.Items[0].Category)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), budget.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBudgetRepository_FindMatching(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	addItem := func(budget *budgeting.Budget, category budgeting.ExpenseCategory) {
		item, err := budgeting.NewBudgetItem(budget.ID, category, decimal.NewFromInt(1000))
		require.NoError(t, err)
		require.NoError(t, repo.SaveItem(ctx, item))
	}

	matching := newTestBudget(t, tenantID, "matching")
	require.NoError(t, repo.Save(ctx, matching))
	addItem(matching, budgeting.ExpenseCategoryMarketing)

	// Same window, but no marketing line.
	wrongCategory := newTestBudget(t, tenantID, "wrong category")
	require.NoError(t, repo.Save(ctx, wrongCategory))
	addItem(wrongCategory, budgeting.ExpenseCategoryEquipment)

	// Deactivated budgets never match.
	inactive := newTestBudget(t, tenantID, "inactive")
	inactive.Deactivate()
	require.NoError(t, repo.Save(ctx, inactive))
	addItem(inactive, budgeting.ExpenseCategoryMarketing)

	// Window ends before the expense date.
	past, err := budgeting.NewBudget(tenantID, "past", decimal.NewFromInt(5000),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, past))
	addItem(past, budgeting.ExpenseCategoryMarketing)

	date := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	budgets, err := repo.FindMatching(ctx, tenantID, budgeting.ExpenseCategoryMarketing, date)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, matching.ID, budgets[0].ID)

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		for _, boundary := range []time.Time{budgetTestStart, budgetTestEnd} {
			budgets, err := repo.FindMatching(ctx, tenantID, budgeting.ExpenseCategoryMarketing, boundary)
			require.NoError(t, err)
			assert.Len(t, budgets, 1, "boundary %s", boundary)
		}
	})
}

func TestBudgetRepository_UpdateSpent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	budget := newTestBudget(t, tenantID, "targeted updates")
	budget.Notes = "persisted notes"
	require.NoError(t, repo.Save(ctx, budget))

	item, err := budgeting.NewBudgetItem(budget.ID, budgeting.ExpenseCategorySoftware, decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	item.SpentAmount = decimal.NewFromInt(750)
	item.UpdatedAt = time.Now()
	require.NoError(t, repo.UpdateItemSpent(ctx, item))

	budget.RecalculateSpent([]budgeting.BudgetItem{*item})
	budget.Notes = "dirty in memory"
	require.NoError(t, repo.UpdateSpent(ctx, budget))

	found, err := repo.FindByIDForUpdate(ctx, tenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, found.SpentAmount.Equal(decimal.NewFromInt(750)))
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].SpentAmount.Equal(decimal.NewFromInt(750)))
	// The targeted updates leave unrelated columns alone.
	assert.Equal(t, "persisted notes", found.Notes)
}

func TestBudgetRepository_DeleteForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	budget := newTestBudget(t, tenantID, "to delete")
	require.NoError(t, repo.Save(ctx, budget))

	item, err := budgeting.NewBudgetItem(budget.ID, budgeting.ExpenseCategoryUtilities, decimal.NewFromInt(500))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	require.NoError(t, repo.DeleteForTenant(ctx, tenantID, budget.ID))

	_, err = repo.FindByIDForTenant(ctx, tenantID, budget.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	items, err := repo.FindItems(ctx, budget.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
