package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expenseSeq int

func newTestExpense(t *testing.T, tenantID uuid.UUID, category budgeting.ExpenseCategory, date time.Time) *budgeting.Expense {
	t.Helper()
	expenseSeq++
	expense, err := budgeting.NewExpense(
		tenantID, fmt.Sprintf("EXP-TEST-%05d", expenseSeq), category,
		decimal.NewFromInt(100), decimal.Zero, date, "test expense",
	)
	require.NoError(t, err)
	return expense
}

func TestExpenseRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	expense := newTestExpense(t, tenantID, budgeting.ExpenseCategoryTravel, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	expense.WithVendorName("Rail Co")
	require.NoError(t, repo.Save(ctx, expense))

	found, err := repo.FindByIDForTenant(ctx, tenantID, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.ExpenseNumber, found.ExpenseNumber)
	assert.Equal(t, budgeting.ExpenseStatusDraft, found.Status)
	assert.Equal(t, "Rail Co", found.VendorName)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(100)))

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), expense.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExpenseRepository_FindCounting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	approver := uuid.New()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	save := func(e *budgeting.Expense) {
		require.NoError(t, repo.Save(ctx, e))
	}
	approved := func(category budgeting.ExpenseCategory, date time.Time) *budgeting.Expense {
		e := newTestExpense(t, tenantID, category, date)
		require.NoError(t, e.Submit())
		require.NoError(t, e.Approve(approver))
		return e
	}

	inWindow := approved(budgeting.ExpenseCategoryMarketing, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	save(inWindow)

	paid := approved(budgeting.ExpenseCategoryMarketing, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, paid.MarkPaid())
	save(paid)

	onStart := approved(budgeting.ExpenseCategoryMarketing, start)
	save(onStart)
	onEnd := approved(budgeting.ExpenseCategoryMarketing, end)
	save(onEnd)

	// Excluded: draft status, wrong category, outside the window, other tenant.
	save(newTestExpense(t, tenantID, budgeting.ExpenseCategoryMarketing, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	save(approved(budgeting.ExpenseCategoryEquipment, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	save(approved(budgeting.ExpenseCategoryMarketing, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	foreign := approved(budgeting.ExpenseCategoryMarketing, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	foreign.TenantID = uuid.New()
	save(foreign)

	counting, err := repo.FindCounting(ctx, tenantID, budgeting.ExpenseCategoryMarketing, start, end)
	require.NoError(t, err)
	require.Len(t, counting, 4)

	ids := make(map[uuid.UUID]bool, len(counting))
	for _, e := range counting {
		ids[e.ID] = true
	}
	assert.True(t, ids[inWindow.ID])
	assert.True(t, ids[paid.ID])
	assert.True(t, ids[onStart.ID])
	assert.True(t, ids[onEnd.ID])
}

func TestExpenseRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	expense := newTestExpense(t, tenantID, budgeting.ExpenseCategoryOffice, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, expense))

	stale := *expense
	require.NoError(t, expense.Submit())
	require.NoError(t, repo.SaveWithLock(ctx, expense))

	require.NoError(t, stale.Submit())
	err := repo.SaveWithLock(ctx, &stale)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
}

func TestExpenseRepository_Filter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	rent := newTestExpense(t, tenantID, budgeting.ExpenseCategoryRent, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, rent))
	travel := newTestExpense(t, tenantID, budgeting.ExpenseCategoryTravel, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, travel))

	category := budgeting.ExpenseCategoryRent
	expenses, err := repo.FindAllForTenant(ctx, tenantID, budgeting.ExpenseFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, rent.ID, expenses[0].ID)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	count, err := repo.CountForTenant(ctx, tenantID, budgeting.ExpenseFilter{FromDate: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestExpenseRepository_GenerateExpenseNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := repo.GenerateExpenseNumber(ctx, tenantID)
	require.NoError(t, err)
	prefix := "EXP-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"00001", first)

	expense, err := budgeting.NewExpense(
		tenantID, first, budgeting.ExpenseCategoryOther,
		decimal.NewFromInt(20), decimal.Zero, time.Now(), "numbered",
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, expense))

	second, err := repo.GenerateExpenseNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, prefix+"00002", second)
}
