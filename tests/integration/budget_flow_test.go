package integration

import (
	"context"
	"testing"
	"time"

	budgetingapp "github.com/finstack/backend/internal/application/budgeting"
	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBudgetFlow_ExpenseApprovalRollsUp walks an expense through its
// approval flow and verifies the matching budget's derived spend moves
// exactly when the expense starts and stops counting.
func TestBudgetFlow_ExpenseApprovalRollsUp(t *testing.T) {
	env := NewFlowEnv(t)
	ctx := context.Background()

	budget, err := env.Budgets.Create(ctx, env.TenantID, budgetingapp.CreateBudgetRequest{
		Name:        "Q1 operations",
		TotalBudget: dec("1000"),
		StartDate:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		Items: []budgetingapp.CreateBudgetItemInput{
			{Category: budgeting.ExpenseCategoryMarketing, BudgetedAmount: dec("400")},
			{Category: budgeting.ExpenseCategoryEquipment, BudgetedAmount: dec("600")},
		},
	})
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("0")))

	expense, err := env.Expenses.Create(ctx, env.TenantID, budgetingapp.CreateExpenseRequest{
		Category:    budgeting.ExpenseCategoryMarketing,
		Amount:      dec("150"),
		ExpenseDate: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		Description: "Campaign ads",
	})
	require.NoError(t, err)

	// Draft and pending expenses do not count
	_, err = env.Expenses.Submit(ctx, env.TenantID, expense.ID)
	require.NoError(t, err)

	budget, err = env.Budgets.Get(ctx, env.TenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("0")), "pending expense must not count: %s", budget.SpentAmount)

	// Approval is the moment the expense starts counting
	_, err = env.Expenses.Approve(ctx, env.TenantID, expense.ID, budgetingapp.ApproveExpenseRequest{
		ApproverID: uuid.New(),
	})
	require.NoError(t, err)

	budget, err = env.Budgets.Get(ctx, env.TenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("150")), "approved expense must count: %s", budget.SpentAmount)
	assert.True(t, budget.Remaining.Equal(dec("850")))

	for _, item := range budget.Items {
		switch item.Category {
		case budgeting.ExpenseCategoryMarketing.String():
			assert.True(t, item.SpentAmount.Equal(dec("150")))
		case budgeting.ExpenseCategoryEquipment.String():
			assert.True(t, item.SpentAmount.Equal(dec("0")))
		}
	}

	// Paying an approved expense does not move the derived values
	_, err = env.Expenses.MarkPaid(ctx, env.TenantID, expense.ID)
	require.NoError(t, err)

	budget, err = env.Budgets.Get(ctx, env.TenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("150")))
}

// TestBudgetFlow_ExpenseOutsideWindowDoesNotCount verifies the window and
// category matching of the roll-up.
func TestBudgetFlow_ExpenseOutsideWindowDoesNotCount(t *testing.T) {
	env := NewFlowEnv(t)
	ctx := context.Background()

	budget, err := env.Budgets.Create(ctx, env.TenantID, budgetingapp.CreateBudgetRequest{
		Name:        "March marketing",
		TotalBudget: dec("500"),
		StartDate:   time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		Items: []budgetingapp.CreateBudgetItemInput{
			{Category: budgeting.ExpenseCategoryMarketing, BudgetedAmount: dec("500")},
		},
	})
	require.NoError(t, err)

	cases := []struct {
		name     string
		category budgeting.ExpenseCategory
		date     time.Time
	}{
		{"before the window", budgeting.ExpenseCategoryMarketing, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"after the window", budgeting.ExpenseCategoryMarketing, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{"different category", budgeting.ExpenseCategoryEquipment, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		expense, err := env.Expenses.Create(ctx, env.TenantID, budgetingapp.CreateExpenseRequest{
			Category:    tc.category,
			Amount:      dec("100"),
			ExpenseDate: tc.date,
			Description: tc.name,
		})
		require.NoError(t, err)
		_, err = env.Expenses.Submit(ctx, env.TenantID, expense.ID)
		require.NoError(t, err)
		_, err = env.Expenses.Approve(ctx, env.TenantID, expense.ID, budgetingapp.ApproveExpenseRequest{
			ApproverID: uuid.New(),
		})
		require.NoError(t, err)
	}

	budget, err = env.Budgets.Get(ctx, env.TenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("0")), "no expense qualifies: %s", budget.SpentAmount)

	// An in-window expense of the right category does count
	expense, err := env.Expenses.Create(ctx, env.TenantID, budgetingapp.CreateExpenseRequest{
		Category:    budgeting.ExpenseCategoryMarketing,
		Amount:      dec("75"),
		ExpenseDate: time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		Description: "qualifying",
	})
	require.NoError(t, err)
	_, err = env.Expenses.Submit(ctx, env.TenantID, expense.ID)
	require.NoError(t, err)
	_, err = env.Expenses.Approve(ctx, env.TenantID, expense.ID, budgetingapp.ApproveExpenseRequest{
		ApproverID: uuid.New(),
	})
	require.NoError(t, err)

	budget, err = env.Budgets.Get(ctx, env.TenantID, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(dec("75")))
}
