package budgeting

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/google/uuid"
)

// budgetRecalculator is the shared re-roll core used by both services.
// recalcLocked re-derives every item's spent_amount from the qualifying
// expense set and folds the items into the budget's spent_amount, writing
// only the derived columns. It must run inside a transaction with the
// budget row already locked.
type budgetRecalculator struct {
	budgetRepo  budgeting.BudgetRepository
	expenseRepo budgeting.ExpenseRepository
}

// recalc locks the budget and re-rolls it. Idempotent: a second run over
// unchanged expenses writes the same values.
func (r *budgetRecalculator) recalc(ctx context.Context, tenantID, budgetID uuid.UUID) (*budgeting.Budget, error) {
	budget, err := r.budgetRepo.FindByIDForUpdate(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := r.recalcLocked(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (r *budgetRecalculator) recalcLocked(ctx context.Context, budget *budgeting.Budget) error {
	items, err := r.budgetRepo.FindItems(ctx, budget.ID)
	if err != nil {
		return err
	}

	for i := range items {
		expenses, err := r.expenseRepo.FindCounting(ctx, budget.TenantID, items[i].Category, budget.StartDate, budget.EndDate)
		if err != nil {
			return err
		}
		items[i].RecalculateSpent(expenses)
		if err := r.budgetRepo.UpdateItemSpent(ctx, &items[i]); err != nil {
			return err
		}
	}

	budget.RecalculateSpent(items)
	return r.budgetRepo.UpdateSpent(ctx, budget)
}

// coordinate is a (category, date) pair an expense counted toward before
// or after a mutation.
type coordinate struct {
	category budgeting.ExpenseCategory
	date     time.Time
}

// rerollCoordinates re-rolls every active budget whose window contains one
// of the given coordinates' dates and that carries an item for its
// category. Budgets matched by several coordinates are re-rolled once.
func (r *budgetRecalculator) rerollCoordinates(ctx context.Context, tenantID uuid.UUID, coords ...coordinate) error {
	seen := make(map[uuid.UUID]bool)
	for _, c := range coords {
		budgets, err := r.budgetRepo.FindMatching(ctx, tenantID, c.category, c.date)
		if err != nil {
			return err
		}
		for i := range budgets {
			if seen[budgets[i].ID] {
				continue
			}
			seen[budgets[i].ID] = true
			if _, err := r.recalc(ctx, tenantID, budgets[i].ID); err != nil {
				return err
			}
		}
	}
	return nil
}
