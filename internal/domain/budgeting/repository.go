package budgeting

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BudgetFilter defines filtering options for budget queries
type BudgetFilter struct {
	shared.Filter
	IsActive *bool
	ActiveAt *time.Time // budgets whose window contains this date
}

// BudgetRepository defines the persistence interface for budgets.
// FindByIDForUpdate locks the budget row so concurrent expense-driven
// recalculations serialize on the parent.
type BudgetRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter BudgetFilter) ([]Budget, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter BudgetFilter) (int64, error)

	// FindMatching lists active budgets whose window contains the given
	// date and that carry an item for the given category. Used to resolve
	// which budgets an expense mutation affects.
	FindMatching(ctx context.Context, tenantID uuid.UUID, category ExpenseCategory, date time.Time) ([]Budget, error)

	Save(ctx context.Context, budget *Budget) error
	SaveWithLock(ctx context.Context, budget *Budget) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	FindItems(ctx context.Context, budgetID uuid.UUID) ([]BudgetItem, error)
	FindItem(ctx context.Context, budgetID, itemID uuid.UUID) (*BudgetItem, error)
	SaveItem(ctx context.Context, item *BudgetItem) error
	DeleteItem(ctx context.Context, budgetID, itemID uuid.UUID) error

	// UpdateItemSpent persists only a budget item's derived spent_amount.
	UpdateItemSpent(ctx context.Context, item *BudgetItem) error

	// UpdateSpent persists only the budget's derived spent_amount.
	UpdateSpent(ctx context.Context, budget *Budget) error
}

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	Category *ExpenseCategory
	Status   *ExpenseStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// ExpenseRepository defines the persistence interface for expenses
type ExpenseRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) ([]Expense, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) (int64, error)

	// FindCounting lists the expenses that currently count toward a budget
	// item: tenant + category match, expense_date within [start, end]
	// (inclusive) and status approved or paid. This is the source set for
	// the recompute-from-scratch fold.
	FindCounting(ctx context.Context, tenantID uuid.UUID, category ExpenseCategory, start, end time.Time) ([]Expense, error)

	Save(ctx context.Context, expense *Expense) error
	SaveWithLock(ctx context.Context, expense *Expense) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	GenerateExpenseNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
