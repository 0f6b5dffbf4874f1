package budgeting

import (
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetItem is a category line within the Budget aggregate. Its
// spent_amount is derived: the sum of total_amount over approved/paid
// expenses in the same category whose expense_date falls inside the
// owning budget's window.
type BudgetItem struct {
	shared.BaseEntity
	BudgetID       uuid.UUID       `json:"budget_id"`
	Category       ExpenseCategory `json:"category"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	SpentAmount    decimal.Decimal `json:"spent_amount"`
}

// NewBudgetItem creates a new budget category line
func NewBudgetItem(budgetID uuid.UUID, category ExpenseCategory, budgetedAmount decimal.Decimal) (*BudgetItem, error) {
	if budgetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Budget ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category is not valid")
	}
	if budgetedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Budgeted amount must be positive")
	}
	return &BudgetItem{
		BaseEntity:     shared.NewBaseEntity(),
		BudgetID:       budgetID,
		Category:       category,
		BudgetedAmount: budgetedAmount,
		SpentAmount:    decimal.Zero,
	}, nil
}

// RecalculateSpent folds the given expenses into spent_amount. The caller
// supplies the full, current set of qualifying expenses (category, window
// and status filtering happens at the query); the fold itself is a plain
// order-independent sum, so running it twice over the same set yields the
// same value.
func (bi *BudgetItem) RecalculateSpent(expenses []Expense) {
	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(e.TotalAmount)
	}
	bi.SpentAmount = spent
	bi.UpdatedAt = time.Now()
}

// Remaining returns budgeted_amount - spent_amount
func (bi *BudgetItem) Remaining() decimal.Decimal {
	return bi.BudgetedAmount.Sub(bi.SpentAmount)
}

// IsOverspent returns true if spending exceeds the budgeted amount
func (bi *BudgetItem) IsOverspent() bool {
	return bi.SpentAmount.GreaterThan(bi.BudgetedAmount)
}

// SetBudgetedAmount changes the planned amount for the category
func (bi *BudgetItem) SetBudgetedAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Budgeted amount must be positive")
	}
	bi.BudgetedAmount = amount
	bi.UpdatedAt = time.Now()
	return nil
}

// Budget is the budget aggregate root. Its spent_amount is derived as the
// sum of its items' spent_amounts and is maintained exclusively by the
// recalculation engine.
type Budget struct {
	shared.TenantAggregateRoot
	Name        string          `json:"name"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	IsActive    bool            `json:"is_active"`
	Notes       string          `json:"notes"`
	Items       []BudgetItem    `json:"items"`
}

// NewBudget creates a new budget covering [startDate, endDate]
func NewBudget(
	tenantID uuid.UUID,
	name string,
	totalBudget decimal.Decimal,
	startDate, endDate time.Time,
) (*Budget, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Budget name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Budget name cannot exceed 200 characters")
	}
	if totalBudget.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total budget must be positive")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATES", "Start and end dates are required")
	}
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("INVALID_DATES", "End date must be after start date")
	}

	b := &Budget{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		TotalBudget:         totalBudget,
		SpentAmount:         decimal.Zero,
		StartDate:           startDate,
		EndDate:             endDate,
		IsActive:            true,
		Items:               []BudgetItem{},
	}

	b.AddDomainEvent(NewBudgetCreatedEvent(b))
	return b, nil
}

// RecalculateSpent folds the spent_amounts of the full current item set
// into the budget's spent_amount.
func (b *Budget) RecalculateSpent(items []BudgetItem) {
	spent := decimal.Zero
	for _, item := range items {
		spent = spent.Add(item.SpentAmount)
	}
	b.SpentAmount = spent
	b.Items = items
	b.UpdatedAt = time.Now()
}

// Contains reports whether the given date falls within the budget window,
// boundaries included.
func (b *Budget) Contains(date time.Time) bool {
	return !date.Before(b.StartDate) && !date.After(b.EndDate)
}

// Remaining returns total_budget - spent_amount
func (b *Budget) Remaining() decimal.Decimal {
	return b.TotalBudget.Sub(b.SpentAmount)
}

// UtilizationPercent returns spent as a percentage of the total budget
func (b *Budget) UtilizationPercent() decimal.Decimal {
	if b.TotalBudget.IsZero() {
		return decimal.Zero
	}
	return b.SpentAmount.Div(b.TotalBudget).Mul(decimal.NewFromInt(100)).Round(2)
}

// Activate re-enables the budget
func (b *Budget) Activate() {
	if b.IsActive {
		return
	}
	b.IsActive = true
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// Deactivate disables the budget without deleting it
func (b *Budget) Deactivate() {
	if !b.IsActive {
		return
	}
	b.IsActive = false
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// SetNotes sets the free-form notes
func (b *Budget) SetNotes(notes string) {
	b.Notes = notes
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}
