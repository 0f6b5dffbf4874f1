package budgeting

import (
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetCreatedEvent is raised when a new budget is created
type BudgetCreatedEvent struct {
	shared.BaseDomainEvent
	BudgetID    uuid.UUID       `json:"budget_id"`
	Name        string          `json:"name"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
}

// EventType returns the event type name
func (e *BudgetCreatedEvent) EventType() string {
	return "BudgetCreated"
}

// NewBudgetCreatedEvent creates a new BudgetCreatedEvent
func NewBudgetCreatedEvent(b *Budget) *BudgetCreatedEvent {
	return &BudgetCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetCreated", "Budget", b.ID, b.TenantID),
		BudgetID:        b.ID,
		Name:            b.Name,
		TotalBudget:     b.TotalBudget,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
	}
}

// BudgetRecalculatedEvent is raised after the engine re-folds a budget's
// spent amounts following an expense or item mutation
type BudgetRecalculatedEvent struct {
	shared.BaseDomainEvent
	BudgetID    uuid.UUID       `json:"budget_id"`
	Name        string          `json:"name"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	ItemCount   int             `json:"item_count"`
}

// EventType returns the event type name
func (e *BudgetRecalculatedEvent) EventType() string {
	return "BudgetRecalculated"
}

// NewBudgetRecalculatedEvent creates a new BudgetRecalculatedEvent
func NewBudgetRecalculatedEvent(b *Budget) *BudgetRecalculatedEvent {
	return &BudgetRecalculatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetRecalculated", "Budget", b.ID, b.TenantID),
		BudgetID:        b.ID,
		Name:            b.Name,
		SpentAmount:     b.SpentAmount,
		TotalBudget:     b.TotalBudget,
		ItemCount:       len(b.Items),
	}
}

// ExpenseCreatedEvent is raised when a new expense is created
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID     uuid.UUID       `json:"expense_id"`
	ExpenseNumber string          `json:"expense_number"`
	Category      ExpenseCategory `json:"category"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ExpenseDate   time.Time       `json:"expense_date"`
}

// EventType returns the event type name
func (e *ExpenseCreatedEvent) EventType() string {
	return "ExpenseCreated"
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(exp *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExpenseCreated", "Expense", exp.ID, exp.TenantID),
		ExpenseID:       exp.ID,
		ExpenseNumber:   exp.ExpenseNumber,
		Category:        exp.Category,
		TotalAmount:     exp.TotalAmount,
		ExpenseDate:     exp.ExpenseDate,
	}
}

// ExpenseApprovedEvent is raised when an expense is approved and starts
// counting toward budgets
type ExpenseApprovedEvent struct {
	shared.BaseDomainEvent
	ExpenseID     uuid.UUID       `json:"expense_id"`
	ExpenseNumber string          `json:"expense_number"`
	Category      ExpenseCategory `json:"category"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ExpenseDate   time.Time       `json:"expense_date"`
}

// EventType returns the event type name
func (e *ExpenseApprovedEvent) EventType() string {
	return "ExpenseApproved"
}

// NewExpenseApprovedEvent creates a new ExpenseApprovedEvent
func NewExpenseApprovedEvent(exp *Expense) *ExpenseApprovedEvent {
	return &ExpenseApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExpenseApproved", "Expense", exp.ID, exp.TenantID),
		ExpenseID:       exp.ID,
		ExpenseNumber:   exp.ExpenseNumber,
		Category:        exp.Category,
		TotalAmount:     exp.TotalAmount,
		ExpenseDate:     exp.ExpenseDate,
	}
}
