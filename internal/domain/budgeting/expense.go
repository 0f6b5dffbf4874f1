package budgeting

import (
	"fmt"
	"time"

	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the spending category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryRent      ExpenseCategory = "RENT"
	ExpenseCategoryUtilities ExpenseCategory = "UTILITIES"
	ExpenseCategorySalary    ExpenseCategory = "SALARY"
	ExpenseCategoryOffice    ExpenseCategory = "OFFICE"
	ExpenseCategoryTravel    ExpenseCategory = "TRAVEL"
	ExpenseCategoryMarketing ExpenseCategory = "MARKETING"
	ExpenseCategoryEquipment ExpenseCategory = "EQUIPMENT"
	ExpenseCategorySoftware  ExpenseCategory = "SOFTWARE"
	ExpenseCategoryInsurance ExpenseCategory = "INSURANCE"
	ExpenseCategoryTax       ExpenseCategory = "TAX"
	ExpenseCategoryOther     ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryRent, ExpenseCategoryUtilities, ExpenseCategorySalary,
		ExpenseCategoryOffice, ExpenseCategoryTravel, ExpenseCategoryMarketing,
		ExpenseCategoryEquipment, ExpenseCategorySoftware, ExpenseCategoryInsurance,
		ExpenseCategoryTax, ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// ExpenseStatus represents the approval status of an expense
type ExpenseStatus string

const (
	ExpenseStatusDraft    ExpenseStatus = "DRAFT"    // Being edited, not yet submitted
	ExpenseStatusPending  ExpenseStatus = "PENDING"  // Submitted, awaiting approval
	ExpenseStatusApproved ExpenseStatus = "APPROVED" // Approved, counts toward budgets
	ExpenseStatusRejected ExpenseStatus = "REJECTED" // Rejected
	ExpenseStatusPaid     ExpenseStatus = "PAID"     // Approved and paid out
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusPending, ExpenseStatusApproved,
		ExpenseStatusRejected, ExpenseStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// CountsTowardBudget returns true if expenses in this status contribute to
// budget spent amounts. Only approved and paid expenses count.
func (s ExpenseStatus) CountsTowardBudget() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusPaid
}

// CanSubmit returns true if the expense can be submitted for approval
func (s ExpenseStatus) CanSubmit() bool {
	return s == ExpenseStatusDraft
}

// CanApprove returns true if the expense can be approved or rejected
func (s ExpenseStatus) CanApprove() bool {
	return s == ExpenseStatusPending
}

// Expense is the expense aggregate root. Its total_amount is derived as
// amount + tax_amount; every status, amount, category or date change may
// shift which budget items it counts toward, so all of those mutations go
// through the recalculation engine.
type Expense struct {
	shared.TenantAggregateRoot
	ExpenseNumber string          `json:"expense_number"`
	Category      ExpenseCategory `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        ExpenseStatus   `json:"status"`
	ExpenseDate   time.Time       `json:"expense_date"`
	Description   string          `json:"description"`
	VendorName    string          `json:"vendor_name"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	ApprovedBy    *uuid.UUID      `json:"approved_by"`
	RejectedAt    *time.Time      `json:"rejected_at"`
	RejectReason  string          `json:"reject_reason"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// NewExpense creates a new draft expense with its total derived
func NewExpense(
	tenantID uuid.UUID,
	expenseNumber string,
	category ExpenseCategory,
	amount, taxAmount decimal.Decimal,
	expenseDate time.Time,
	description string,
) (*Expense, error) {
	if expenseNumber == "" {
		return nil, shared.NewDomainError("INVALID_EXPENSE_NUMBER", "Expense number cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Expense category %q is not valid", category))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax amount cannot be negative")
	}
	if expenseDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}

	e := &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ExpenseNumber:       expenseNumber,
		Category:            category,
		Amount:              amount,
		TaxAmount:           taxAmount,
		Status:              ExpenseStatusDraft,
		ExpenseDate:         expenseDate,
		Description:         description,
	}
	e.deriveTotal()

	e.AddDomainEvent(NewExpenseCreatedEvent(e))
	return e, nil
}

func (e *Expense) deriveTotal() {
	e.TotalAmount = e.Amount.Add(e.TaxAmount)
}

// Update changes the amounts, category and date of an expense,
// re-deriving the total. Rejected and paid expenses are frozen.
func (e *Expense) Update(category ExpenseCategory, amount, taxAmount decimal.Decimal, expenseDate time.Time, description string) error {
	if e.Status == ExpenseStatusRejected || e.Status == ExpenseStatusPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify expense in %s status", e.Status))
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Expense category %q is not valid", category))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if taxAmount.IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax amount cannot be negative")
	}
	if expenseDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}

	e.Category = category
	e.Amount = amount
	e.TaxAmount = taxAmount
	e.ExpenseDate = expenseDate
	e.Description = description
	e.deriveTotal()
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// Submit moves a draft expense to pending approval
func (e *Expense) Submit() error {
	if !e.Status.CanSubmit() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit expense in %s status", e.Status))
	}
	e.Status = ExpenseStatusPending
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// Approve approves a pending expense. From this point it contributes to
// matching budget items.
func (e *Expense) Approve(approverID uuid.UUID) error {
	if !e.Status.CanApprove() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve expense in %s status", e.Status))
	}
	now := time.Now()
	e.Status = ExpenseStatusApproved
	e.ApprovedAt = &now
	e.ApprovedBy = &approverID
	e.UpdatedAt = now
	e.IncrementVersion()
	e.AddDomainEvent(NewExpenseApprovedEvent(e))
	return nil
}

// Reject rejects a pending expense
func (e *Expense) Reject(reason string) error {
	if !e.Status.CanApprove() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject expense in %s status", e.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}
	now := time.Now()
	e.Status = ExpenseStatusRejected
	e.RejectedAt = &now
	e.RejectReason = reason
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}

// MarkPaid records the payout of an approved expense. Paid expenses keep
// counting toward budgets.
func (e *Expense) MarkPaid() error {
	if e.Status != ExpenseStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay expense in %s status", e.Status))
	}
	now := time.Now()
	e.Status = ExpenseStatusPaid
	e.PaidAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}

// WithVendorName sets the vendor the expense was paid to
func (e *Expense) WithVendorName(name string) *Expense {
	e.VendorName = name
	return e
}

// CountsTowardBudget reports whether this expense contributes to a budget
// window [start, end] for the given category: status approved/paid,
// matching category, expense_date inside the window (inclusive).
func (e *Expense) CountsTowardBudget(category ExpenseCategory, start, end time.Time) bool {
	if !e.Status.CountsTowardBudget() {
		return false
	}
	if e.Category != category {
		return false
	}
	return !e.ExpenseDate.Before(start) && !e.ExpenseDate.After(end)
}
