package budgeting

import (
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Expense DTOs ====================

// CreateExpenseRequest represents a request to create an expense
type CreateExpenseRequest struct {
	Category    budgeting.ExpenseCategory `json:"category" binding:"required"`
	Amount      decimal.Decimal           `json:"amount" binding:"required"`
	TaxAmount   decimal.Decimal           `json:"tax_amount"`
	ExpenseDate time.Time                 `json:"expense_date" binding:"required"`
	Description string                    `json:"description"`
	VendorName  string                    `json:"vendor_name"`
}

// UpdateExpenseRequest represents a request to update a draft or pending
// expense
type UpdateExpenseRequest struct {
	Category    budgeting.ExpenseCategory `json:"category" binding:"required"`
	Amount      decimal.Decimal           `json:"amount" binding:"required"`
	TaxAmount   decimal.Decimal           `json:"tax_amount"`
	ExpenseDate time.Time                 `json:"expense_date" binding:"required"`
	Description string                    `json:"description"`
}

// ApproveExpenseRequest represents a request to approve a pending expense
type ApproveExpenseRequest struct {
	ApproverID uuid.UUID `json:"approver_id" binding:"required"`
}

// RejectExpenseRequest represents a request to reject a pending expense
type RejectExpenseRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ExpenseResponse represents an expense in responses
type ExpenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	ExpenseNumber string          `json:"expense_number"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	ExpenseDate   time.Time       `json:"expense_date"`
	Description   string          `json:"description,omitempty"`
	VendorName    string          `json:"vendor_name,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy    *uuid.UUID      `json:"approved_by,omitempty"`
	RejectedAt    *time.Time      `json:"rejected_at,omitempty"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToExpenseResponse converts a domain expense to its response form
func ToExpenseResponse(e *budgeting.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		ExpenseNumber: e.ExpenseNumber,
		Category:      e.Category.String(),
		Amount:        e.Amount,
		TaxAmount:     e.TaxAmount,
		TotalAmount:   e.TotalAmount,
		Status:        e.Status.String(),
		ExpenseDate:   e.ExpenseDate,
		Description:   e.Description,
		VendorName:    e.VendorName,
		ApprovedAt:    e.ApprovedAt,
		ApprovedBy:    e.ApprovedBy,
		RejectedAt:    e.RejectedAt,
		RejectReason:  e.RejectReason,
		PaidAt:        e.PaidAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ==================== Budget DTOs ====================

// CreateBudgetRequest represents a request to create a budget
type CreateBudgetRequest struct {
	Name        string                  `json:"name" binding:"required,min=1,max=200"`
	TotalBudget decimal.Decimal         `json:"total_budget" binding:"required"`
	StartDate   time.Time               `json:"start_date" binding:"required"`
	EndDate     time.Time               `json:"end_date" binding:"required"`
	Notes       string                  `json:"notes"`
	Items       []CreateBudgetItemInput `json:"items"`
}

// CreateBudgetItemInput represents a category line in the create request
type CreateBudgetItemInput struct {
	Category       budgeting.ExpenseCategory `json:"category" binding:"required"`
	BudgetedAmount decimal.Decimal           `json:"budgeted_amount" binding:"required"`
}

// AddBudgetItemRequest represents a request to add a category line
type AddBudgetItemRequest struct {
	Category       budgeting.ExpenseCategory `json:"category" binding:"required"`
	BudgetedAmount decimal.Decimal           `json:"budgeted_amount" binding:"required"`
}

// UpdateBudgetItemRequest represents a request to change a category line's
// budgeted amount
type UpdateBudgetItemRequest struct {
	BudgetedAmount decimal.Decimal `json:"budgeted_amount" binding:"required"`
}

// BudgetItemResponse represents a category line in responses
type BudgetItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Category       string          `json:"category"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	SpentAmount    decimal.Decimal `json:"spent_amount"`
	Remaining      decimal.Decimal `json:"remaining"`
	Overspent      bool            `json:"overspent"`
}

// BudgetResponse represents a budget in responses
type BudgetResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	TotalBudget  decimal.Decimal      `json:"total_budget"`
	SpentAmount  decimal.Decimal      `json:"spent_amount"`
	Remaining    decimal.Decimal      `json:"remaining"`
	IsActive     bool                 `json:"is_active"`
	Notes        string               `json:"notes,omitempty"`
	Items        []BudgetItemResponse `json:"items"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ToBudgetItemResponse converts a domain budget item to its response form
func ToBudgetItemResponse(item *budgeting.BudgetItem) BudgetItemResponse {
	return BudgetItemResponse{
		ID:             item.ID,
		Category:       item.Category.String(),
		BudgetedAmount: item.BudgetedAmount,
		SpentAmount:    item.SpentAmount,
		Remaining:      item.Remaining(),
		Overspent:      item.IsOverspent(),
	}
}

// ToBudgetResponse converts a domain budget to its response form
func ToBudgetResponse(b *budgeting.Budget) BudgetResponse {
	items := make([]BudgetItemResponse, 0, len(b.Items))
	for i := range b.Items {
		items = append(items, ToBudgetItemResponse(&b.Items[i]))
	}
	return BudgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalBudget: b.TotalBudget,
		SpentAmount: b.SpentAmount,
		Remaining:   b.Remaining(),
		IsActive:    b.IsActive,
		Notes:       b.Notes,
		Items:       items,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
