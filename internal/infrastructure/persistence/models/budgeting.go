package models

import (
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetModel is the persistence model for the Budget aggregate root.
// spent_amount is a derived column maintained by the recalculation paths.
type BudgetModel struct {
	TenantAggregateModel
	Name        string            `gorm:"type:varchar(200);not null"`
	TotalBudget decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	SpentAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	StartDate   time.Time         `gorm:"not null;index"`
	EndDate     time.Time         `gorm:"not null;index"`
	IsActive    bool              `gorm:"not null;default:true;index"`
	Notes       string            `gorm:"type:text"`
	Items       []BudgetItemModel `gorm:"foreignKey:BudgetID;references:ID"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget
func (m *BudgetModel) ToDomain() *budgeting.Budget {
	items := make([]budgeting.BudgetItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = *item.ToDomain()
	}
	return &budgeting.Budget{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		TotalBudget:         m.TotalBudget,
		SpentAmount:         m.SpentAmount,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		IsActive:            m.IsActive,
		Notes:               m.Notes,
		Items:               items,
	}
}

// FromDomain populates the persistence model from a domain Budget.
// Items are persisted separately and are not copied here.
func (m *BudgetModel) FromDomain(b *budgeting.Budget) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Name = b.Name
	m.TotalBudget = b.TotalBudget
	m.SpentAmount = b.SpentAmount
	m.StartDate = b.StartDate
	m.EndDate = b.EndDate
	m.IsActive = b.IsActive
	m.Notes = b.Notes
}

// BudgetModelFromDomain creates a new persistence model from a domain Budget
func BudgetModelFromDomain(b *budgeting.Budget) *BudgetModel {
	m := &BudgetModel{}
	m.FromDomain(b)
	return m
}

// BudgetItemModel is the persistence model for budget category lines
type BudgetItemModel struct {
	BaseModel
	BudgetID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Category       budgeting.ExpenseCategory `gorm:"type:varchar(30);not null;index"`
	BudgetedAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	SpentAmount    decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (BudgetItemModel) TableName() string {
	return "budget_items"
}

// ToDomain converts the persistence model to a domain BudgetItem
func (m *BudgetItemModel) ToDomain() *budgeting.BudgetItem {
	return &budgeting.BudgetItem{
		BaseEntity:     m.BaseModel.ToDomain(),
		BudgetID:       m.BudgetID,
		Category:       m.Category,
		BudgetedAmount: m.BudgetedAmount,
		SpentAmount:    m.SpentAmount,
	}
}

// FromDomain populates the persistence model from a domain BudgetItem
func (m *BudgetItemModel) FromDomain(item *budgeting.BudgetItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.BudgetID = item.BudgetID
	m.Category = item.Category
	m.BudgetedAmount = item.BudgetedAmount
	m.SpentAmount = item.SpentAmount
}

// BudgetItemModelFromDomain creates a new persistence model from a domain BudgetItem
func BudgetItemModelFromDomain(item *budgeting.BudgetItem) *BudgetItemModel {
	m := &BudgetItemModel{}
	m.FromDomain(item)
	return m
}

// ExpenseModel is the persistence model for the Expense aggregate root
type ExpenseModel struct {
	TenantAggregateModel
	ExpenseNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_expense_tenant_number,priority:2"`
	Category      budgeting.ExpenseCategory `gorm:"type:varchar(30);not null;index"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TaxAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status        budgeting.ExpenseStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ExpenseDate   time.Time                 `gorm:"not null;index"`
	Description   string                    `gorm:"type:varchar(500)"`
	VendorName    string                    `gorm:"type:varchar(200)"`
	ApprovedAt    *time.Time
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
	RejectedAt    *time.Time
	RejectReason  string `gorm:"type:varchar(500)"`
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *budgeting.Expense {
	return &budgeting.Expense{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ExpenseNumber:       m.ExpenseNumber,
		Category:            m.Category,
		Amount:              m.Amount,
		TaxAmount:           m.TaxAmount,
		TotalAmount:         m.TotalAmount,
		Status:              m.Status,
		ExpenseDate:         m.ExpenseDate,
		Description:         m.Description,
		VendorName:          m.VendorName,
		ApprovedAt:          m.ApprovedAt,
		ApprovedBy:          m.ApprovedBy,
		RejectedAt:          m.RejectedAt,
		RejectReason:        m.RejectReason,
		PaidAt:              m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Expense
func (m *ExpenseModel) FromDomain(e *budgeting.Expense) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.ExpenseNumber = e.ExpenseNumber
	m.Category = e.Category
	m.Amount = e.Amount
	m.TaxAmount = e.TaxAmount
	m.TotalAmount = e.TotalAmount
	m.Status = e.Status
	m.ExpenseDate = e.ExpenseDate
	m.Description = e.Description
	m.VendorName = e.VendorName
	m.ApprovedAt = e.ApprovedAt
	m.ApprovedBy = e.ApprovedBy
	m.RejectedAt = e.RejectedAt
	m.RejectReason = e.RejectReason
	m.PaidAt = e.PaidAt
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense
func ExpenseModelFromDomain(e *budgeting.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}
