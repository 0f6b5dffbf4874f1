package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpenseRepository implements budgeting.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByIDForTenant finds an expense by ID for a specific tenant
func (r *GormExpenseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*budgeting.Expense, error) {
	var model models.ExpenseModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists expenses for a tenant with filtering
func (r *GormExpenseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter budgeting.ExpenseFilter) ([]budgeting.Expense, error) {
	var expenseModels []models.ExpenseModel
	query := dbFromContext(ctx, r.db).Model(&models.ExpenseModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, true)

	if err := query.Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]budgeting.Expense, len(expenseModels))
	for i, model := range expenseModels {
		expenses[i] = *model.ToDomain()
	}
	return expenses, nil
}

// CountForTenant counts expenses for a tenant with filtering
func (r *GormExpenseRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter budgeting.ExpenseFilter) (int64, error) {
	var count int64
	query := dbFromContext(ctx, r.db).Model(&models.ExpenseModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindCounting lists the expenses that count toward a budget item: category
// match, expense_date within the inclusive window and status approved or
// paid. This is the source set for the spent recompute.
func (r *GormExpenseRepository) FindCounting(ctx context.Context, tenantID uuid.UUID, category budgeting.ExpenseCategory, start, end time.Time) ([]budgeting.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND category = ?", tenantID, category).
		Where("expense_date >= ? AND expense_date <= ?", start, end).
		Where("status IN ?", []string{string(budgeting.ExpenseStatusApproved), string(budgeting.ExpenseStatusPaid)}).
		Order("expense_date ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]budgeting.Expense, len(expenseModels))
	for i, model := range expenseModels {
		expenses[i] = *model.ToDomain()
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *budgeting.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormExpenseRepository) SaveWithLock(ctx context.Context, expense *budgeting.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", expense.ID, expense.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// DeleteForTenant deletes an expense for a tenant
func (r *GormExpenseRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Delete(&models.ExpenseModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateExpenseNumber generates the next expense number in the format
// EXP-YYYYMMDD-NNNNN, scoped to the tenant and the current day.
func (r *GormExpenseRepository) GenerateExpenseNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("EXP-%s-", time.Now().Format("20060102"))

	var lastNumber string
	err := dbFromContext(ctx, r.db).
		Model(&models.ExpenseModel{}).
		Select("expense_number").
		Where("tenant_id = ? AND expense_number LIKE ?", tenantID, prefix+"%").
		Order("expense_number DESC").
		Limit(1).
		Scan(&lastNumber).Error
	if err != nil {
		return "", err
	}

	sequence := 1
	if lastNumber != "" {
		parts := strings.Split(lastNumber, "-")
		if len(parts) == 3 {
			var seq int
			if _, err := fmt.Sscanf(parts[2], "%d", &seq); err == nil {
				sequence = seq + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter budgeting.ExpenseFilter, paginate bool) *gorm.DB {
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("expense_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("expense_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ? OR expense_number ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if paginate && filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query.Order("expense_date DESC")
}

var _ budgeting.ExpenseRepository = (*GormExpenseRepository)(nil)
