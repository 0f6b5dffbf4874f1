package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetRepository implements budgeting.BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// FindByIDForTenant finds a budget by ID for a specific tenant
func (r *GormBudgetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*budgeting.Budget, error) {
	var model models.BudgetModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the budget row under a write lock inside the
// current transaction, with items loaded separately.
func (r *GormBudgetRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*budgeting.Budget, error) {
	db := dbFromContext(ctx, r.db)
	var model models.BudgetModel
	if err := lockForUpdate(db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := db.Where("budget_id = ?", id).Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists budgets for a tenant with filtering
func (r *GormBudgetRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter budgeting.BudgetFilter) ([]budgeting.Budget, error) {
	var budgetModels []models.BudgetModel
	query := dbFromContext(ctx, r.db).Model(&models.BudgetModel{}).
		Preload("Items").
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, true)

	if err := query.Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	budgets := make([]budgeting.Budget, len(budgetModels))
	for i, model := range budgetModels {
		budgets[i] = *model.ToDomain()
	}
	return budgets, nil
}

// CountForTenant counts budgets for a tenant with filtering
func (r *GormBudgetRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter budgeting.BudgetFilter) (int64, error) {
	var count int64
	query := dbFromContext(ctx, r.db).Model(&models.BudgetModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindMatching lists active budgets whose window contains the given date
// and that carry an item for the given category. These are the budgets an
// expense mutation affects.
func (r *GormBudgetRepository) FindMatching(ctx context.Context, tenantID uuid.UUID, category budgeting.ExpenseCategory, date time.Time) ([]budgeting.Budget, error) {
	var budgetModels []models.BudgetModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?", tenantID, true, date, date).
		Where("id IN (?)", dbFromContext(ctx, r.db).
			Model(&models.BudgetItemModel{}).
			Select("budget_id").
			Where("category = ?", category)).
		Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	budgets := make([]budgeting.Budget, len(budgetModels))
	for i, model := range budgetModels {
		budgets[i] = *model.ToDomain()
	}
	return budgets, nil
}

// Save creates or updates a budget
func (r *GormBudgetRepository) Save(ctx context.Context, budget *budgeting.Budget) error {
	model := models.BudgetModelFromDomain(budget)
	return dbFromContext(ctx, r.db).Omit("Items").Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormBudgetRepository) SaveWithLock(ctx context.Context, budget *budgeting.Budget) error {
	model := models.BudgetModelFromDomain(budget)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Omit("Items").
		Where("id = ? AND version = ?", budget.ID, budget.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// DeleteForTenant deletes a budget and its items for a tenant
func (r *GormBudgetRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	result := db.Delete(&models.BudgetModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return db.Delete(&models.BudgetItemModel{}, "budget_id = ?", id).Error
}

// FindItems lists the category lines for a budget
func (r *GormBudgetRepository) FindItems(ctx context.Context, budgetID uuid.UUID) ([]budgeting.BudgetItem, error) {
	var itemModels []models.BudgetItemModel
	if err := dbFromContext(ctx, r.db).
		Where("budget_id = ?", budgetID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]budgeting.BudgetItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// FindItem finds a single category line belonging to a budget
func (r *GormBudgetRepository) FindItem(ctx context.Context, budgetID, itemID uuid.UUID) (*budgeting.BudgetItem, error) {
	var model models.BudgetItemModel
	if err := dbFromContext(ctx, r.db).
		Where("budget_id = ? AND id = ?", budgetID, itemID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveItem creates or updates a category line
func (r *GormBudgetRepository) SaveItem(ctx context.Context, item *budgeting.BudgetItem) error {
	model := models.BudgetItemModelFromDomain(item)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// DeleteItem deletes a category line from a budget
func (r *GormBudgetRepository) DeleteItem(ctx context.Context, budgetID, itemID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Delete(&models.BudgetItemModel{}, "budget_id = ? AND id = ?", budgetID, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateItemSpent writes only a category line's derived spent_amount
func (r *GormBudgetRepository) UpdateItemSpent(ctx context.Context, item *budgeting.BudgetItem) error {
	return dbFromContext(ctx, r.db).
		Model(&models.BudgetItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"spent_amount": item.SpentAmount,
			"updated_at":   item.UpdatedAt,
		}).Error
}

// UpdateSpent writes only the budget's derived spent_amount
func (r *GormBudgetRepository) UpdateSpent(ctx context.Context, budget *budgeting.Budget) error {
	return dbFromContext(ctx, r.db).
		Model(&models.BudgetModel{}).
		Where("id = ?", budget.ID).
		Updates(map[string]any{
			"spent_amount": budget.SpentAmount,
			"updated_at":   budget.UpdatedAt,
		}).Error
}

func (r *GormBudgetRepository) applyFilter(query *gorm.DB, filter budgeting.BudgetFilter, paginate bool) *gorm.DB {
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ActiveAt != nil {
		query = query.Where("start_date <= ? AND end_date >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if paginate && filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query.Order("created_at DESC")
}

var _ budgeting.BudgetRepository = (*GormBudgetRepository)(nil)
