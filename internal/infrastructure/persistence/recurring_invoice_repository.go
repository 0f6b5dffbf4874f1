package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecurringInvoiceRepository implements invoicing.RecurringInvoiceRepository using GORM
type GormRecurringInvoiceRepository struct {
	db *gorm.DB
}

// NewGormRecurringInvoiceRepository creates a new GormRecurringInvoiceRepository
func NewGormRecurringInvoiceRepository(db *gorm.DB) *GormRecurringInvoiceRepository {
	return &GormRecurringInvoiceRepository{db: db}
}

// FindByIDForTenant finds a recurring invoice template by ID for a tenant
func (r *GormRecurringInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.RecurringInvoice, error) {
	var model models.RecurringInvoiceModel
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

// FindAllForTenant lists templates for a tenant with filtering
func (r *GormRecurringInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.RecurringInvoiceFilter) ([]invoicing.RecurringInvoice, error) {
	var templateModels []models.RecurringInvoiceModel
	query := dbFromContext(ctx, r.db).Model(&models.RecurringInvoiceModel{}).
		Preload("Items").
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, true)

	if err := query.Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]invoicing.RecurringInvoice, len(templateModels))
	for i, model := range templateModels {
		templates[i] = *model.ToDomain()
	}
	return templates, nil
}

// CountForTenant counts templates for a tenant with filtering
func (r *GormRecurringInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.RecurringInvoiceFilter) (int64, error) {
	var count int64
	query := dbFromContext(ctx, r.db).Model(&models.RecurringInvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDue lists active templates whose next_generation is at or before the
// given time and that have not passed their end date
func (r *GormRecurringInvoiceRepository) FindDue(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]invoicing.RecurringInvoice, error) {
	var templateModels []models.RecurringInvoiceModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND is_active = ? AND next_generation IS NOT NULL AND next_generation <= ?", tenantID, true, at).
		Where("end_date IS NULL OR end_date >= ?", at).
		Order("next_generation ASC").
		Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]invoicing.RecurringInvoice, len(templateModels))
	for i, model := range templateModels {
		templates[i] = *model.ToDomain()
	}
	return templates, nil
}

// Save creates or updates a template
func (r *GormRecurringInvoiceRepository) Save(ctx context.Context, template *invoicing.RecurringInvoice) error {
	model := models.RecurringInvoiceModelFromDomain(template)
	return dbFromContext(ctx, r.db).Omit("Items").Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormRecurringInvoiceRepository) SaveWithLock(ctx context.Context, template *invoicing.RecurringInvoice) error {
	model := models.RecurringInvoiceModelFromDomain(template)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Omit("Items").
		Where("id = ? AND version = ?", template.ID, template.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// DeleteForTenant deletes a template and its items for a tenant
func (r *GormRecurringInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	result := db.Delete(&models.RecurringInvoiceModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return db.Delete(&models.RecurringInvoiceItemModel{}, "recurring_invoice_id = ?", id).Error
}

// FindTemplateItems lists the line item templates for a recurring invoice
func (r *GormRecurringInvoiceRepository) FindTemplateItems(ctx context.Context, recurringID uuid.UUID) ([]invoicing.RecurringInvoiceItem, error) {
	var itemModels []models.RecurringInvoiceItemModel
	if err := dbFromContext(ctx, r.db).
		Where("recurring_invoice_id = ?", recurringID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]invoicing.RecurringInvoiceItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// SaveTemplateItem creates or updates a template line item
func (r *GormRecurringInvoiceRepository) SaveTemplateItem(ctx context.Context, item *invoicing.RecurringInvoiceItem) error {
	model := models.RecurringInvoiceItemModelFromDomain(item)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// DeleteTemplateItem deletes a template line item
func (r *GormRecurringInvoiceRepository) DeleteTemplateItem(ctx context.Context, recurringID, itemID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Delete(&models.RecurringInvoiceItemModel{}, "recurring_invoice_id = ? AND id = ?", recurringID, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateNextGeneration writes only the next_generation column
func (r *GormRecurringInvoiceRepository) UpdateNextGeneration(ctx context.Context, template *invoicing.RecurringInvoice) error {
	return dbFromContext(ctx, r.db).
		Model(&models.RecurringInvoiceModel{}).
		Where("id = ?", template.ID).
		Updates(map[string]any{
			"next_generation": template.NextGeneration,
			"updated_at":      template.UpdatedAt,
		}).Error
}

func (r *GormRecurringInvoiceRepository) applyFilter(query *gorm.DB, filter invoicing.RecurringInvoiceFilter, paginate bool) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if paginate && filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query.Order("created_at DESC")
}

var _ invoicing.RecurringInvoiceRepository = (*GormRecurringInvoiceRepository)(nil)
