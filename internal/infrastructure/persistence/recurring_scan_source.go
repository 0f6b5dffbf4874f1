package persistence

import (
	"context"
	"time"

	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecurringScanSource answers the cross-tenant queries the generation
// scheduler and the business metrics collector need. It satisfies
// scheduler.TenantProvider and telemetry.RecurringMetricsProvider.
type GormRecurringScanSource struct {
	db *gorm.DB
}

// NewGormRecurringScanSource creates a new GormRecurringScanSource
func NewGormRecurringScanSource(db *gorm.DB) *GormRecurringScanSource {
	return &GormRecurringScanSource{db: db}
}

// GetAllActiveTenantIDs returns the tenants that own at least one active
// template with a projected generation date
func (s *GormRecurringScanSource) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.RecurringInvoiceModel{}).
		Where("is_active = ? AND next_generation IS NOT NULL", true).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// CountDue returns the number of active templates due for generation at
// or before the given time, across all tenants
func (s *GormRecurringScanSource) CountDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RecurringInvoiceModel{}).
		Where("is_active = ? AND next_generation IS NOT NULL AND next_generation <= ?", true, now).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
