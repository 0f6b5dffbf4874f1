package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTemplate(t *testing.T, tenantID uuid.UUID, start time.Time) *invoicing.RecurringInvoice {
	t.Helper()
	template, err := invoicing.NewRecurringInvoice(
		tenantID, "Monthly retainer", uuid.New(), "Acme Corp",
		invoicing.FrequencyMonthly, 1, start,
		decimal.NewFromInt(10), decimal.Zero,
	)
	require.NoError(t, err)
	return template
}

func TestRecurringInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRecurringInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	template := newTestTemplate(t, tenantID, start)
	require.NoError(t, repo.Save(ctx, template))

	found, err := repo.FindByIDForTenant(ctx, tenantID, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monthly retainer", found.TemplateName)
	assert.True(t, found.IsActive)
	require.NotNil(t, found.NextGeneration)
	assert.True(t, found.NextGeneration.Equal(start.AddDate(0, 0, 30)))

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), template.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecurringInvoiceRepository_FindDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRecurringInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Due: projected 30 days after Jan 1, well before now.
	due := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, due))

	// Not due yet: projection lands after now.
	future := newTestTemplate(t, tenantID, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, future))

	// Deactivated templates are never picked up.
	inactive := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	inactive.Deactivate()
	require.NoError(t, repo.Save(ctx, inactive))

	// Expired: end date before the scan time.
	expired := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	endDate := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, expired.SetEndDate(&endDate))
	require.NoError(t, repo.Save(ctx, expired))

	dueTemplates, err := repo.FindDue(ctx, tenantID, now)
	require.NoError(t, err)
	require.Len(t, dueTemplates, 1)
	assert.Equal(t, due.ID, dueTemplates[0].ID)
}

func TestRecurringInvoiceRepository_UpdateNextGeneration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRecurringInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	template := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	template.TemplateName = "persisted name"
	require.NoError(t, repo.Save(ctx, template))

	template.ClearNextGeneration()
	template.ProjectNextGeneration()
	template.TemplateName = "dirty in memory"
	require.NoError(t, repo.UpdateNextGeneration(ctx, template))

	found, err := repo.FindByIDForTenant(ctx, tenantID, template.ID)
	require.NoError(t, err)
	require.NotNil(t, found.NextGeneration)
	assert.Equal(t, "persisted name", found.TemplateName)
}

func TestRecurringInvoiceRepository_TemplateItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRecurringInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	template := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, template))

	item, err := invoicing.NewRecurringInvoiceItem(template.ID, "Retainer fee", decimal.NewFromInt(1), decimal.NewFromInt(2500))
	require.NoError(t, err)
	require.NoError(t, repo.SaveTemplateItem(ctx, item))

	items, err := repo.FindTemplateItems(ctx, template.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Retainer fee", items[0].Description)

	require.NoError(t, repo.DeleteTemplateItem(ctx, template.ID, item.ID))
	err = repo.DeleteTemplateItem(ctx, template.ID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecurringInvoiceRepository_Filter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRecurringInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	active := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, active))

	inactive := newTestTemplate(t, tenantID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	inactive.Deactivate()
	require.NoError(t, repo.Save(ctx, inactive))

	isActive := true
	templates, err := repo.FindAllForTenant(ctx, tenantID, invoicing.RecurringInvoiceFilter{IsActive: &isActive})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, active.ID, templates[0].ID)

	count, err := repo.CountForTenant(ctx, tenantID, invoicing.RecurringInvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
