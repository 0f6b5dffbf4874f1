package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyTemplate(t *testing.T, env *testEnv, tenantID uuid.UUID) *RecurringInvoiceResponse {
	t.Helper()

	resp, err := env.recurring.Create(context.Background(), tenantID, CreateRecurringInvoiceRequest{
		TemplateName: "Monthly retainer",
		CustomerID:   uuid.New(),
		CustomerName: "Acme Corp",
		Frequency:    invoicing.FrequencyMonthly,
		Interval:     1,
		StartDate:    date(2026, time.January, 1),
		TaxRate:      dec("10"),
		Items: []CreateRecurringItemInput{
			{Description: "Retainer", Quantity: dec("1"), UnitPrice: dec("500")},
		},
	})
	require.NoError(t, err)
	return resp
}

func TestRecurringInvoiceService_CreateProjectsNextGeneration(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()

	resp := monthlyTemplate(t, env, tenantID)

	require.NotNil(t, resp.NextGeneration)
	// One monthly unit is a fixed 30-day offset from the start date.
	assert.True(t, resp.NextGeneration.Equal(date(2026, time.January, 31)), "next = %s", resp.NextGeneration)
	assert.True(t, resp.IsActive)
	assert.Len(t, resp.Items, 1)
}

func TestRecurringInvoiceService_ProjectionUsesIntervalTimesUnit(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()

	cases := []struct {
		frequency invoicing.Frequency
		interval  int
		expected  time.Time
	}{
		{invoicing.FrequencyDaily, 10, date(2026, time.January, 11)},
		{invoicing.FrequencyWeekly, 2, date(2026, time.January, 15)},
		{invoicing.FrequencyQuarterly, 1, date(2026, time.April, 1)},
		{invoicing.FrequencyYearly, 1, date(2027, time.January, 1)},
	}

	for _, tc := range cases {
		resp, err := env.recurring.Create(context.Background(), tenantID, CreateRecurringInvoiceRequest{
			TemplateName: "Projection " + string(tc.frequency),
			CustomerID:   uuid.New(),
			CustomerName: "Acme Corp",
			Frequency:    tc.frequency,
			Interval:     tc.interval,
			StartDate:    date(2026, time.January, 1),
		})
		require.NoError(t, err)
		require.NotNil(t, resp.NextGeneration)
		assert.True(t, resp.NextGeneration.Equal(tc.expected), "frequency %s interval %d: next = %s", tc.frequency, tc.interval, resp.NextGeneration)
	}
}

func TestRecurringInvoiceService_ClearThenReactivateReprojects(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	template := monthlyTemplate(t, env, tenantID)

	cleared, err := env.recurring.ClearNextGeneration(ctx, tenantID, template.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.NextGeneration, "cleared projection must stay empty until re-projected")
	assert.True(t, cleared.IsActive)

	reactivated, err := env.recurring.Activate(ctx, tenantID, template.ID)
	require.NoError(t, err)
	require.NotNil(t, reactivated.NextGeneration)
	assert.True(t, reactivated.NextGeneration.Equal(date(2026, time.January, 31)), "next = %s", reactivated.NextGeneration)
}

func TestRecurringInvoiceService_ClearRequiresActiveTemplate(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	template := monthlyTemplate(t, env, tenantID)
	_, err := env.recurring.Deactivate(ctx, tenantID, template.ID)
	require.NoError(t, err)

	_, err = env.recurring.ClearNextGeneration(ctx, tenantID, template.ID)
	assert.Error(t, err)
}

func TestRecurringInvoiceService_ListDue(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	monthlyTemplate(t, env, tenantID) // due 2026-01-31

	due, err := env.recurring.ListDue(ctx, tenantID, date(2026, time.February, 1))
	require.NoError(t, err)
	assert.Len(t, due, 1)

	due, err = env.recurring.ListDue(ctx, tenantID, date(2026, time.January, 15))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRecurringInvoiceService_DeactivatedNotDue(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	template := monthlyTemplate(t, env, tenantID)
	_, err := env.recurring.Deactivate(ctx, tenantID, template.ID)
	require.NoError(t, err)

	due, err := env.recurring.ListDue(ctx, tenantID, date(2026, time.February, 1))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRecurringInvoiceService_ItemLifecycle(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	template := monthlyTemplate(t, env, tenantID)

	withExtra, err := env.recurring.AddItem(ctx, tenantID, template.ID, AddRecurringItemRequest{
		Description: "Extra seat",
		Quantity:    dec("2"),
		UnitPrice:   dec("25"),
	})
	require.NoError(t, err)
	require.Len(t, withExtra.Items, 2)

	var extraID uuid.UUID
	for _, item := range withExtra.Items {
		if item.Description == "Extra seat" {
			extraID = item.ID
		}
	}
	require.NotEqual(t, uuid.Nil, extraID)

	trimmed, err := env.recurring.RemoveItem(ctx, tenantID, template.ID, extraID)
	require.NoError(t, err)
	assert.Len(t, trimmed.Items, 1)
}

func TestRecurringInvoiceService_ListFiltersByActive(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	monthlyTemplate(t, env, tenantID)
	inactive := monthlyTemplate(t, env, tenantID)
	_, err := env.recurring.Deactivate(ctx, tenantID, inactive.ID)
	require.NoError(t, err)

	isActive := true
	result, err := env.recurring.List(ctx, tenantID, invoicing.RecurringInvoiceFilter{IsActive: &isActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
}

func TestRecurringInvoiceService_Delete(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	template := monthlyTemplate(t, env, tenantID)
	require.NoError(t, env.recurring.Delete(ctx, tenantID, template.ID))

	_, err := env.recurring.Get(ctx, tenantID, template.ID)
	assert.Error(t, err)
}
