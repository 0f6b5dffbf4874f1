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

func newTestInvoice(t *testing.T, tenantID uuid.UUID, number string) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(
		tenantID, number, uuid.New(), "Acme Corp",
		decimal.NewFromFloat(7.5), decimal.Zero, nil,
	)
	require.NoError(t, err)
	return inv
}

func TestInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("saves and loads an invoice", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-20260101-00001")
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
		assert.Equal(t, "INV-20260101-00001", found.InvoiceNumber)
		assert.Equal(t, invoicing.InvoiceStatusDraft, found.Status)
		assert.True(t, found.Subtotal.IsZero())
		assert.Empty(t, found.Items)
	})

	t.Run("loads items alongside the invoice", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-20260101-00002")
		require.NoError(t, repo.Save(ctx, inv))

		item, err := invoicing.NewInvoiceItem(inv.ID, "Consulting", decimal.NewFromInt(2), decimal.NewFromInt(150))
		require.NoError(t, err)
		require.NoError(t, repo.SaveItem(ctx, item))

		found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "Consulting", found.Items[0].Description)
		assert.True(t, found.Items[0].TotalPrice.Equal(decimal.NewFromInt(300)))
	})

	t.Run("does not leak invoices across tenants", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-20260101-00003")
		require.NoError(t, repo.Save(ctx, inv))

		_, err := repo.FindByIDForTenant(ctx, uuid.New(), inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by number", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-20260101-00004")
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByNumber(ctx, tenantID, "INV-20260101-00004")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)

		_, err = repo.FindByNumber(ctx, tenantID, "INV-20260101-99999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInvoiceRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("succeeds when version matches", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-LOCK-00001")
		require.NoError(t, repo.Save(ctx, inv))

		inv.Notes = "updated"
		inv.IncrementVersion()
		require.NoError(t, repo.SaveWithLock(ctx, inv))

		found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", found.Notes)
		assert.Equal(t, inv.Version, found.Version)
	})

	t.Run("fails when another transaction won", func(t *testing.T) {
		inv := newTestInvoice(t, tenantID, "INV-LOCK-00002")
		require.NoError(t, repo.Save(ctx, inv))

		stale := *inv
		inv.IncrementVersion()
		require.NoError(t, repo.SaveWithLock(ctx, inv))

		stale.IncrementVersion()
		err := repo.SaveWithLock(ctx, &stale)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
	})
}

func TestInvoiceRepository_UpdateDerivedTotals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := newTestInvoice(t, tenantID, "INV-DERIVED-00001")
	inv.Notes = "original notes"
	require.NoError(t, repo.Save(ctx, inv))

	item, err := invoicing.NewInvoiceItem(inv.ID, "Licenses", decimal.NewFromInt(4), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	inv.Recalculate([]invoicing.InvoiceItem{*item})
	inv.Notes = "dirty in memory, must not be written"
	require.NoError(t, repo.UpdateDerivedTotals(ctx, inv))

	found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(400)), "subtotal %s", found.Subtotal)
	assert.True(t, found.TaxAmount.Equal(decimal.NewFromInt(30)), "tax %s", found.TaxAmount)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(430)), "total %s", found.TotalAmount)
	// The targeted update leaves unrelated columns alone.
	assert.Equal(t, "original notes", found.Notes)
}

func TestInvoiceRepository_UpdatePaymentState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := newTestInvoice(t, tenantID, "INV-PAYSTATE-00001")
	require.NoError(t, repo.Save(ctx, inv))

	item, err := invoicing.NewInvoiceItem(inv.ID, "Support", decimal.NewFromInt(1), decimal.NewFromInt(200))
	require.NoError(t, err)
	inv.Recalculate([]invoicing.InvoiceItem{*item})
	require.NoError(t, inv.Send())
	require.NoError(t, repo.Save(ctx, inv))

	payment, err := invoicing.NewPayment(
		tenantID, "PAY-20260101-00001", inv.CustomerID, &inv.ID,
		inv.TotalAmount, invoicing.PaymentMethodBank, time.Now(),
	)
	require.NoError(t, err)
	inv.RecalculatePayments([]invoicing.Payment{*payment})
	require.NoError(t, repo.UpdatePaymentState(ctx, inv))

	found, err := repo.FindByIDForTenant(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusPaid, found.Status)
	assert.True(t, found.PaidAmount.Equal(inv.TotalAmount))
	assert.NotNil(t, found.PaidDate)
}

func TestInvoiceRepository_FindAllForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()

	for i, number := range []string{"INV-A-00001", "INV-A-00002", "INV-A-00003"} {
		inv, err := invoicing.NewInvoice(
			tenantID, number, customerID, "Filter Corp",
			decimal.Zero, decimal.Zero, nil,
		)
		require.NoError(t, err)
		if i > 0 {
			require.NoError(t, inv.Send())
		}
		require.NoError(t, repo.Save(ctx, inv))
	}
	other := newTestInvoice(t, uuid.New(), "INV-B-00001")
	require.NoError(t, repo.Save(ctx, other))

	t.Run("scopes to tenant", func(t *testing.T) {
		invoices, err := repo.FindAllForTenant(ctx, tenantID, invoicing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Len(t, invoices, 3)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := invoicing.InvoiceStatusSent
		invoices, err := repo.FindAllForTenant(ctx, tenantID, invoicing.InvoiceFilter{Status: &status})
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})

	t.Run("filters by customer", func(t *testing.T) {
		otherCustomer := uuid.New()
		count, err := repo.CountForTenant(ctx, tenantID, invoicing.InvoiceFilter{CustomerID: &otherCustomer})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		count, err = repo.CountForTenant(ctx, tenantID, invoicing.InvoiceFilter{CustomerID: &customerID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := invoicing.InvoiceFilter{Filter: shared.Filter{Page: 1, PageSize: 2}}
		invoices, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, invoices, 2)

		filter.Page = 2
		invoices, err = repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, invoices, 1)
	})
}

func TestInvoiceRepository_DeleteItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := newTestInvoice(t, tenantID, "INV-ITEMS-00001")
	require.NoError(t, repo.Save(ctx, inv))

	item, err := invoicing.NewInvoiceItem(inv.ID, "Hosting", decimal.NewFromInt(1), decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))

	require.NoError(t, repo.DeleteItem(ctx, inv.ID, item.ID))

	items, err := repo.FindItems(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = repo.DeleteItem(ctx, inv.ID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceRepository_GenerateInvoiceNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := repo.GenerateInvoiceNumber(ctx, tenantID)
	require.NoError(t, err)
	prefix := "INV-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"00001", first)

	inv := newTestInvoice(t, tenantID, first)
	require.NoError(t, repo.Save(ctx, inv))

	second, err := repo.GenerateInvoiceNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, prefix+"00002", second)

	// Other tenants run their own sequence.
	otherFirst, err := repo.GenerateInvoiceNumber(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, prefix+"00001", otherFirst)
}
