package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finstack/backend/internal/domain/invoicing"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockInvoiceRepo creates a repository over a mocked postgres
// connection so the emitted SQL can be inspected directly. The sqlite
// tests cover behavior; these tests pin the statement shape.
func newMockInvoiceRepo(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

func mockInvoice(t *testing.T) *invoicing.Invoice {
	t.Helper()

	inv, err := invoicing.NewInvoice(
		uuid.New(),
		"INV-20260115-00001",
		uuid.New(),
		"Acme Corp",
		decimal.NewFromFloat(7.5),
		decimal.Zero,
		nil,
	)
	require.NoError(t, err)
	return inv
}

func TestUpdateDerivedTotals_TargetsNamedColumns(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepo(t)
	defer mockDB.Close()

	inv := mockInvoice(t)
	inv.Subtotal = decimal.NewFromFloat(200)
	inv.TaxAmount = decimal.NewFromFloat(15)
	inv.TotalAmount = decimal.NewFromFloat(215)
	inv.UpdatedAt = time.Now()

	// Only the derived monetary columns and updated_at may appear in
	// the SET clause. Columns like status or paid_amount must not.
	mock.ExpectExec(`UPDATE "invoices" SET "subtotal"=.+"tax_amount"=.+"total_amount"=.+"updated_at"=.+ WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDerivedTotals(context.Background(), inv)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentState_TargetsNamedColumns(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepo(t)
	defer mockDB.Close()

	inv := mockInvoice(t)
	inv.PaidAmount = decimal.NewFromFloat(100)
	inv.Status = invoicing.InvoiceStatusSent
	inv.UpdatedAt = time.Now()

	mock.ExpectExec(`UPDATE "invoices" SET "paid_amount"=.+"paid_date"=.+"status"=.+"updated_at"=.+ WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePaymentState(context.Background(), inv)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWithLock_VersionGuardInWhereClause(t *testing.T) {
	t.Run("matching version updates one row", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		inv := mockInvoice(t)
		inv.Version = 2

		mock.ExpectExec(`UPDATE "invoices" SET .+ WHERE id = .+ AND version = `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), inv)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version affects no rows and surfaces a lock error", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		inv := mockInvoice(t)
		inv.Version = 2

		mock.ExpectExec(`UPDATE "invoices" SET .+ WHERE id = .+ AND version = `).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), inv)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
