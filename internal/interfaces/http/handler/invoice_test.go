package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	invoicingapp "github.com/finstack/backend/internal/application/invoicing"
	"github.com/finstack/backend/internal/infrastructure/persistence"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/finstack/backend/internal/interfaces/http/dto"
	"github.com/finstack/backend/internal/interfaces/http/middleware"
	"github.com/finstack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newInvoiceAPI stands up the full HTTP pipeline (middleware, router,
// handler) over real services backed by in-memory SQLite.
func newInvoiceAPI(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
	))

	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	txManager := persistence.NewGormTransactionManager(db)
	service := invoicingapp.NewInvoiceService(invoiceRepo, paymentRepo, txManager)

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TenantMiddleware())

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewInvoiceHandler(service))
	r.Setup()

	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, tenantID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "expected success response, got: %s", w.Body.String())
	return resp.Data
}

func createInvoiceReq() map[string]any {
	return map[string]any{
		"customer_id":   uuid.New().String(),
		"customer_name": "Acme Corp",
		"tax_rate":      "10",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "unit_price": "50"},
		},
	}
}

func TestInvoiceHandler_CreateAndGet(t *testing.T) {
	engine := newInvoiceAPI(t)
	tenantID := uuid.New()

	w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantID, createInvoiceReq())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "DRAFT", data["status"])
	assert.Equal(t, "110", data["total_amount"])

	invoiceID := data["id"].(string)
	w = doJSON(t, engine, "GET", "/api/v1/invoices/"+invoiceID, tenantID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeData(t, w)
	assert.Equal(t, invoiceID, got["id"])
}

func TestInvoiceHandler_RequiresTenant(t *testing.T) {
	engine := newInvoiceAPI(t)

	req := httptest.NewRequest("GET", "/api/v1/invoices", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvoiceHandler_TenantIsolation(t *testing.T) {
	engine := newInvoiceAPI(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantA, createInvoiceReq())
	require.Equal(t, http.StatusCreated, w.Code)
	invoiceID := decodeData(t, w)["id"].(string)

	// Other tenant cannot see it
	w = doJSON(t, engine, "GET", "/api/v1/invoices/"+invoiceID, tenantB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestInvoiceHandler_SendAndRecordPayment(t *testing.T) {
	engine := newInvoiceAPI(t)
	tenantID := uuid.New()

	w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantID, createInvoiceReq())
	require.Equal(t, http.StatusCreated, w.Code)
	invoiceID := decodeData(t, w)["id"].(string)

	w = doJSON(t, engine, "POST", fmt.Sprintf("/api/v1/invoices/%s/send", invoiceID), tenantID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SENT", decodeData(t, w)["status"])

	w = doJSON(t, engine, "POST", fmt.Sprintf("/api/v1/invoices/%s/payments", invoiceID), tenantID, map[string]any{
		"amount":       "110",
		"method":       "BANK_TRANSFER",
		"payment_date": "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, "0", data["outstanding"])
}

func TestInvoiceHandler_InvalidPayloads(t *testing.T) {
	engine := newInvoiceAPI(t)
	tenantID := uuid.New()

	t.Run("malformed invoice ID", func(t *testing.T) {
		w := doJSON(t, engine, "GET", "/api/v1/invoices/not-a-uuid", tenantID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantID, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancel on paid invoice is rejected", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantID, createInvoiceReq())
		require.Equal(t, http.StatusCreated, w.Code)
		invoiceID := decodeData(t, w)["id"].(string)

		w = doJSON(t, engine, "POST", fmt.Sprintf("/api/v1/invoices/%s/send", invoiceID), tenantID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, "POST", fmt.Sprintf("/api/v1/invoices/%s/payments", invoiceID), tenantID, map[string]any{
			"amount":       "110",
			"method":       "CASH",
			"payment_date": "2026-08-01T00:00:00Z",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, "POST", fmt.Sprintf("/api/v1/invoices/%s/cancel", invoiceID), tenantID, map[string]any{
			"reason": "customer request",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestInvoiceHandler_ListPagination(t *testing.T) {
	engine := newInvoiceAPI(t)
	tenantID := uuid.New()

	for i := 0; i < 5; i++ {
		w := doJSON(t, engine, "POST", "/api/v1/invoices", tenantID, createInvoiceReq())
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, engine, "GET", "/api/v1/invoices?page=1&page_size=2", tenantID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
		Meta    *dto.Meta         `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
