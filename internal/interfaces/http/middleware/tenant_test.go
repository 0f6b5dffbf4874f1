package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finstack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenantRouter(cfg TenantMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetTenantID(c))
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	return router
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New().String()

	t.Run("extracts tenant from header", func(t *testing.T) {
		router := tenantRouter(DefaultTenantConfig())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(TenantHeaderKey, tenantID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, w.Body.String())
	})

	t.Run("rejects request without tenant when required", func(t *testing.T) {
		router := tenantRouter(DefaultTenantConfig())

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})

	t.Run("rejects malformed tenant ID", func(t *testing.T) {
		router := tenantRouter(DefaultTenantConfig())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(TenantHeaderKey, "not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		router := tenantRouter(DefaultTenantConfig())

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", w.Body.String())
	})

	t.Run("allows missing tenant when optional", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = false
		router := tenantRouter(cfg)

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("extracts tenant from subdomain when enabled", func(t *testing.T) {
		subTenant := uuid.New().String()
		cfg := DefaultTenantConfig()
		cfg.SubdomainEnabled = true
		cfg.BaseDomain = "finstack.io"
		router := tenantRouter(cfg)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Host = subTenant + ".finstack.io"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, subTenant, w.Body.String())
	})

	t.Run("header takes precedence over subdomain", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.SubdomainEnabled = true
		cfg.BaseDomain = "finstack.io"
		router := tenantRouter(cfg)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Host = uuid.New().String() + ".finstack.io"
		req.Header.Set(TenantHeaderKey, tenantID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, tenantID, w.Body.String())
	})
}

func TestExtractTenantFromSubdomain(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		baseDomain string
		want       string
	}{
		{"simple subdomain", "acme.finstack.io", "finstack.io", "acme"},
		{"subdomain with port", "acme.finstack.io:8080", "finstack.io", "acme"},
		{"www is not a tenant", "www.finstack.io", "finstack.io", ""},
		{"bare base domain", "finstack.io", "finstack.io", ""},
		{"unrelated host", "example.com", "finstack.io", ""},
		{"nested subdomain takes first label", "acme.eu.finstack.io", "finstack.io", "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTenantFromSubdomain(tt.host, tt.baseDomain))
		})
	}
}

func TestGetTenantUUID(t *testing.T) {
	t.Run("returns parsed UUID", func(t *testing.T) {
		tenantID := uuid.New()
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(TenantIDKey, tenantID.String())

		got, err := GetTenantUUID(c)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("returns Nil when unset", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		got, err := GetTenantUUID(c)
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, got)
	})
}

func TestOptionalTenantMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(OptionalTenantMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetTenantID(c))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
