package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("AuthenticatedUser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		c.Set(ContextKeyUser, &models.User{ID: "user-123", FirstName: "Test", LastName: "User", Role: models.RoleAdmin})

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Equal(t, "user-123", auditCtx.UserID)
		assert.Equal(t, "Test User", auditCtx.UserName)
		assert.Equal(t, models.RoleAdmin, auditCtx.UserRole)
		assert.Equal(t, "test-agent", auditCtx.UserAgent)
	})

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Empty(t, auditCtx.UserID)
		assert.NotEmpty(t, auditCtx.IPAddress)
	})
}

func TestGetAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("Exists", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		expected := services.AuditContext{UserID: "123"}
		c.Set(ContextKeyAuditContext, expected)
		assert.Equal(t, expected, GetAuditContext(c))
	})

	t.Run("NotExists", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		assert.Equal(t, services.AuditContext{}, GetAuditContext(c))
	})
}
