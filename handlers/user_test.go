package handlers

import (
	"net/http"
	"testing"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUserHandlers(t *testing.T) {
	testDB := setupTestDB(t)
	e := newTestServer(t)
	addConfig(t, testDB, 1, "09:00", "10:00", 2)

	admin := createUser(t, testDB, "admin@example.com", models.RoleAdmin)
	user := createUser(t, testDB, "candidate@example.com", models.RoleUser)
	token := tokenFor(t, admin)

	rec := doRequest(t, e, http.MethodPost, "/api/bookings/create", bookingBody("2025-03-10", "09:00", user.Email), tokenFor(t, user))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking models.Booking
	decodeResponse(t, rec, &booking)

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, "/api/admin/users?role=user", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var page struct {
			Items []models.User `json:"items"`
			Total int64         `json:"total"`
		}
		decodeResponse(t, rec, &page)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, user.ID, page.Items[0].ID)

		rec = doRequest(t, e, http.MethodGet, "/api/admin/users?search=ADMIN", nil, token)
		decodeResponse(t, rec, &page)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("Get", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, "/api/admin/users/"+user.ID, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail struct {
			User     models.User      `json:"user"`
			Bookings []models.Booking `json:"bookings"`
		}
		decodeResponse(t, rec, &detail)
		assert.Equal(t, user.Email, detail.User.Email)
		assert.Len(t, detail.Bookings, 1)

		rec = doRequest(t, e, http.MethodGet, "/api/admin/users/missing", nil, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("CreateAdmin", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/admin/users/create-admin", map[string]string{
			"first_name": "Second",
			"last_name":  "Admin",
			"email":      "second@example.com",
			"password":   testPassword,
		}, token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created models.User
		decodeResponse(t, rec, &created)
		assert.Equal(t, models.RoleAdmin, created.Role)
	})

	t.Run("CannotDeactivateSelf", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPatch, "/api/admin/users/"+admin.ID+"/status",
			map[string]bool{"is_active": false}, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Deactivate", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPatch, "/api/admin/users/"+user.ID+"/status",
			map[string]bool{"is_active": false}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// Existing tokens stop working for inactive accounts
		rec = doRequest(t, e, http.MethodGet, "/api/auth/me", nil, tokenFor(t, user))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(t, e, http.MethodPatch, "/api/admin/users/"+user.ID+"/status",
			map[string]bool{"is_active": true}, token)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("StatusRequired", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPatch, "/api/admin/users/"+user.ID+"/status",
			map[string]string{}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodDelete, "/api/admin/users/"+admin.ID, nil, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, e, http.MethodDelete, "/api/admin/users/"+user.ID, nil, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var reloaded models.Booking
		require.NoError(t, testDB.First(&reloaded, "id = ?", booking.ID).Error)
		assert.Equal(t, models.BookingStatusCancelled, reloaded.Status)

		rec = doRequest(t, e, http.MethodGet, "/api/admin/users/"+user.ID, nil, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
