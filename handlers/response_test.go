package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"wrapped slot full", fmt.Errorf("reserve: %w", services.ErrSlotFull), http.StatusConflict, "reserve: time slot is fully booked"},
		{"not found", services.ErrBookingNotFound, http.StatusNotFound, services.ErrBookingNotFound.Error()},
		{"invalid input", fmt.Errorf("%w: bad date", services.ErrInvalidInput), http.StatusBadRequest, ""},
		{"inactive account", services.ErrAccountInactive, http.StatusForbidden, services.ErrAccountInactive.Error()},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, "slow down"},
		{"unknown error", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			HTTPErrorHandler(tt.err, c)

			require.Equal(t, tt.code, rec.Code)
			resp := decodeResponse(t, rec, nil)
			assert.False(t, resp.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error)
			}
			assert.Equal(t, http.StatusText(tt.code), resp.Message)
		})
	}
}

func TestHTTPErrorHandlerValidation(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"max=3"`
	}
	err := NewValidator().Validate(&payload{Email: "nope", Name: "too long"})
	require.Error(t, err)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	HTTPErrorHandler(err, c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, map[string]string{
		"email": "must be a valid email address",
		"name":  "must be at most 3",
	}, resp.Errors)
}

func TestPageParams(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil), httptest.NewRecorder())
	page, size := pageParams(c, 20, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=-1", nil), httptest.NewRecorder())
	page, size = pageParams(c, 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
