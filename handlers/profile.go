package handlers

import (
	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// ChangePasswordRequest is the body of PUT /api/profile/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// GetProfileHandler returns the current user's profile
func GetProfileHandler(c echo.Context) error {
	user, err := services.GetUserByID(db.DB, middleware.GetCurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// UpdateProfileHandler edits the current user's name and phone
func UpdateProfileHandler(c echo.Context) error {
	var req services.ProfileInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.UpdateProfile(db.DB, middleware.GetCurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionUpdate, services.AuditResourceUser, user.ID, "Profile updated")
	return okMessage(c, "Profile updated", user)
}

// ChangePasswordHandler replaces the current user's password
func ChangePasswordHandler(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user := middleware.GetCurrentUser(c)
	if err := services.ChangePassword(db.DB, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	services.LogSecurityEvent(db.DB, middleware.GetAuditContext(c), "PASSWORD_CHANGED", "password changed for "+user.Email)
	return okMessage(c, "Password changed", nil)
}
