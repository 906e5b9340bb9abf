package handlers

import (
	"strconv"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// UserStatusRequest is the body of PATCH /api/admin/users/:id/status
type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AdminListUsersHandler lists users with optional role, active and search filters
func AdminListUsersHandler(c echo.Context) error {
	filters := services.UserFilters{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
	}
	if v := c.QueryParam("is_active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filters.IsActive = &active
		}
	}

	page, size := pageParams(c, 20, 100)
	users, total, err := services.ListUsers(db.DB, filters, page, size)
	if err != nil {
		return err
	}
	return paginated(c, users, page, size, total)
}

// AdminGetUserHandler returns one user with their bookings
func AdminGetUserHandler(c echo.Context) error {
	user, err := services.GetUserByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	bookings, err := services.GetUserBookings(db.DB, user.ID)
	if err != nil {
		return err
	}
	return ok(c, map[string]interface{}{
		"user":     user,
		"bookings": bookings,
	})
}

// AdminCreateAdminHandler creates another administrator account
func AdminCreateAdminHandler(c echo.Context) error {
	var req services.RegisterInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.RegisterUser(db.DB, req, models.RoleAdmin)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceUser, user.ID, "Administrator created: "+user.Email)
	return created(c, "Administrator created", user)
}

// AdminUpdateUserStatusHandler activates or deactivates an account
func AdminUpdateUserStatusHandler(c echo.Context) error {
	var req UserStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	actor := middleware.GetCurrentUser(c)
	user, err := services.SetUserActive(db.DB, actor.ID, c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       models.AuditActionStatusChange,
		ResourceType: services.AuditResourceUser,
		ResourceID:   user.ID,
		NewValues:    map[string]bool{"is_active": user.IsActive},
	})
	return okMessage(c, "User status updated", user)
}

// AdminDeleteUserHandler soft-deletes a user and cancels their upcoming bookings
func AdminDeleteUserHandler(c echo.Context) error {
	actor := middleware.GetCurrentUser(c)
	id := c.Param("id")
	if err := services.DeleteUser(db.DB, actor.ID, id); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceUser, id, "User deleted")
	return okMessage(c, "User deleted", nil)
}
