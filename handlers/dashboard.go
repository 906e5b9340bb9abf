package handlers

import (
	"strconv"
	"time"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// UserDashboardHandler returns the signed-in user's upcoming booking and history
func UserDashboardHandler(c echo.Context) error {
	dash, err := services.GetUserDashboard(db.DB, middleware.GetCurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, dash)
}

// AdminStatsHandler returns the admin dashboard summary
func AdminStatsHandler(c echo.Context) error {
	stats, err := services.GetAdminStats(db.DB)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

// AdminAuditLogsHandler lists audit log entries with filters
func AdminAuditLogsHandler(c echo.Context) error {
	filters := services.AuditLogFilters{
		UserID:       c.QueryParam("user_id"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   c.QueryParam("resource_id"),
		Action:       c.QueryParam("action"),
		SearchQuery:  c.QueryParam("search"),
	}
	if from, err := services.ParseDate(c.QueryParam("date_from")); err == nil {
		filters.DateFrom = from
	}
	if to, err := services.ParseDate(c.QueryParam("date_to")); err == nil {
		filters.DateTo = to.Add(24*time.Hour - time.Nanosecond)
	}

	page, size := pageParams(c, 50, 200)
	logs, total, err := services.ListAuditLogs(db.DB, filters, page, size)
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return paginated(c, logs, page, size, total)
}

// AdminSecurityAlertsHandler lists recent failed-login alerts
func AdminSecurityAlertsHandler(c echo.Context) error {
	return ok(c, services.Monitor.GetRecentAlerts())
}
