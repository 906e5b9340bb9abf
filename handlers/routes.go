package handlers

import (
	"interview_booking_app_go/config"
	"interview_booking_app_go/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the JSON API on e
func RegisterRoutes(e *echo.Echo, cfg *config.Config) {
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	audit := middleware.AuditContext()

	api := e.Group("/api")

	// Public
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler, middleware.RegisterRateLimiter.Middleware(), audit)
	auth.POST("/login", LoginHandler, middleware.LoginRateLimiter.Middleware(), audit)
	auth.GET("/me", MeHandler, requireAuth)
	auth.POST("/forgot-password", ForgotPasswordHandler, middleware.PasswordResetRateLimiter.Middleware(), audit)
	auth.POST("/reset-password", ResetPasswordHandler, middleware.PasswordResetRateLimiter.Middleware(), audit)

	api.GET("/emails/track/:id", TrackEmailOpenHandler)

	bookings := api.Group("/bookings")
	bookings.GET("/available-slots", AvailableSlotsHandler, optionalAuth)
	bookings.POST("/create", CreateBookingHandler, middleware.PublicBookingRateLimiter.Middleware(), optionalAuth, audit)

	// Authenticated users
	bookings.GET("/my", MyBookingsHandler, requireAuth)
	bookings.GET("/:id", GetBookingHandler, requireAuth)
	bookings.PUT("/:id", UpdateBookingHandler, requireAuth, audit)
	bookings.PUT("/:id/cancel", CancelBookingHandler, requireAuth, audit)
	bookings.GET("/:id/confirmation.pdf", BookingConfirmationPDFHandler, requireAuth)

	user := api.Group("", requireAuth, audit)
	user.GET("/dashboard", UserDashboardHandler)
	user.GET("/profile", GetProfileHandler)
	user.PUT("/profile", UpdateProfileHandler)
	user.PUT("/profile/password", ChangePasswordHandler)
	user.GET("/documents", ListDocumentsHandler)
	user.POST("/documents", UploadDocumentHandler)
	user.GET("/documents/:id/download", DownloadDocumentHandler)
	user.DELETE("/documents/:id", DeleteDocumentHandler)

	// Administrators
	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin(), audit)

	admin.GET("/users", AdminListUsersHandler)
	admin.POST("/users/create-admin", AdminCreateAdminHandler)
	admin.GET("/users/:id", AdminGetUserHandler)
	admin.PATCH("/users/:id/status", AdminUpdateUserStatusHandler)
	admin.DELETE("/users/:id", AdminDeleteUserHandler)

	admin.GET("/bookings", AdminListBookingsHandler)
	admin.POST("/bookings", AdminCreateBookingHandler)
	admin.GET("/bookings/export", AdminExportBookingsHandler)
	admin.PATCH("/bookings/:id/status", AdminUpdateBookingStatusHandler)
	admin.DELETE("/bookings/:id", AdminDeleteBookingHandler)

	admin.GET("/time-slots", ListTimeSlotsHandler)
	admin.POST("/time-slots", CreateTimeSlotHandler)
	admin.POST("/time-slots/generate", GenerateTimeSlotsHandler)
	admin.GET("/time-slots/reconcile", ReconcileTimeSlotsHandler)
	admin.POST("/time-slots/import", ImportTimeSlotsHandler)
	admin.GET("/time-slots/import/template", TimeSlotImportTemplateHandler)
	admin.PUT("/time-slots/:id", UpdateTimeSlotHandler)
	admin.DELETE("/time-slots/:id", DeleteTimeSlotHandler)

	admin.GET("/time-slot-configs", ListTimeSlotConfigsHandler)
	admin.POST("/time-slot-configs", CreateTimeSlotConfigHandler)
	admin.PUT("/time-slot-configs/:id", UpdateTimeSlotConfigHandler)
	admin.DELETE("/time-slot-configs/:id", DeleteTimeSlotConfigHandler)

	admin.GET("/blocked-dates", ListBlockedDatesHandler)
	admin.POST("/blocked-dates", CreateBlockedDateHandler)
	admin.DELETE("/blocked-dates/:id", DeleteBlockedDateHandler)

	admin.GET("/dashboard/stats", AdminStatsHandler)
	admin.GET("/audit-logs", AdminAuditLogsHandler)
	admin.GET("/security/alerts", AdminSecurityAlertsHandler)

	emails := api.Group("/emails", requireAuth, middleware.RequireAdmin(), audit)
	emails.GET("/templates", ListEmailTemplatesHandler)
	emails.POST("/templates", CreateEmailTemplateHandler)
	emails.GET("/templates/:id", GetEmailTemplateHandler)
	emails.PUT("/templates/:id", UpdateEmailTemplateHandler)
	emails.DELETE("/templates/:id", DeleteEmailTemplateHandler)
	emails.POST("/templates/:id/test", TestEmailTemplateHandler)
	emails.POST("/send", SendEmailHandler)
	emails.POST("/bulk", BulkEmailHandler)
	emails.GET("/campaigns/:id", GetCampaignHandler)
	emails.POST("/campaigns/:id/cancel", CancelCampaignHandler)
	emails.POST("/campaigns/:id/resume", ResumeCampaignHandler)
	emails.GET("/logs", ListEmailLogsHandler)
	emails.GET("/statistics", EmailStatisticsHandler)
}
