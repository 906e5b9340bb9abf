package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"interview_booking_app_go/config"
	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// AuthResponse carries an access token and the signed-in user
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// appConfig returns the config injected by the server, or defaults in tests
func appConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get("config").(*config.Config); ok {
		return cfg
	}
	return &config.Config{Environment: "development", JWTExpiryHours: 24}
}

func issueToken(c echo.Context, user *models.User) (*AuthResponse, error) {
	cfg := appConfig(c)
	ttl := time.Duration(cfg.JWTExpiryHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, expiresAt, err := services.GenerateToken(cfg.JWTSecret, user, ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// RegisterHandler creates a candidate account and signs it in
func RegisterHandler(c echo.Context) error {
	var req services.RegisterInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.RegisterUser(db.DB, req, models.RoleUser)
	if err != nil {
		return err
	}

	if email, err := services.BuildWelcomeEmail(user.Email, user.FullName()); err == nil {
		services.SendEmailAsync(email, nil)
	}

	auditCtx := middleware.GetAuditContext(c)
	auditCtx.UserID, auditCtx.UserName, auditCtx.UserRole = user.ID, user.FullName(), user.Role
	services.LogAuditEvent(db.DB, auditCtx, services.AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: services.AuditResourceUser,
		ResourceID:   user.ID,
		Description:  "User registered",
	})

	resp, err := issueToken(c, user)
	if err != nil {
		return err
	}
	return created(c, "Account created", resp)
}

// LoginHandler exchanges credentials for a bearer token
func LoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.AuthenticateUser(db.DB, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAccountInactive) {
			services.Monitor.TrackFailedLogin(c.RealIP())
			services.LogSecurityEvent(db.DB, middleware.GetAuditContext(c), "LOGIN_FAILED",
				"failed login for "+strings.ToLower(strings.TrimSpace(req.Email)))
		}
		return err
	}

	auditCtx := middleware.GetAuditContext(c)
	auditCtx.UserID, auditCtx.UserName, auditCtx.UserRole = user.ID, user.FullName(), user.Role
	services.LogAuditEvent(db.DB, auditCtx, services.AuditEvent{
		Action:       models.AuditActionLogin,
		ResourceType: services.AuditResourceUser,
		ResourceID:   user.ID,
		Description:  "User logged in",
	})

	resp, err := issueToken(c, user)
	if err != nil {
		return err
	}
	return okMessage(c, "Logged in", resp)
}

// MeHandler returns the authenticated user
func MeHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return ok(c, user)
}

// ForgotPasswordHandler emails a reset link. The answer is the same whether
// or not the address belongs to an account.
func ForgotPasswordHandler(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reset, err := services.RequestPasswordReset(db.DB, req.Email)
	if err != nil {
		return err
	}
	if reset != nil {
		email, err := services.BuildPasswordResetEmail(reset.User.Email, reset.User.FullName(), reset.Token, reset.ExpiresAt)
		if err != nil {
			return err
		}
		services.SendEmailAsync(email, nil)

		auditCtx := middleware.GetAuditContext(c)
		auditCtx.UserID, auditCtx.UserName, auditCtx.UserRole = reset.User.ID, reset.User.FullName(), reset.User.Role
		services.LogSecurityEvent(db.DB, auditCtx, "PASSWORD_RESET_REQUESTED", "password reset link sent")
	}

	return okMessage(c, "If an account exists for that email, a reset link has been sent", nil)
}

// ResetPasswordHandler sets a new password from a reset token
func ResetPasswordHandler(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := services.ResetPassword(db.DB, req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) {
			services.LogSecurityEvent(db.DB, middleware.GetAuditContext(c), "PASSWORD_RESET_FAILED", "invalid or expired reset token")
		}
		return err
	}

	auditCtx := middleware.GetAuditContext(c)
	auditCtx.UserID, auditCtx.UserName, auditCtx.UserRole = user.ID, user.FullName(), user.Role
	services.LogSecurityEvent(db.DB, auditCtx, "PASSWORD_RESET_COMPLETED", "password reset")

	return okMessage(c, "Password has been reset", nil)
}
