package middleware

import (
	"net/http"
	"strings"

	"interview_booking_app_go/db"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeyClaims is the context key for the parsed token claims
	ContextKeyClaims = "claims"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c echo.Context) (string, bool) {
	parts := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// authenticate resolves the bearer token to an active user
func authenticate(c echo.Context, secret string) (*models.User, *services.Claims, error) {
	token, ok := bearerToken(c)
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "Missing or malformed authorization header")
	}

	claims, err := services.ParseToken(secret, token)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	// Re-read the user so deactivation and role changes apply to live tokens
	user, err := services.GetUserByID(db.DB, claims.Subject)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	if !user.IsActive {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
	}
	return user, claims, nil
}

// RequireAuth is middleware that requires a valid bearer token
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, claims, err := authenticate(c, secret)
			if err != nil {
				return err
			}
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through. A present but invalid token is rejected.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			user, claims, err := authenticate(c, secret)
			if err != nil {
				return err
			}
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// RequireAdmin is RequireRole(models.RoleAdmin)
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CanAccessBooking reports whether the current user may read or change a booking.
// Admins can access every booking, users only their own.
func CanAccessBooking(c echo.Context, booking *models.Booking) bool {
	user := GetCurrentUser(c)
	if user == nil || booking == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return booking.UserID != nil && *booking.UserID == user.ID
}
