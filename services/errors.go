package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Input validation
var ErrInvalidInput = errors.New("invalid input")

// Scheduling errors
var (
	ErrSlotNotFound        = errors.New("time slot not found")
	ErrSlotExists          = errors.New("a time slot already exists at this date and time")
	ErrSlotHasBookings     = errors.New("time slot has bookings and cannot be deleted")
	ErrSlotUnavailable     = errors.New("time slot is not available")
	ErrSlotFull            = errors.New("time slot is fully booked")
	ErrDateBlocked         = errors.New("date is blocked for interviews")
	ErrDateAlreadyBlocked  = errors.New("date is already blocked")
	ErrBlockedDateNotFound = errors.New("blocked date not found")
	ErrConfigNotFound      = errors.New("time slot config not found")
	ErrConfigOverlap       = errors.New("time slot config overlaps an existing config for this day")
)

// Booking errors
var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrActiveBookingExists = errors.New("you already have an active booking")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrBookingNotEditable  = errors.New("booking can no longer be modified")
	ErrBookingHasDocuments = errors.New("booking has documents attached and cannot be deleted")
)

// User and auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrCannotModifySelf   = errors.New("administrators cannot deactivate or delete their own account")
	ErrResetTokenInvalid  = errors.New("password reset link is invalid or has expired")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
)

// Email errors
var (
	ErrTemplateNotFound  = errors.New("email template not found")
	ErrTemplateNameTaken = errors.New("an email template with this name already exists")
	ErrTemplateInactive  = errors.New("email template is inactive")
	ErrCampaignNotFound  = errors.New("email campaign not found")
	ErrCampaignFinished  = errors.New("email campaign has already finished")
	ErrCampaignRunning   = errors.New("email campaign is already running")
	ErrNoRecipients      = errors.New("at least one recipient is required")
)

// Document errors
var ErrDocumentNotFound = errors.New("document not found")

// isUniqueViolation detects unique constraint failures across drivers
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// libsql returns untyped errors
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
