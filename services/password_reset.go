package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

const (
	// ResetTokenLength is the number of random bytes in a reset token
	ResetTokenLength = 32
	// ResetTokenExpiration is how long a reset link stays valid
	ResetTokenExpiration = time.Hour
)

// PasswordReset is an issued reset link. Token is the plain value that goes
// into the email and is never persisted.
type PasswordReset struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset issues a reset token for an active account. Unknown
// and inactive emails return nil without an error so callers cannot tell
// which addresses are registered.
func RequestPasswordReset(db *gorm.DB, email string) (*PasswordReset, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("password reset requested for unknown email")
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		slog.Info("password reset requested for inactive user", "user_id", user.ID)
		return nil, nil
	}

	raw := make([]byte, ResetTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	record := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: Now().Add(ResetTokenExpiration),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		// one outstanding link per user
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	return &PasswordReset{User: &user, Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// ResetPassword consumes a reset token and sets a new password
func ResetPassword(db *gorm.DB, token, newPassword string) (*models.User, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if token == "" {
		return nil, ErrResetTokenInvalid
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var record models.PasswordResetToken
		if err := tx.Where("token_hash = ?", hashResetToken(token)).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if record.IsExpired(Now()) {
			if err := tx.Delete(&record).Error; err != nil {
				return err
			}
			return ErrResetTokenInvalid
		}

		if err := tx.First(&user, "id = ?", record.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if !user.IsActive {
			return ErrAccountInactive
		}

		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredResetTokens deletes reset tokens past their expiry
func CleanupExpiredResetTokens(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at <= ?", Now()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("cleaned up expired password reset tokens", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
