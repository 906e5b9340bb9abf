package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// RegisterInput creates a user account
type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Phone     string `json:"phone" validate:"max=30"`
}

// ProfileInput edits the caller's profile. Nil fields are left unchanged.
type ProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
}

// UserFilters narrows admin user listings
type UserFilters struct {
	Role     string
	IsActive *bool
	Search   string
}

// RegisterUser creates a user with the given role after password policy checks
func RegisterUser(db *gorm.DB, in RegisterInput, role string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: first_name, last_name and email are required", ErrInvalidInput)
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  hash,
		Phone:     optionalString(strings.TrimSpace(in.Phone)),
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// timingHash is compared against when the email is unknown so both paths cost one bcrypt check
var timingHash, _ = HashPassword("timing-equalization-password")

// AuthenticateUser checks credentials and records the login time
func AuthenticateUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			CheckPassword(password, timingHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return &user, nil
}

// GetUserByID fetches a user that has not been deleted
func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns a filtered, paginated page of users
func ListUsers(db *gorm.DB, filters UserFilters, page, pageSize int) ([]models.User, int64, error) {
	query := db.Model(&models.User{})
	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var users []models.User
	err := query.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	return users, total, err
}

// SetUserActive activates or deactivates an account
func SetUserActive(db *gorm.DB, actorID, id string, active bool) (*models.User, error) {
	if actorID == id && !active {
		return nil, ErrCannotModifySelf
	}
	user, err := GetUserByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsActive = active
	return user, nil
}

// DeleteUser soft-deletes a user and cancels their upcoming active bookings
func DeleteUser(db *gorm.DB, actorID, id string) error {
	if actorID == id {
		return ErrCannotModifySelf
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		now := time.Now()
		err := tx.Model(&models.Booking{}).
			Where("user_id = ? AND status IN ? AND interview_date >= ?", id, models.ActiveBookingStatuses, Today()).
			Updates(map[string]interface{}{
				"status":              models.BookingStatusCancelled,
				"cancelled_at":        now,
				"cancellation_reason": "account deleted",
			}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel user bookings: %w", err)
		}

		return tx.Delete(&user).Error
	})
}

// UpdateProfile edits the caller's own profile
func UpdateProfile(db *gorm.DB, id string, in ProfileInput) (*models.User, error) {
	user, err := GetUserByID(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FirstName != nil {
		if v := strings.TrimSpace(*in.FirstName); v != "" {
			updates["first_name"] = v
		}
	}
	if in.LastName != nil {
		if v := strings.TrimSpace(*in.LastName); v != "" {
			updates["last_name"] = v
		}
	}
	if in.Phone != nil {
		updates["phone"] = optionalString(strings.TrimSpace(*in.Phone))
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return GetUserByID(db, id)
}

// ChangePassword replaces the password after verifying the current one
func ChangePassword(db *gorm.DB, id, current, next string) error {
	user, err := GetUserByID(db, id)
	if err != nil {
		return err
	}
	if !CheckPassword(current, user.Password) {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return db.Model(user).Update("password", hash).Error
}

// GetActiveRecipients returns every active user as a bulk email recipient
func GetActiveRecipients(db *gorm.DB, role string) ([]models.EmailRecipient, error) {
	query := db.Model(&models.User{}).Where("is_active = ?", true)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]models.EmailRecipient, 0, len(users))
	for _, u := range users {
		out = append(out, models.EmailRecipient{
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			UserID:    u.ID,
		})
	}
	return out, nil
}
