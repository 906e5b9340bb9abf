package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// CreateBookingInput carries a new booking request
type CreateBookingInput struct {
	UserID        *string `json:"-"`
	ClientName    string  `json:"client_name" validate:"required,max=200"`
	ClientEmail   string  `json:"client_email" validate:"required,email"`
	ClientPhone   string  `json:"client_phone" validate:"max=30"`
	InterviewDate string  `json:"interview_date" validate:"required"`
	InterviewTime string  `json:"interview_time" validate:"required"`
	InterviewType string  `json:"interview_type" validate:"omitempty,oneof=online in_person"`
	Notes         string  `json:"notes"`

	// AdminCreated bookings are confirmed immediately and skip the one-active-booking rule
	AdminCreated bool `json:"-"`
}

// UpdateBookingInput edits or reschedules a booking. Nil fields are left unchanged.
type UpdateBookingInput struct {
	ClientName    *string `json:"client_name" validate:"omitempty,max=200"`
	ClientEmail   *string `json:"client_email" validate:"omitempty,email"`
	ClientPhone   *string `json:"client_phone" validate:"omitempty,max=30"`
	InterviewDate *string `json:"interview_date"`
	InterviewTime *string `json:"interview_time"`
	InterviewType *string `json:"interview_type" validate:"omitempty,oneof=online in_person"`
	Notes         *string `json:"notes"`
}

// BookingFilters narrows admin booking listings
type BookingFilters struct {
	Status   string
	DateFrom string
	DateTo   string
	Search   string
	UserID   string
}

func (in *CreateBookingInput) normalize() error {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.ToLower(strings.TrimSpace(in.ClientEmail))
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	if in.InterviewType == "" {
		in.InterviewType = models.InterviewTypeOnline
	}

	if in.ClientName == "" {
		return fmt.Errorf("%w: client_name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.ClientEmail); err != nil {
		return fmt.Errorf("%w: client_email is invalid", ErrInvalidInput)
	}
	if !models.IsValidInterviewType(in.InterviewType) {
		return fmt.Errorf("%w: interview_type must be online or in_person", ErrInvalidInput)
	}
	if _, err := ParseDate(in.InterviewDate); err != nil {
		return fmt.Errorf("%w: interview_date: %v", ErrInvalidInput, err)
	}
	if _, err := ParseTimeOfDay(in.InterviewTime); err != nil {
		return fmt.Errorf("%w: interview_time: %v", ErrInvalidInput, err)
	}
	return nil
}

// checkBookable applies the day-level and past-time rules to a target date/time
func checkBookable(tx *gorm.DB, date, startTime string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	today := Today()
	if date < today {
		return time.Time{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, ReasonPastDate)
	}
	if date == today && startTime <= Now().Format(TimeLayout) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, ReasonPastTime)
	}

	blocked, err := GetBlockedDate(tx, date)
	if err != nil {
		return time.Time{}, err
	}
	if blocked != nil {
		if blocked.Reason != "" {
			return time.Time{}, fmt.Errorf("%w: %s", ErrDateBlocked, blocked.Reason)
		}
		return time.Time{}, ErrDateBlocked
	}

	if IsWeekend(day) && !WeekendBookingsAllowed() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, ReasonWeekend)
	}
	return day, nil
}

// reserveSeat locks the target slot and verifies it has a free seat.
// excludeBookingID keeps a rescheduled booking from counting against itself.
func reserveSeat(tx *gorm.DB, date, startTime, excludeBookingID string) (*models.TimeSlot, error) {
	day, err := checkBookable(tx, date, startTime)
	if err != nil {
		return nil, err
	}

	template, err := resolveSlotTemplate(tx, date, day, startTime)
	if err != nil {
		return nil, err
	}

	slot, err := ensureSlot(tx, template)
	if err != nil {
		return nil, err
	}

	var count int64
	q := tx.Model(&models.Booking{}).
		Where("interview_date = ? AND interview_time = ? AND status IN ?", date, startTime, models.ActiveBookingStatuses)
	if excludeBookingID != "" {
		q = q.Where("id <> ?", excludeBookingID)
	}
	if err := q.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if int(count) >= slot.MaxCapacity {
		return nil, ErrSlotFull
	}
	return slot, nil
}

// CreateBooking reserves a seat and records the booking atomically
func CreateBooking(db *gorm.DB, in CreateBookingInput) (*models.Booking, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var booking *models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if in.UserID != nil && !in.AdminCreated {
			active, err := hasActiveBooking(tx, *in.UserID)
			if err != nil {
				return err
			}
			if active {
				return ErrActiveBookingExists
			}
		}

		slot, err := reserveSeat(tx, in.InterviewDate, in.InterviewTime, "")
		if err != nil {
			return err
		}

		status := models.BookingStatusPending
		if in.AdminCreated {
			status = models.BookingStatusConfirmed
		}

		booking = &models.Booking{
			UserID:        in.UserID,
			SlotID:        slot.ID,
			ClientName:    in.ClientName,
			ClientEmail:   in.ClientEmail,
			ClientPhone:   optionalString(in.ClientPhone),
			InterviewDate: in.InterviewDate,
			InterviewTime: in.InterviewTime,
			InterviewType: in.InterviewType,
			Status:        status,
			Notes:         optionalString(strings.TrimSpace(in.Notes)),
		}
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		booking.Slot = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateBooking edits client details and optionally reschedules under the same capacity rules
func UpdateBooking(db *gorm.DB, id string, in UpdateBookingInput) (*models.Booking, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if !booking.IsEditable() {
			return ErrBookingNotEditable
		}

		updates := map[string]interface{}{}
		if in.ClientName != nil {
			name := strings.TrimSpace(*in.ClientName)
			if name == "" {
				return fmt.Errorf("%w: client_name is required", ErrInvalidInput)
			}
			updates["client_name"] = name
		}
		if in.ClientEmail != nil {
			email := strings.ToLower(strings.TrimSpace(*in.ClientEmail))
			if _, err := mail.ParseAddress(email); err != nil {
				return fmt.Errorf("%w: client_email is invalid", ErrInvalidInput)
			}
			updates["client_email"] = email
		}
		if in.ClientPhone != nil {
			updates["client_phone"] = optionalString(strings.TrimSpace(*in.ClientPhone))
		}
		if in.InterviewType != nil {
			if !models.IsValidInterviewType(*in.InterviewType) {
				return fmt.Errorf("%w: interview_type must be online or in_person", ErrInvalidInput)
			}
			updates["interview_type"] = *in.InterviewType
		}
		if in.Notes != nil {
			updates["notes"] = optionalString(strings.TrimSpace(*in.Notes))
		}

		newDate, newTime := booking.InterviewDate, booking.InterviewTime
		if in.InterviewDate != nil {
			newDate = *in.InterviewDate
		}
		if in.InterviewTime != nil {
			newTime = *in.InterviewTime
		}
		if newDate != booking.InterviewDate || newTime != booking.InterviewTime {
			if _, err := ParseTimeOfDay(newTime); err != nil {
				return fmt.Errorf("%w: interview_time: %v", ErrInvalidInput, err)
			}
			slot, err := reserveSeat(tx, newDate, newTime, booking.ID)
			if err != nil {
				return err
			}
			updates["interview_date"] = newDate
			updates["interview_time"] = newTime
			updates["slot_id"] = slot.ID
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&booking).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return GetBookingByID(db, id)
}

// CancelBooking marks a booking cancelled. The row is kept and its seat is released.
func CancelBooking(db *gorm.DB, id, reason string) (*models.Booking, error) {
	return transitionBooking(db, id, models.BookingStatusCancelled, reason)
}

// UpdateBookingStatus applies an admin status change validated against the transition table
func UpdateBookingStatus(db *gorm.DB, id, status string) (*models.Booking, error) {
	if !models.IsValidBookingStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return transitionBooking(db, id, status, "")
}

func transitionBooking(db *gorm.DB, id, status, reason string) (*models.Booking, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		// Re-applying the current status is a no-op
		if booking.Status == status {
			return nil
		}
		if !models.CanTransitionBooking(booking.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
		}

		updates := map[string]interface{}{"status": status}
		if status == models.BookingStatusCancelled {
			now := time.Now()
			updates["cancelled_at"] = &now
			if reason = strings.TrimSpace(reason); reason != "" {
				updates["cancellation_reason"] = reason
			}
		}
		return tx.Model(&booking).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return GetBookingByID(db, id)
}

// DeleteBooking permanently removes a booking that has no documents attached
func DeleteBooking(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var docs int64
		if err := tx.Model(&models.Document{}).Where("booking_id = ?", id).Count(&docs).Error; err != nil {
			return err
		}
		if docs > 0 {
			return ErrBookingHasDocuments
		}

		res := tx.Delete(&models.Booking{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotFound
		}
		return nil
	})
}

// GetBookingByID fetches a single booking with its slot
func GetBookingByID(db *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	err := db.Preload("Slot").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// GetUserBookings fetches all bookings of a user, newest interview first
func GetUserBookings(db *gorm.DB, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := db.Preload("Slot").
		Where("user_id = ?", userID).
		Order("interview_date desc, interview_time desc").
		Find(&bookings).Error
	return bookings, err
}

// ListBookings returns a filtered, paginated page of bookings
func ListBookings(db *gorm.DB, filters BookingFilters, page, pageSize int) ([]models.Booking, int64, error) {
	query := filteredBookings(db, filters)

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

	var bookings []models.Booking
	err := query.Preload("User").
		Order("interview_date desc, interview_time desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookings).Error
	return bookings, total, err
}

func filteredBookings(db *gorm.DB, filters BookingFilters) *gorm.DB {
	query := db.Model(&models.Booking{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.DateFrom != "" {
		query = query.Where("interview_date >= ?", filters.DateFrom)
	}
	if filters.DateTo != "" {
		query = query.Where("interview_date <= ?", filters.DateTo)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(client_name) LIKE ? OR LOWER(client_email) LIKE ?", pattern, pattern)
	}
	return query
}

// hasActiveBooking reports whether the user holds an active booking today or later
func hasActiveBooking(tx *gorm.DB, userID string) (bool, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("user_id = ? AND status IN ? AND interview_date >= ?", userID, models.ActiveBookingStatuses, Today()).
		Count(&count).Error
	return count > 0, err
}

// GetBookingsDueForReminder returns confirmed bookings on date that have not been reminded
func GetBookingsDueForReminder(db *gorm.DB, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := db.Where("interview_date = ? AND status = ? AND reminder_sent_at IS NULL", date, models.BookingStatusConfirmed).
		Order("interview_time").
		Find(&bookings).Error
	return bookings, err
}

// MarkReminderSent records that the reminder for a booking went out
func MarkReminderSent(db *gorm.DB, id string) error {
	return db.Model(&models.Booking{}).Where("id = ?", id).Update("reminder_sent_at", time.Now()).Error
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
