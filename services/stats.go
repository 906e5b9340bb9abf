package services

import (
	"errors"
	"fmt"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// AdminStats is the admin dashboard summary
type AdminStats struct {
	Users struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
		Admins int64 `json:"admins"`
	} `json:"users"`

	Bookings struct {
		Total    int64            `json:"total"`
		Active   int64            `json:"active"`
		Today    int64            `json:"today"`
		Upcoming int64            `json:"upcoming_7_days"`
		ByStatus map[string]int64 `json:"by_status"`
	} `json:"bookings"`

	TodaySlots struct {
		Date      string `json:"date"`
		Slots     int    `json:"slots"`
		Available int    `json:"available"`
		Blocked   bool   `json:"blocked"`
	} `json:"today_slots"`

	Documents int64 `json:"documents"`

	Emails struct {
		Total  int64 `json:"total"`
		Sent   int64 `json:"sent"`
		Failed int64 `json:"failed"`
		Opened int64 `json:"opened"`
	} `json:"emails"`
}

// UserDashboard is what a signed-in candidate sees first
type UserDashboard struct {
	UpcomingBooking *models.Booking  `json:"upcoming_booking"`
	Bookings        []models.Booking `json:"bookings"`
	DocumentCount   int64            `json:"document_count"`
}

// GetAdminStats aggregates the admin dashboard. Pending and confirmed
// bookings both count as active.
func GetAdminStats(db *gorm.DB) (*AdminStats, error) {
	stats := &AdminStats{}

	if err := db.Model(&models.User{}).Count(&stats.Users.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.Users.Active).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&stats.Users.Admins).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	stats.Bookings.ByStatus = map[string]int64{}
	for _, r := range rows {
		stats.Bookings.ByStatus[r.Status] = r.Count
		stats.Bookings.Total += r.Count
	}
	for _, s := range models.ActiveBookingStatuses {
		stats.Bookings.Active += stats.Bookings.ByStatus[s]
	}

	today := Now()
	todayStr := today.Format(DateLayout)
	weekAhead := today.AddDate(0, 0, 7).Format(DateLayout)

	if err := db.Model(&models.Booking{}).
		Where("interview_date = ? AND status IN ?", todayStr, models.ActiveBookingStatuses).
		Count(&stats.Bookings.Today).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Booking{}).
		Where("interview_date >= ? AND interview_date <= ? AND status IN ?", todayStr, weekAhead, models.ActiveBookingStatuses).
		Count(&stats.Bookings.Upcoming).Error; err != nil {
		return nil, err
	}

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: todayStr})
	if err != nil {
		return nil, err
	}
	stats.TodaySlots.Date = todayStr
	stats.TodaySlots.Slots = len(day.Slots)
	stats.TodaySlots.Available = day.AvailableCount()
	stats.TodaySlots.Blocked = day.Blocked

	if err := db.Model(&models.Document{}).Count(&stats.Documents).Error; err != nil {
		return nil, err
	}

	emails, err := GetEmailStatistics(db)
	if err != nil {
		return nil, err
	}
	stats.Emails.Total = emails.Total
	stats.Emails.Sent = emails.Sent
	stats.Emails.Failed = emails.Failed
	stats.Emails.Opened = emails.Opened

	return stats, nil
}

// GetUserDashboard returns the user's next active booking, history and document count
func GetUserDashboard(db *gorm.DB, userID string) (*UserDashboard, error) {
	dash := &UserDashboard{}

	var upcoming models.Booking
	err := db.Preload("Slot").
		Where("user_id = ? AND status IN ? AND interview_date >= ?", userID, models.ActiveBookingStatuses, Today()).
		Order("interview_date asc, interview_time asc").
		First(&upcoming).Error
	switch {
	case err == nil:
		dash.UpcomingBooking = &upcoming
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if dash.Bookings, err = GetUserBookings(db, userID); err != nil {
		return nil, err
	}
	if dash.DocumentCount, err = CountUserDocuments(db, userID); err != nil {
		return nil, err
	}
	return dash, nil
}
