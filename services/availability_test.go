package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-03-03, 08:00 UTC
var beforeMarch10 = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

func TestCreateDefaultTimeSlotConfigs(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, CreateDefaultTimeSlotConfigs(db))
	configs, err := GetTimeSlotConfigs(db)
	assert.NoError(t, err)
	// 5 days * 2 windows per day
	assert.Len(t, configs, 10)

	// Seeding twice does not duplicate
	require.NoError(t, CreateDefaultTimeSlotConfigs(db))
	configs, _ = GetTimeSlotConfigs(db)
	assert.Len(t, configs, 10)
}

func TestGetAvailableSlots_DerivedFromConfig(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "12:00", 60, 2)

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)

	assert.Equal(t, "Monday", day.Weekday)
	assert.False(t, day.Blocked)
	require.Len(t, day.Slots, 3)
	assert.Equal(t, "09:00", day.Slots[0].StartTime)
	assert.Equal(t, "10:00", day.Slots[0].EndTime)
	assert.Equal(t, "11:00", day.Slots[2].StartTime)
	for _, s := range day.Slots {
		assert.True(t, s.Available)
		assert.Equal(t, 2, s.AvailableSpots)
		assert.Nil(t, s.SlotID)
	}
}

func TestGetAvailableSlots_Weekend(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, int(time.Saturday), "09:00", "11:00", 60, 1)

	// 2025-03-08 is a Saturday
	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-08"})
	require.NoError(t, err)
	assert.Equal(t, ReasonWeekend, day.Reason)
	assert.Equal(t, 0, day.AvailableCount())
	for _, s := range day.Slots {
		assert.Equal(t, ReasonWeekend, s.Reason)
	}

	t.Run("weekend bookings enabled", func(t *testing.T) {
		require.NoError(t, ConfigureScheduling("UTC", true))
		day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-08"})
		require.NoError(t, err)
		assert.Equal(t, 2, day.AvailableCount())
	})
}

func TestGetAvailableSlots_BlockedDate(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "12:00", 60, 1)

	_, err := CreateBlockedDate(db, "2025-03-10", "Company offsite", nil)
	require.NoError(t, err)

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.True(t, day.Blocked)
	assert.Equal(t, "Company offsite", day.Reason)
	assert.Len(t, day.Slots, 3)
	assert.Equal(t, 0, day.AvailableCount())
	for _, s := range day.Slots {
		assert.Equal(t, ReasonBlocked, s.Reason)
	}

	// Blocking the same date twice conflicts
	_, err = CreateBlockedDate(db, "2025-03-10", "again", nil)
	assert.ErrorIs(t, err, ErrDateAlreadyBlocked)
}

func TestGetAvailableSlots_PastDateAndTime(t *testing.T) {
	db := setupTestDB(t)
	addConfig(t, db, 1, "09:00", "12:00", 60, 1)

	t.Run("past date", func(t *testing.T) {
		useClock(t, time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), false)
		day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
		require.NoError(t, err)
		assert.Equal(t, ReasonPastDate, day.Reason)
		assert.Equal(t, 0, day.AvailableCount())
	})

	t.Run("past time today", func(t *testing.T) {
		useClock(t, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), false)
		day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
		require.NoError(t, err)
		require.Len(t, day.Slots, 3)
		assert.Equal(t, ReasonPastTime, day.Slots[0].Reason)
		assert.False(t, day.Slots[0].Available)
		assert.True(t, day.Slots[1].Available)
		assert.True(t, day.Slots[2].Available)
	})
}

func TestGetAvailableSlots_TimezoneDecidesToday(t *testing.T) {
	db := setupTestDB(t)
	addConfig(t, db, 1, "09:00", "12:00", 60, 1)

	// 2025-03-10 02:00 UTC is still Sunday 2025-03-09 in New York
	restore := SetNowFunc(func() time.Time { return time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC) })
	defer restore()
	require.NoError(t, ConfigureScheduling("America/New_York", false))
	defer ConfigureScheduling("UTC", false)

	assert.Equal(t, "2025-03-09", Today())
	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 3, day.AvailableCount())
}

func TestGetAvailableSlots_ExplicitRowsOverrideConfig(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "12:00", 60, 1)

	// Inactive explicit row removes the derived 10:00 slot
	_, err := CreateTimeSlot(db, TimeSlotInput{Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00", MaxCapacity: 1, IsActive: boolPtr(false)})
	require.NoError(t, err)
	// Explicit row at 09:00 raises its capacity
	_, err = CreateTimeSlot(db, TimeSlotInput{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00", MaxCapacity: 4})
	require.NoError(t, err)
	// Extra explicit evening slot
	_, err = CreateTimeSlot(db, TimeSlotInput{Date: "2025-03-10", StartTime: "18:00", EndTime: "18:30", MaxCapacity: 1})
	require.NoError(t, err)

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)

	var starts []string
	for _, s := range day.Slots {
		starts = append(starts, s.StartTime)
	}
	assert.Equal(t, []string{"09:00", "11:00", "18:00"}, starts)

	nine, ok := day.Find("09:00")
	require.True(t, ok)
	assert.Equal(t, 4, nine.MaxCapacity)
	assert.NotNil(t, nine.SlotID)
}

func TestGetAvailableSlots_SpotsNeverNegative(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)

	slot, err := CreateTimeSlot(db, TimeSlotInput{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00", MaxCapacity: 1})
	require.NoError(t, err)

	// Legacy data: more active bookings than capacity
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Booking{
			SlotID:        slot.ID,
			ClientName:    "Legacy",
			ClientEmail:   "legacy@example.com",
			InterviewDate: "2025-03-10",
			InterviewTime: "09:00",
			InterviewType: models.InterviewTypeOnline,
			Status:        models.BookingStatusConfirmed,
		}).Error)
	}

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Len(t, day.Slots, 1)
	assert.Equal(t, 3, day.Slots[0].Booked)
	assert.Equal(t, 0, day.Slots[0].AvailableSpots)
	assert.Equal(t, ReasonFull, day.Slots[0].Reason)

	report, err := ReconcileSlotOccupancy(db, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.True(t, report[0].Overbooked)
	assert.Equal(t, 3, report[0].Booked)
}

func TestGetAvailableSlots_Monday0310Scenario(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "10:00", 60, 2)

	var bookings []string
	for _, email := range []string{"a@example.com", "b@example.com"} {
		in := guestBooking("2025-03-10", "09:00")
		in.ClientEmail = email
		in.AdminCreated = true
		b, err := CreateBooking(db, in)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, b.Status)
		bookings = append(bookings, b.ID)
	}

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Len(t, day.Slots, 1)
	assert.Equal(t, 0, day.Slots[0].AvailableSpots)
	assert.False(t, day.Slots[0].Available)

	_, err = CancelBooking(db, bookings[0], "schedule conflict")
	require.NoError(t, err)

	day, err = GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Slots[0].AvailableSpots)
	assert.True(t, day.Slots[0].Available)
}

func TestGetAvailableSlots_ExcludeBooking(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "10:00", 60, 1)

	b, err := CreateBooking(db, guestBooking("2025-03-10", "09:00"))
	require.NoError(t, err)

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 0, day.Slots[0].AvailableSpots)

	day, err = GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10", ExcludeBookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Slots[0].AvailableSpots)
	assert.True(t, day.Slots[0].Available)
}

func TestGetAvailableSlots_InvalidDate(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetAvailableSlots(db, AvailabilityQuery{Date: "10/03/2025"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStepWindow(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		duration int
		expected [][2]string
	}{
		{"hourly", "09:00", "11:00", 60, [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}}},
		{"trailing remainder dropped", "09:00", "10:45", 30, [][2]string{{"09:00", "09:30"}, {"09:30", "10:00"}, {"10:00", "10:30"}}},
		{"zero duration", "09:00", "10:00", 0, nil},
		{"bad time", "9am", "10:00", 30, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stepWindow(tt.start, tt.end, tt.duration))
		})
	}
}

func TestTimeSlotConfigCRUD(t *testing.T) {
	db := setupTestDB(t)

	cfg, err := CreateTimeSlotConfig(db, TimeSlotConfigInput{DayOfWeek: 2, StartTime: "09:00", EndTime: "12:00", SlotDuration: 30, MaxCapacity: 3})
	require.NoError(t, err)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, "Tuesday", cfg.DayName())

	_, err = CreateTimeSlotConfig(db, TimeSlotConfigInput{DayOfWeek: 2, StartTime: "11:00", EndTime: "13:00", SlotDuration: 30, MaxCapacity: 1})
	assert.ErrorIs(t, err, ErrConfigOverlap)

	_, err = CreateTimeSlotConfig(db, TimeSlotConfigInput{DayOfWeek: 2, StartTime: "14:00", EndTime: "13:00", SlotDuration: 30, MaxCapacity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := UpdateTimeSlotConfig(db, cfg.ID, TimeSlotConfigInput{DayOfWeek: 2, StartTime: "10:00", EndTime: "12:00", SlotDuration: 60, MaxCapacity: 2})
	require.NoError(t, err)
	assert.Equal(t, "10:00", updated.StartTime)

	require.NoError(t, DeleteTimeSlotConfig(db, cfg.ID))
	assert.ErrorIs(t, DeleteTimeSlotConfig(db, cfg.ID), ErrConfigNotFound)
}

func boolPtr(b bool) *bool { return &b }
