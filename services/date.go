package services

import (
	"fmt"
	"sync"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Scheduling settings shared by the availability resolver and booking lifecycle.
// All calendar arithmetic happens in one configured location.
var (
	schedMu       sync.RWMutex
	appLocation   = time.UTC
	allowWeekends = false
	nowFunc       = time.Now
)

// ConfigureScheduling sets the application timezone and weekend policy
func ConfigureScheduling(timezone string, weekends bool) error {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		loc = l
	}

	schedMu.Lock()
	defer schedMu.Unlock()
	appLocation = loc
	allowWeekends = weekends
	return nil
}

// SetNowFunc replaces the clock and returns a function restoring the previous one
func SetNowFunc(f func() time.Time) (restore func()) {
	schedMu.Lock()
	prev := nowFunc
	nowFunc = f
	schedMu.Unlock()
	return func() {
		schedMu.Lock()
		nowFunc = prev
		schedMu.Unlock()
	}
}

// Location returns the configured application timezone
func Location() *time.Location {
	schedMu.RLock()
	defer schedMu.RUnlock()
	return appLocation
}

// WeekendBookingsAllowed reports whether Saturday and Sunday are bookable
func WeekendBookingsAllowed() bool {
	schedMu.RLock()
	defer schedMu.RUnlock()
	return allowWeekends
}

// Now returns the current time in the application timezone
func Now() time.Time {
	schedMu.RLock()
	f, loc := nowFunc, appLocation
	schedMu.RUnlock()
	return f().In(loc)
}

// Today returns the current date (YYYY-MM-DD) in the application timezone
func Today() string {
	return Now().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date at midnight in the application timezone
func ParseDate(dateStr string) (time.Time, error) {
	parsedTime, err := time.ParseInLocation(DateLayout, dateStr, Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}

	return parsedTime, nil
}

// ParseTimeOfDay validates an HH:MM string and returns minutes since midnight
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time format: expected HH:MM")
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatTimeOfDay renders minutes since midnight as HH:MM
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsWeekend reports whether the date falls on Saturday or Sunday
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
