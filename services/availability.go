package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// Reasons a slot or a whole day is unavailable
const (
	ReasonPastDate = "past_date"
	ReasonPastTime = "past_time"
	ReasonWeekend  = "weekend"
	ReasonBlocked  = "blocked"
	ReasonFull     = "full"
)

// Default working hours: Mon-Fri, 9:00-12:00 and 14:00-17:00, hourly interviews
var defaultSlotConfigs = []struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}{
	{1, "09:00", "12:00"},
	{1, "14:00", "17:00"},
	{2, "09:00", "12:00"},
	{2, "14:00", "17:00"},
	{3, "09:00", "12:00"},
	{3, "14:00", "17:00"},
	{4, "09:00", "12:00"},
	{4, "14:00", "17:00"},
	{5, "09:00", "12:00"},
	{5, "14:00", "17:00"},
}

const (
	DefaultSlotDuration = 60
	DefaultSlotCapacity = 1
)

// AvailabilityQuery selects the day to resolve. ExcludeBookingID removes one
// booking from the occupancy count so an edited booking never blocks itself.
type AvailabilityQuery struct {
	Date             string
	ExcludeBookingID string
}

// SlotAvailability is one candidate slot with its occupancy
type SlotAvailability struct {
	SlotID         *string `json:"slot_id,omitempty"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	MaxCapacity    int     `json:"max_capacity"`
	Booked         int     `json:"booked"`
	AvailableSpots int     `json:"available_spots"`
	Available      bool    `json:"available"`
	Reason         string  `json:"reason,omitempty"`
}

// DayAvailability is the resolved schedule for one date
type DayAvailability struct {
	Date    string             `json:"date"`
	Weekday string             `json:"weekday"`
	Blocked bool               `json:"blocked"`
	Reason  string             `json:"reason,omitempty"`
	Slots   []SlotAvailability `json:"slots"`
}

// AvailableCount returns the number of bookable slots
func (d *DayAvailability) AvailableCount() int {
	n := 0
	for _, s := range d.Slots {
		if s.Available {
			n++
		}
	}
	return n
}

// Find returns the slot starting at the given time, if any
func (d *DayAvailability) Find(startTime string) (SlotAvailability, bool) {
	for _, s := range d.Slots {
		if s.StartTime == startTime {
			return s, true
		}
	}
	return SlotAvailability{}, false
}

// GetAvailableSlots resolves the candidate slots of a date and their free capacity
func GetAvailableSlots(db *gorm.DB, q AvailabilityQuery) (*DayAvailability, error) {
	day, err := ParseDate(q.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &DayAvailability{
		Date:    q.Date,
		Weekday: day.Weekday().String(),
		Slots:   []SlotAvailability{},
	}

	// Day-level reasons, most specific first
	dayReason := ""
	blocked, err := GetBlockedDate(db, q.Date)
	if err != nil {
		return nil, err
	}
	today := Today()
	switch {
	case q.Date < today:
		dayReason = ReasonPastDate
	case blocked != nil:
		dayReason = ReasonBlocked
		result.Reason = blocked.Reason
		if result.Reason == "" {
			result.Reason = ReasonBlocked
		}
	case IsWeekend(day) && !WeekendBookingsAllowed():
		dayReason = ReasonWeekend
	}
	result.Blocked = blocked != nil
	if dayReason != "" && result.Reason == "" {
		result.Reason = dayReason
	}

	candidates, err := candidateSlots(db, q.Date, day)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return result, nil
	}

	booked, err := countActiveBookingsByTime(db, q.Date, q.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	nowHM := ""
	if q.Date == today {
		nowHM = Now().Format(TimeLayout)
	}

	for _, c := range candidates {
		sa := SlotAvailability{
			SlotID:      c.slotID,
			StartTime:   c.start,
			EndTime:     c.end,
			MaxCapacity: c.capacity,
			Booked:      booked[c.start],
		}
		sa.AvailableSpots = c.capacity - sa.Booked
		if sa.AvailableSpots < 0 {
			sa.AvailableSpots = 0
		}

		switch {
		case dayReason != "":
			sa.Reason = dayReason
		case nowHM != "" && c.start <= nowHM:
			sa.Reason = ReasonPastTime
		case sa.AvailableSpots == 0:
			sa.Reason = ReasonFull
		default:
			sa.Available = true
		}
		result.Slots = append(result.Slots, sa)
	}

	return result, nil
}

type slotCandidate struct {
	slotID   *string
	start    string
	end      string
	capacity int
}

// candidateSlots merges explicit time_slots rows with slots derived from the
// weekly config. An explicit row replaces the derived slot at the same start
// time, and an inactive explicit row removes it.
func candidateSlots(db *gorm.DB, date string, day time.Time) ([]slotCandidate, error) {
	var explicit []models.TimeSlot
	if err := db.Where("date = ?", date).Find(&explicit).Error; err != nil {
		return nil, fmt.Errorf("failed to load time slots: %w", err)
	}

	byStart := make(map[string]slotCandidate)
	overridden := make(map[string]bool)
	for i := range explicit {
		s := explicit[i]
		overridden[s.StartTime] = true
		if !s.IsActive {
			continue
		}
		id := s.ID
		byStart[s.StartTime] = slotCandidate{slotID: &id, start: s.StartTime, end: s.EndTime, capacity: s.MaxCapacity}
	}

	derived, err := deriveSlotsFromConfig(db, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	for _, d := range derived {
		if overridden[d.start] {
			continue
		}
		if _, exists := byStart[d.start]; exists {
			continue
		}
		byStart[d.start] = d
	}

	out := make([]slotCandidate, 0, len(byStart))
	for _, c := range byStart {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out, nil
}

// deriveSlotsFromConfig steps through every active config window of the weekday
func deriveSlotsFromConfig(db *gorm.DB, dayOfWeek int) ([]slotCandidate, error) {
	var configs []models.TimeSlotConfig
	err := db.Where("day_of_week = ? AND is_active = ?", dayOfWeek, true).
		Order("start_time").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load time slot configs: %w", err)
	}

	var out []slotCandidate
	seen := make(map[string]bool)
	for _, cfg := range configs {
		for _, w := range stepWindow(cfg.StartTime, cfg.EndTime, cfg.SlotDuration) {
			if seen[w[0]] {
				continue
			}
			seen[w[0]] = true
			out = append(out, slotCandidate{start: w[0], end: w[1], capacity: cfg.MaxCapacity})
		}
	}
	return out, nil
}

// stepWindow splits [start, end) into consecutive intervals of duration minutes.
// A trailing interval shorter than duration is dropped.
func stepWindow(start, end string, duration int) [][2]string {
	if duration <= 0 {
		return nil
	}
	from, err := ParseTimeOfDay(start)
	if err != nil {
		return nil
	}
	to, err := ParseTimeOfDay(end)
	if err != nil {
		return nil
	}

	var out [][2]string
	for t := from; t+duration <= to; t += duration {
		out = append(out, [2]string{FormatTimeOfDay(t), FormatTimeOfDay(t + duration)})
	}
	return out
}

// countActiveBookingsByTime returns active booking counts keyed by interview time, in one query
func countActiveBookingsByTime(db *gorm.DB, date, excludeBookingID string) (map[string]int, error) {
	var rows []struct {
		InterviewTime string
		Count         int
	}

	q := db.Model(&models.Booking{}).
		Select("interview_time, COUNT(*) AS count").
		Where("interview_date = ? AND status IN ?", date, models.ActiveBookingStatuses)
	if excludeBookingID != "" {
		q = q.Where("id <> ?", excludeBookingID)
	}
	if err := q.Group("interview_time").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.InterviewTime] = r.Count
	}
	return out, nil
}

// resolveSlotTemplate returns the slot a booking at date/time would occupy:
// the explicit row when one exists, otherwise an unsaved row derived from the weekly config.
func resolveSlotTemplate(db *gorm.DB, date string, day time.Time, startTime string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := db.Where("date = ? AND start_time = ?", date, startTime).First(&slot).Error
	if err == nil {
		if !slot.IsActive {
			return nil, ErrSlotUnavailable
		}
		return &slot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load time slot: %w", err)
	}

	derived, err := deriveSlotsFromConfig(db, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	for _, d := range derived {
		if d.start == startTime {
			return &models.TimeSlot{
				Date:        date,
				StartTime:   d.start,
				EndTime:     d.end,
				MaxCapacity: d.capacity,
				IsActive:    true,
			}, nil
		}
	}
	return nil, ErrSlotUnavailable
}

// ---------------------------------------------------------------------------
// Weekly config

// TimeSlotConfigInput carries the editable fields of a weekly config
type TimeSlotConfigInput struct {
	DayOfWeek    int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	SlotDuration int    `json:"slot_duration" validate:"required,min=5,max=480"`
	MaxCapacity  int    `json:"max_capacity" validate:"required,min=1"`
	IsActive     *bool  `json:"is_active"`
}

func (in TimeSlotConfigInput) validate() error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be between 0 and 6", ErrInvalidInput)
	}
	start, err := ParseTimeOfDay(in.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrInvalidInput, err)
	}
	end, err := ParseTimeOfDay(in.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrInvalidInput, err)
	}
	if end <= start {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}
	if in.SlotDuration <= 0 || in.SlotDuration > end-start {
		return fmt.Errorf("%w: slot_duration must fit inside the window", ErrInvalidInput)
	}
	if in.MaxCapacity < 1 {
		return fmt.Errorf("%w: max_capacity must be at least 1", ErrInvalidInput)
	}
	return nil
}

// CreateDefaultTimeSlotConfigs seeds the default weekly schedule when none exists
func CreateDefaultTimeSlotConfigs(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.TimeSlotConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, slot := range defaultSlotConfigs {
		cfg := &models.TimeSlotConfig{
			DayOfWeek:    slot.DayOfWeek,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			SlotDuration: DefaultSlotDuration,
			MaxCapacity:  DefaultSlotCapacity,
			IsActive:     true,
		}
		if err := db.Create(cfg).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetTimeSlotConfigs fetches the weekly schedule
func GetTimeSlotConfigs(db *gorm.DB) ([]models.TimeSlotConfig, error) {
	var configs []models.TimeSlotConfig
	err := db.Order("day_of_week, start_time").Find(&configs).Error
	return configs, err
}

// GetTimeSlotConfigByID fetches a single weekly config
func GetTimeSlotConfigByID(db *gorm.DB, id string) (*models.TimeSlotConfig, error) {
	var cfg models.TimeSlotConfig
	if err := db.First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// CreateTimeSlotConfig adds a weekly config after overlap validation
func CreateTimeSlotConfig(db *gorm.DB, in TimeSlotConfigInput) (*models.TimeSlotConfig, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	overlap, err := CheckTimeSlotConfigOverlap(db, in.DayOfWeek, in.StartTime, in.EndTime, "")
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrConfigOverlap
	}

	cfg := &models.TimeSlotConfig{
		DayOfWeek:    in.DayOfWeek,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		SlotDuration: in.SlotDuration,
		MaxCapacity:  in.MaxCapacity,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := db.Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create time slot config: %w", err)
	}
	return cfg, nil
}

// UpdateTimeSlotConfig replaces the editable fields of a weekly config
func UpdateTimeSlotConfig(db *gorm.DB, id string, in TimeSlotConfigInput) (*models.TimeSlotConfig, error) {
	cfg, err := GetTimeSlotConfigByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	overlap, err := CheckTimeSlotConfigOverlap(db, in.DayOfWeek, in.StartTime, in.EndTime, id)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrConfigOverlap
	}

	cfg.DayOfWeek = in.DayOfWeek
	cfg.StartTime = in.StartTime
	cfg.EndTime = in.EndTime
	cfg.SlotDuration = in.SlotDuration
	cfg.MaxCapacity = in.MaxCapacity
	if in.IsActive != nil {
		cfg.IsActive = *in.IsActive
	}
	if err := db.Save(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to update time slot config: %w", err)
	}
	return cfg, nil
}

// DeleteTimeSlotConfig removes a weekly config. Materialized slots are unaffected.
func DeleteTimeSlotConfig(db *gorm.DB, id string) error {
	res := db.Delete(&models.TimeSlotConfig{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// CheckTimeSlotConfigOverlap checks if a window overlaps an active config of the same day
func CheckTimeSlotConfigOverlap(db *gorm.DB, dayOfWeek int, startTime, endTime string, excludeID string) (bool, error) {
	query := db.Model(&models.TimeSlotConfig{}).
		Where("day_of_week = ? AND is_active = ?", dayOfWeek, true).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ---------------------------------------------------------------------------
// Blocked dates

// GetBlockedDate returns the block for a date, or nil when the date is open
func GetBlockedDate(db *gorm.DB, date string) (*models.BlockedDate, error) {
	var blocked models.BlockedDate
	err := db.Where("blocked_date = ?", date).First(&blocked).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load blocked date: %w", err)
	}
	return &blocked, nil
}

// GetBlockedDates fetches blocked dates on or after fromDate (all when empty)
func GetBlockedDates(db *gorm.DB, fromDate string) ([]models.BlockedDate, error) {
	var blockedDates []models.BlockedDate
	query := db.Order("blocked_date asc")
	if fromDate != "" {
		query = query.Where("blocked_date >= ?", fromDate)
	}
	err := query.Find(&blockedDates).Error
	return blockedDates, err
}

// CreateBlockedDate blocks a whole day. Existing bookings on that day are kept.
func CreateBlockedDate(db *gorm.DB, date, reason string, blockedBy *string) (*models.BlockedDate, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	blocked := &models.BlockedDate{
		Date:        date,
		Reason:      reason,
		BlockedByID: blockedBy,
	}
	if err := db.Create(blocked).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDateAlreadyBlocked
		}
		return nil, fmt.Errorf("failed to block date: %w", err)
	}
	return blocked, nil
}

// DeleteBlockedDate removes a blocked date
func DeleteBlockedDate(db *gorm.DB, id string) error {
	res := db.Delete(&models.BlockedDate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBlockedDateNotFound
	}
	return nil
}
