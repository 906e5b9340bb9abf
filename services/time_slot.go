package services

import (
	"errors"
	"fmt"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxGenerateRangeDays bounds bulk slot generation
const MaxGenerateRangeDays = 366

// TimeSlotInput creates a single explicit slot
type TimeSlotInput struct {
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,min=1"`
	IsActive    *bool  `json:"is_active"`
}

// TimeSlotUpdate edits the mutable flags of a slot
type TimeSlotUpdate struct {
	MaxCapacity *int  `json:"max_capacity" validate:"omitempty,min=1"`
	IsActive    *bool `json:"is_active"`
}

// GenerateSlotsInput describes a bulk generation over a date range.
// When StartTime/EndTime are empty each date uses the weekly config.
type GenerateSlotsInput struct {
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SlotDuration int    `json:"slot_duration" validate:"omitempty,min=5,max=480"`
	MaxCapacity  int    `json:"max_capacity" validate:"omitempty,min=1"`
}

// GenerateSlotsResult summarizes a bulk generation
type GenerateSlotsResult struct {
	Created         int `json:"created"`
	SkippedExisting int `json:"skipped_existing"`
	SkippedDays     int `json:"skipped_days"`
}

// SlotOccupancy compares stored capacity with active bookings for one slot
type SlotOccupancy struct {
	SlotID      string `json:"slot_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxCapacity int    `json:"max_capacity"`
	Booked      int    `json:"booked"`
	Overbooked  bool   `json:"overbooked"`
}

// ListTimeSlots returns explicit slots in an inclusive date range
func ListTimeSlots(db *gorm.DB, fromDate, toDate string) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	query := db.Order("date, start_time")
	if fromDate != "" {
		query = query.Where("date >= ?", fromDate)
	}
	if toDate != "" {
		query = query.Where("date <= ?", toDate)
	}
	err := query.Find(&slots).Error
	return slots, err
}

// GetTimeSlotByID fetches a single slot
func GetTimeSlotByID(db *gorm.DB, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := db.First(&slot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// CreateTimeSlot adds an explicit slot
func CreateTimeSlot(db *gorm.DB, in TimeSlotInput) (*models.TimeSlot, error) {
	if _, err := ParseDate(in.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateWindow(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if in.MaxCapacity < 1 {
		return nil, fmt.Errorf("%w: max_capacity must be at least 1", ErrInvalidInput)
	}

	slot := &models.TimeSlot{
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		MaxCapacity: in.MaxCapacity,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := db.Create(slot).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotExists
		}
		return nil, fmt.Errorf("failed to create time slot: %w", err)
	}
	return slot, nil
}

// UpdateTimeSlot changes capacity and activity of a slot
func UpdateTimeSlot(db *gorm.DB, id string, in TimeSlotUpdate) (*models.TimeSlot, error) {
	slot, err := GetTimeSlotByID(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity < 1 {
			return nil, fmt.Errorf("%w: max_capacity must be at least 1", ErrInvalidInput)
		}
		updates["max_capacity"] = *in.MaxCapacity
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return slot, nil
	}

	if err := db.Model(slot).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update time slot: %w", err)
	}
	return GetTimeSlotByID(db, id)
}

// DeleteTimeSlot removes a slot no booking references
func DeleteTimeSlot(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Booking{}).Where("slot_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotHasBookings
		}

		res := tx.Delete(&models.TimeSlot{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSlotNotFound
		}
		return nil
	})
}

// GenerateTimeSlots materializes slots for every date in a range.
// Weekends are skipped unless weekend bookings are enabled; existing slots are left untouched.
func GenerateTimeSlots(db *gorm.DB, in GenerateSlotsInput) (*GenerateSlotsResult, error) {
	from, err := ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidInput, err)
	}
	to, err := ParseDate(in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrInvalidInput, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidInput)
	}
	if to.Sub(from).Hours()/24 >= MaxGenerateRangeDays {
		return nil, fmt.Errorf("%w: range must be shorter than %d days", ErrInvalidInput, MaxGenerateRangeDays)
	}

	explicitWindow := in.StartTime != "" || in.EndTime != ""
	if explicitWindow {
		if err := validateWindow(in.StartTime, in.EndTime); err != nil {
			return nil, err
		}
		if in.SlotDuration <= 0 {
			in.SlotDuration = DefaultSlotDuration
		}
		if in.MaxCapacity <= 0 {
			in.MaxCapacity = DefaultSlotCapacity
		}
	}

	result := &GenerateSlotsResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if IsWeekend(d) && !WeekendBookingsAllowed() {
				result.SkippedDays++
				continue
			}
			date := d.Format(DateLayout)

			var windows []slotCandidate
			if explicitWindow {
				for _, w := range stepWindow(in.StartTime, in.EndTime, in.SlotDuration) {
					windows = append(windows, slotCandidate{start: w[0], end: w[1], capacity: in.MaxCapacity})
				}
			} else {
				windows, err = deriveSlotsFromConfig(tx, int(d.Weekday()))
				if err != nil {
					return err
				}
			}
			if len(windows) == 0 {
				result.SkippedDays++
				continue
			}

			for _, w := range windows {
				slot := &models.TimeSlot{Date: date, StartTime: w.start, EndTime: w.end, MaxCapacity: w.capacity, IsActive: true}
				res := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "date"}, {Name: "start_time"}},
					DoNothing: true,
				}).Create(slot)
				if res.Error != nil {
					return fmt.Errorf("failed to create slot %s %s: %w", date, w.start, res.Error)
				}
				if res.RowsAffected == 0 {
					result.SkippedExisting++
				} else {
					result.Created++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileSlotOccupancy reports booked vs capacity for every explicit slot of a date
// and flags slots holding more active bookings than their capacity
func ReconcileSlotOccupancy(db *gorm.DB, date string) ([]SlotOccupancy, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var slots []models.TimeSlot
	if err := db.Where("date = ?", date).Order("start_time").Find(&slots).Error; err != nil {
		return nil, err
	}
	booked, err := countActiveBookingsByTime(db, date, "")
	if err != nil {
		return nil, err
	}

	out := make([]SlotOccupancy, 0, len(slots))
	for _, s := range slots {
		n := booked[s.StartTime]
		out = append(out, SlotOccupancy{
			SlotID:      s.ID,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			MaxCapacity: s.MaxCapacity,
			Booked:      n,
			Overbooked:  n > s.MaxCapacity,
		})
	}
	return out, nil
}

// ensureSlot inserts the slot row if missing and returns it locked for update.
// Must be called inside a transaction.
func ensureSlot(tx *gorm.DB, template *models.TimeSlot) (*models.TimeSlot, error) {
	if template.ID == "" {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "start_time"}},
			DoNothing: true,
		}).Create(template).Error
		if err != nil {
			return nil, fmt.Errorf("failed to materialize slot: %w", err)
		}
	}

	var locked models.TimeSlot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ? AND start_time = ?", template.Date, template.StartTime).
		First(&locked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock slot: %w", err)
	}
	if !locked.IsActive {
		return nil, ErrSlotUnavailable
	}
	return &locked, nil
}

func validateWindow(startTime, endTime string) error {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrInvalidInput, err)
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrInvalidInput, err)
	}
	if end <= start {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}
	return nil
}
