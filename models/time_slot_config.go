package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeSlotConfig is the weekly recurring template slots are derived from
type TimeSlotConfig struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DayOfWeek    int    `gorm:"not null;index" json:"day_of_week"` // 0=Sunday...6=Saturday
	StartTime    string `gorm:"size:5;not null" json:"start_time"` // "09:00"
	EndTime      string `gorm:"size:5;not null" json:"end_time"`   // "12:00"
	SlotDuration int    `gorm:"not null" json:"slot_duration"`     // minutes
	MaxCapacity  int    `gorm:"not null" json:"max_capacity"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (c *TimeSlotConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for TimeSlotConfig model
func (TimeSlotConfig) TableName() string {
	return "time_slot_configs"
}

// DayName returns the name of the day
func (c *TimeSlotConfig) DayName() string {
	days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if c.DayOfWeek >= 0 && c.DayOfWeek < 7 {
		return days[c.DayOfWeek]
	}
	return ""
}
