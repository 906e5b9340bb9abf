package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeSlot is a concrete bookable interval on one date
type TimeSlot struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Date        string `gorm:"size:10;not null;uniqueIndex:idx_time_slots_date_start" json:"date"`       // YYYY-MM-DD
	StartTime   string `gorm:"size:5;not null;uniqueIndex:idx_time_slots_date_start" json:"start_time"` // HH:MM
	EndTime     string `gorm:"size:5;not null" json:"end_time"`
	MaxCapacity int    `gorm:"not null" json:"max_capacity"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (s *TimeSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for TimeSlot model
func (TimeSlot) TableName() string {
	return "time_slots"
}
