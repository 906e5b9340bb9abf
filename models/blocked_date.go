package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockedDate is a whole day on which no interviews can be booked
type BlockedDate struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Date        string  `gorm:"column:blocked_date;size:10;uniqueIndex;not null" json:"blocked_date"` // YYYY-MM-DD
	Reason      string  `gorm:"size:255" json:"reason"`
	BlockedByID *string `gorm:"type:uuid" json:"blocked_by,omitempty"`
}

// BeforeCreate hook to generate UUID
func (b *BlockedDate) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for BlockedDate model
func (BlockedDate) TableName() string {
	return "blocked_dates"
}
