package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Email log statuses
const (
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusOpened  = "opened"
	EmailStatusBounced = "bounced"
)

// EmailLog records one delivery attempt to one recipient
type EmailLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Context
	TemplateID  *string `gorm:"type:uuid;index" json:"template_id,omitempty"`
	CampaignID  *string `gorm:"type:uuid;index" json:"campaign_id,omitempty"`
	RecipientID *string `gorm:"type:uuid;index" json:"recipient_id,omitempty"`

	RecipientEmail string  `gorm:"size:255;not null;index" json:"recipient_email"`
	Subject        string  `gorm:"size:255" json:"subject"`
	Status         string  `gorm:"size:20;not null;index" json:"status"`
	Error          *string `gorm:"type:text" json:"error,omitempty"`

	SentAt   *time.Time `json:"sent_at,omitempty"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
}

func (l *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for EmailLog model
func (EmailLog) TableName() string {
	return "email_logs"
}
