package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign statuses
const (
	CampaignStatusPending   = "pending"
	CampaignStatusRunning   = "running"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

// EmailRecipient is one addressee of a bulk send
type EmailRecipient struct {
	Email     string            `json:"email" validate:"required,email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	UserID    string            `json:"user_id,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// EmailCampaign is the persisted state of a bulk send so it can be
// cancelled and resumed from the next unsent batch
type EmailCampaign struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TemplateID *string `gorm:"type:uuid" json:"template_id,omitempty"`
	Subject    string  `gorm:"size:255;not null" json:"subject"`
	Body       string  `gorm:"type:text;not null" json:"body"`

	Recipients []EmailRecipient `gorm:"serializer:json;type:text" json:"-"`
	Total      int              `gorm:"not null" json:"total"`

	BatchSize    int  `gorm:"not null" json:"batch_size"`
	DelayMS      int  `gorm:"not null" json:"delay_ms"`
	TrackOpens   bool `gorm:"not null" json:"track_opens"`
	TotalBatches int  `gorm:"not null" json:"total_batches"`

	Status      string `gorm:"size:20;not null;index" json:"status"`
	NextBatch   int    `gorm:"not null" json:"next_batch"`
	SentCount   int    `gorm:"not null" json:"sent_count"`
	FailedCount int    `gorm:"not null" json:"failed_count"`

	CreatedByID *string    `gorm:"type:uuid" json:"created_by_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func (c *EmailCampaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for EmailCampaign model
func (EmailCampaign) TableName() string {
	return "email_campaigns"
}

// IsFinished reports whether the campaign can no longer send
func (c *EmailCampaign) IsFinished() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusCancelled
}
