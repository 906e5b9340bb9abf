package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailTemplate is a reusable admin-authored email with {{variable}} placeholders
type EmailTemplate struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Subject string `gorm:"size:255;not null" json:"subject"`

	// Sanitized HTML with {{variable}} placeholders
	Body string `gorm:"type:text;not null" json:"body"`

	// Placeholder names found in Subject and Body
	Variables []string `gorm:"serializer:json;type:text" json:"variables"`

	IsActive bool `gorm:"not null" json:"is_active"`

	CreatedByID *string `gorm:"type:uuid" json:"created_by_id,omitempty"`
}

// BeforeCreate hook to generate UUID
func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for EmailTemplate model
func (EmailTemplate) TableName() string {
	return "email_templates"
}
