package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document types a candidate can upload
const (
	DocumentTypeResume      = "resume"
	DocumentTypeCoverLetter = "cover_letter"
	DocumentTypePortfolio   = "portfolio"
	DocumentTypeOther       = "other"
)

// Document is a file uploaded by a user, optionally tied to a booking
type Document struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	BookingID *string  `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Booking   *Booking `gorm:"foreignKey:BookingID" json:"-"`

	Type string `gorm:"size:30;not null;default:other" json:"type"`

	// File metadata
	FileName         string `gorm:"not null" json:"file_name"`
	FileOriginalName string `gorm:"not null" json:"file_original_name"`
	FileURL          string `gorm:"not null" json:"file_url"`
	StorageKey       string `gorm:"not null" json:"-"` // Not exposed in JSON for security
	MimeType         string `json:"mime_type,omitempty"`
	FileSize         int64  `gorm:"not null" json:"file_size"`

	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
}

// BeforeCreate hook to generate UUID
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documents"
}

// GetDownloadURL returns the authenticated download URL for this document
func (d *Document) GetDownloadURL() string {
	return "/api/documents/" + d.ID + "/download"
}

// IsValidDocumentType checks if the document type is valid
func IsValidDocumentType(t string) bool {
	switch t {
	case DocumentTypeResume, DocumentTypeCoverLetter, DocumentTypePortfolio, DocumentTypeOther:
		return true
	}
	return false
}
