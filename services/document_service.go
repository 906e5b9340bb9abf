package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// UploadDocumentInput describes who uploads a document and what it is
type UploadDocumentInput struct {
	UserID    string
	BookingID *string
	Type      string
}

// UploadDocument validates the file, stores it, and records it. The stored
// file is removed again if the record cannot be written.
func UploadDocument(ctx context.Context, db *gorm.DB, in UploadDocumentInput, file *multipart.FileHeader) (*models.Document, error) {
	if in.Type == "" {
		in.Type = models.DocumentTypeOther
	}
	if !models.IsValidDocumentType(in.Type) {
		return nil, fmt.Errorf("%w: invalid document type", ErrInvalidInput)
	}

	if in.BookingID != nil && *in.BookingID != "" {
		var count int64
		if err := db.Model(&models.Booking{}).
			Where("id = ? AND user_id = ?", *in.BookingID, in.UserID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrBookingNotFound
		}
	} else {
		in.BookingID = nil
	}

	mimeType, err := ValidateDocumentUpload(file)
	if err != nil {
		return nil, err
	}

	storage := currentStorage()
	key := GenerateDocumentKey(file.Filename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	stored, err := storage.UploadReader(ctx, src, key, mimeType, file.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		UserID:           in.UserID,
		BookingID:        in.BookingID,
		Type:             in.Type,
		FileName:         stored.FileName,
		FileOriginalName: filepath.Base(file.Filename),
		FileURL:          stored.URL,
		StorageKey:       stored.Key,
		MimeType:         mimeType,
		FileSize:         stored.FileSize,
	}
	if err := db.Create(doc).Error; err != nil {
		if delErr := storage.Delete(ctx, stored.Key); delErr != nil {
			slog.Warn("failed to remove orphaned upload", "key", stored.Key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	if doc.FileURL == "" {
		// Private buckets serve through the authenticated download route
		doc.FileURL = doc.GetDownloadURL()
		db.Model(doc).Update("file_url", doc.FileURL)
	}
	return doc, nil
}

// GetUserDocuments lists a user's documents, newest first
func GetUserDocuments(db *gorm.DB, userID string) ([]models.Document, error) {
	var documents []models.Document
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return documents, nil
}

// CountUserDocuments counts a user's documents
func CountUserDocuments(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Document{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetDocumentForUser returns a document the user owns. Admins may read any document.
func GetDocumentForUser(db *gorm.DB, id string, user *models.User) (*models.Document, error) {
	query := db.Where("id = ?", id)
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}

	var doc models.Document
	if err := query.First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// OpenDocument streams a stored document's content
func OpenDocument(ctx context.Context, doc *models.Document) (io.ReadCloser, string, error) {
	reader, contentType, err := currentStorage().Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, "", err
	}
	if doc.MimeType != "" {
		contentType = doc.MimeType
	}
	return reader, contentType, nil
}

// DeleteDocument removes the record and then the stored file. A file that
// cannot be removed is logged and left behind.
func DeleteDocument(ctx context.Context, db *gorm.DB, doc *models.Document) error {
	if err := db.Delete(doc).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if doc.StorageKey != "" {
		if err := currentStorage().Delete(ctx, doc.StorageKey); err != nil {
			slog.Warn("failed to delete stored document", "key", doc.StorageKey, "error", err)
		}
	}
	return nil
}
