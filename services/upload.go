package services

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxUploadSize = 10 * 1024 * 1024 // 10MB

// allowedUploadTypes maps accepted extensions to the content types they may carry
var allowedUploadTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".txt":  {"text/plain"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// ValidateDocumentUpload checks size and extension, then sniffs the content
// so a renamed file cannot pass as another type. It returns the detected MIME type.
func ValidateDocumentUpload(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size <= 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if fileHeader.Size > MaxUploadSize {
		return "", fmt.Errorf("%w: file size exceeds maximum allowed size of 10MB", ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	accepted, ok := allowedUploadTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: file type not allowed. Accepted formats: PDF, DOC, DOCX, TXT, JPG, PNG", ErrInvalidInput)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}

	for _, mt := range accepted {
		if detected.Is(mt) {
			return strings.SplitN(detected.String(), ";", 2)[0], nil
		}
	}
	return "", fmt.Errorf("%w: file content does not match its %s extension", ErrInvalidInput, ext)
}
