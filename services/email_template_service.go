package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"interview_booking_app_go/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// EmailTemplateInput is the payload for creating or replacing a template
type EmailTemplateInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Subject  string `json:"subject" validate:"required,max=255"`
	Body     string `json:"body" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

var emailHTMLPolicy = bluemonday.UGCPolicy()

// sanitizeEmailHTML strips scripts and unsafe attributes from admin-authored HTML.
// Placeholders survive since they are plain text.
func sanitizeEmailHTML(body string) string {
	return emailHTMLPolicy.Sanitize(body)
}

func (in *EmailTemplateInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Name == "" || in.Subject == "" || strings.TrimSpace(in.Body) == "" {
		return fmt.Errorf("%w: name, subject and body are required", ErrInvalidInput)
	}
	if len(in.Name) > 100 || len(in.Subject) > 255 {
		return fmt.Errorf("%w: name or subject too long", ErrInvalidInput)
	}
	in.Body = sanitizeEmailHTML(in.Body)
	return nil
}

// GetEmailTemplates lists templates by name. activeOnly hides disabled ones.
func GetEmailTemplates(db *gorm.DB, activeOnly bool) ([]models.EmailTemplate, error) {
	var tmpls []models.EmailTemplate
	query := db.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&tmpls).Error
	return tmpls, err
}

// GetEmailTemplateByID retrieves a template
func GetEmailTemplateByID(db *gorm.DB, id string) (*models.EmailTemplate, error) {
	var tmpl models.EmailTemplate
	if err := db.First(&tmpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tmpl, nil
}

// CreateEmailTemplate stores a sanitized template and records its placeholders
func CreateEmailTemplate(db *gorm.DB, in EmailTemplateInput, createdBy *string) (*models.EmailTemplate, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	tmpl := &models.EmailTemplate{
		Name:        in.Name,
		Subject:     in.Subject,
		Body:        in.Body,
		Variables:   ExtractVariables(in.Subject, in.Body),
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedByID: createdBy,
	}
	if err := db.Create(tmpl).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTemplateNameTaken
		}
		return nil, fmt.Errorf("failed to create email template: %w", err)
	}
	return tmpl, nil
}

// UpdateEmailTemplate replaces a template's content. IsActive is kept when omitted.
func UpdateEmailTemplate(db *gorm.DB, id string, in EmailTemplateInput) (*models.EmailTemplate, error) {
	tmpl, err := GetEmailTemplateByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	tmpl.Name = in.Name
	tmpl.Subject = in.Subject
	tmpl.Body = in.Body
	tmpl.Variables = ExtractVariables(in.Subject, in.Body)
	if in.IsActive != nil {
		tmpl.IsActive = *in.IsActive
	}

	if err := db.Save(tmpl).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTemplateNameTaken
		}
		return nil, fmt.Errorf("failed to update email template: %w", err)
	}
	return tmpl, nil
}

// DeleteEmailTemplate removes a template. Logs and campaigns keep their copies.
func DeleteEmailTemplate(db *gorm.DB, id string) error {
	result := db.Delete(&models.EmailTemplate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// SendTemplateTo renders a template for one recipient and sends it now,
// recording the attempt in the email log
func SendTemplateTo(ctx context.Context, db *gorm.DB, id string, recipient models.EmailRecipient) error {
	tmpl, err := GetEmailTemplateByID(db, id)
	if err != nil {
		return err
	}
	return SendDirectEmail(ctx, db, recipient, tmpl.Subject, tmpl.Body, &tmpl.ID)
}

// SendDirectEmail personalizes and sends one email immediately
func SendDirectEmail(ctx context.Context, db *gorm.DB, recipient models.EmailRecipient, subject, body string, templateID *string) error {
	if strings.TrimSpace(recipient.Email) == "" {
		return fmt.Errorf("%w: recipient email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}

	vars := RecipientVariables(recipient.Email, recipient.FirstName, recipient.LastName, recipient.Variables)
	renderedSubject := RenderVariables(subject, vars, false)

	err := SendEmail(ctx, &Email{
		To:       []string{recipient.Email},
		Subject:  renderedSubject,
		HTMLBody: RenderVariables(sanitizeEmailHTML(body), vars, true),
	})
	RecordEmailLog(db, emailLogEntry{
		TemplateID:  templateID,
		RecipientID: optionalString(recipient.UserID),
		Email:       recipient.Email,
		Subject:     renderedSubject,
		Err:         err,
	})
	return err
}
