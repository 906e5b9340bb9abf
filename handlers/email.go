package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// Bulk audiences selectable instead of an explicit recipient list
const (
	AudienceAllUsers = "all_users"
	AudienceUsers    = "users"
	AudienceAdmins   = "admins"
)

// campaignRunner executes bulk sends; set once at startup
var campaignRunner *services.CampaignRunner

// SetCampaignRunner installs the runner used by the bulk email endpoints
func SetCampaignRunner(r *services.CampaignRunner) {
	campaignRunner = r
}

// trackingPixel is a transparent 1x1 GIF
var trackingPixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// TestSendRequest is the optional body of POST /api/emails/templates/:id/test
type TestSendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// SendEmailRequest is the body of POST /api/emails/send
type SendEmailRequest struct {
	Recipient  models.EmailRecipient `json:"recipient"`
	Subject    string                `json:"subject" validate:"max=255"`
	Body       string                `json:"body"`
	TemplateID *string               `json:"template_id"`
}

// BulkEmailRequest is the body of POST /api/emails/bulk
type BulkEmailRequest struct {
	TemplateID *string                 `json:"template_id"`
	Subject    string                  `json:"subject" validate:"max=255"`
	Body       string                  `json:"body"`
	Recipients []models.EmailRecipient `json:"recipients" validate:"dive"`
	Audience   string                  `json:"audience" validate:"omitempty,oneof=all_users users admins"`
	BatchSize  int                     `json:"batch_size" validate:"omitempty,min=1,max=500"`
	DelayMS    *int                    `json:"delay_ms" validate:"omitempty,min=0,max=60000"`
	TrackOpens bool                    `json:"track_opens"`
}

func requireRunner() (*services.CampaignRunner, error) {
	if campaignRunner == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Bulk email is not available")
	}
	return campaignRunner, nil
}

// ListEmailTemplatesHandler lists templates, ?active=true for active ones only
func ListEmailTemplatesHandler(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	templates, err := services.GetEmailTemplates(db.DB, activeOnly)
	if err != nil {
		return err
	}
	return ok(c, templates)
}

// GetEmailTemplateHandler returns one template with the variables it uses
func GetEmailTemplateHandler(c echo.Context) error {
	tmpl, err := services.GetEmailTemplateByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, map[string]interface{}{
		"template":  tmpl,
		"variables": services.ExtractVariables(tmpl.Subject, tmpl.Body),
	})
}

// CreateEmailTemplateHandler stores a new template
func CreateEmailTemplateHandler(c echo.Context) error {
	var req services.EmailTemplateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user := middleware.GetCurrentUser(c)
	tmpl, err := services.CreateEmailTemplate(db.DB, req, &user.ID)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceEmailTemplate, tmpl.ID, "Template "+tmpl.Name)
	return created(c, "Template created", tmpl)
}

// UpdateEmailTemplateHandler edits a template
func UpdateEmailTemplateHandler(c echo.Context) error {
	var req services.EmailTemplateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tmpl, err := services.UpdateEmailTemplate(db.DB, c.Param("id"), req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionUpdate, services.AuditResourceEmailTemplate, tmpl.ID, "Template "+tmpl.Name)
	return okMessage(c, "Template updated", tmpl)
}

// DeleteEmailTemplateHandler removes a template
func DeleteEmailTemplateHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteEmailTemplate(db.DB, id); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceEmailTemplate, id, "Template deleted")
	return okMessage(c, "Template deleted", nil)
}

// TestEmailTemplateHandler sends a template to the given address or the caller
func TestEmailTemplateHandler(c echo.Context) error {
	var req TestSendRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	user := middleware.GetCurrentUser(c)
	recipient := models.EmailRecipient{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserID:    user.ID,
	}
	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		recipient = models.EmailRecipient{Email: req.Email}
	}

	if err := services.SendTemplateTo(c.Request().Context(), db.DB, c.Param("id"), recipient); err != nil {
		return err
	}
	return okMessage(c, "Test email sent to "+recipient.Email, nil)
}

// SendEmailHandler sends one personalized email immediately
func SendEmailHandler(c echo.Context) error {
	var req SendEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var err error
	if req.TemplateID != nil && *req.TemplateID != "" && req.Subject == "" && req.Body == "" {
		err = services.SendTemplateTo(ctx, db.DB, *req.TemplateID, req.Recipient)
	} else {
		err = services.SendDirectEmail(ctx, db.DB, req.Recipient, req.Subject, req.Body, req.TemplateID)
	}
	if err != nil {
		return err
	}
	return okMessage(c, "Email sent", nil)
}

// BulkEmailHandler persists a campaign and starts it in the background
func BulkEmailHandler(c echo.Context) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}

	var req BulkEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	recipients := req.Recipients
	if len(recipients) == 0 && req.Audience != "" {
		role := ""
		switch req.Audience {
		case AudienceUsers:
			role = models.RoleUser
		case AudienceAdmins:
			role = models.RoleAdmin
		}
		if recipients, err = services.GetActiveRecipients(db.DB, role); err != nil {
			return err
		}
	}

	cfg := appConfig(c)
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = cfg.BulkEmailBatchSize
	}
	delayMS := cfg.BulkEmailDelayMS
	if req.DelayMS != nil {
		delayMS = *req.DelayMS
	}

	user := middleware.GetCurrentUser(c)
	campaign, err := services.CreateCampaign(db.DB, services.CreateCampaignInput{
		TemplateID:  req.TemplateID,
		Subject:     req.Subject,
		Body:        req.Body,
		Recipients:  recipients,
		BatchSize:   batchSize,
		DelayMS:     delayMS,
		TrackOpens:  req.TrackOpens,
		CreatedByID: &user.ID,
	})
	if err != nil {
		return err
	}

	campaign, err = runner.Start(campaign.ID)
	if err != nil {
		return err
	}

	auditAdmin(c, models.AuditActionCreate, services.AuditResourceEmailCampaign, campaign.ID,
		"Bulk email to "+strconv.Itoa(campaign.Total)+" recipients")
	return c.JSON(http.StatusAccepted, Response{Success: true, Message: "Bulk email started", Data: campaign})
}

// GetCampaignHandler reports a campaign's progress
func GetCampaignHandler(c echo.Context) error {
	campaign, err := services.GetCampaignByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, campaign)
}

// CancelCampaignHandler stops a campaign before its next batch
func CancelCampaignHandler(c echo.Context) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}
	campaign, err := runner.Cancel(c.Param("id"))
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionStatusChange, services.AuditResourceEmailCampaign, campaign.ID, "Campaign cancelled")
	return okMessage(c, "Campaign cancelled", campaign)
}

// ResumeCampaignHandler restarts a paused campaign from its next batch
func ResumeCampaignHandler(c echo.Context) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}
	campaign, err := runner.Resume(c.Param("id"))
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionStatusChange, services.AuditResourceEmailCampaign, campaign.ID, "Campaign resumed")
	return okMessage(c, "Campaign resumed", campaign)
}

// ListEmailLogsHandler lists delivery attempts with filters
func ListEmailLogsHandler(c echo.Context) error {
	filters := services.EmailLogFilters{
		Status:     c.QueryParam("status"),
		CampaignID: c.QueryParam("campaign_id"),
		TemplateID: c.QueryParam("template_id"),
		Recipient:  c.QueryParam("recipient"),
	}
	page, size := pageParams(c, 50, 200)
	logs, total, err := services.ListEmailLogs(db.DB, filters, page, size)
	if err != nil {
		return err
	}
	return paginated(c, logs, page, size, total)
}

// EmailStatisticsHandler returns delivery totals
func EmailStatisticsHandler(c echo.Context) error {
	stats, err := services.GetEmailStatistics(db.DB)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

// TrackEmailOpenHandler records an open and always answers with the pixel
func TrackEmailOpenHandler(c echo.Context) error {
	if err := services.MarkEmailOpened(db.DB, c.Param("id")); err != nil {
		slog.Warn("failed to record email open", "log_id", c.Param("id"), "error", err)
	}
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	h.Set("Pragma", "no-cache")
	return c.Blob(http.StatusOK, "image/gif", trackingPixel)
}
