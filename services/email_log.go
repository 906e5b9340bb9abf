package services

import (
	"fmt"
	"log/slog"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// EmailLogFilters narrows email log listings
type EmailLogFilters struct {
	Status     string
	CampaignID string
	TemplateID string
	Recipient  string
}

// EmailStatistics aggregates delivery outcomes
type EmailStatistics struct {
	Total        int64            `json:"total"`
	Sent         int64            `json:"sent"`
	Failed       int64            `json:"failed"`
	Opened       int64            `json:"opened"`
	Bounced      int64            `json:"bounced"`
	OpenRate     float64          `json:"open_rate"`
	Last7Days    int64            `json:"last_7_days"`
	ByStatus     map[string]int64 `json:"by_status"`
	Campaigns    int64            `json:"campaigns"`
	ActiveCampgn int64            `json:"active_campaigns"`
}

// emailLogEntry describes one delivery attempt to record
type emailLogEntry struct {
	ID          string
	TemplateID  *string
	CampaignID  *string
	RecipientID *string
	Email       string
	Subject     string
	Err         error
}

func newEmailLog(e emailLogEntry) *models.EmailLog {
	entry := &models.EmailLog{
		ID:             e.ID,
		TemplateID:     e.TemplateID,
		CampaignID:     e.CampaignID,
		RecipientID:    e.RecipientID,
		RecipientEmail: e.Email,
		Subject:        truncate(e.Subject, 255),
		Status:         models.EmailStatusSent,
	}
	if e.Err != nil {
		msg := e.Err.Error()
		entry.Status = models.EmailStatusFailed
		entry.Error = &msg
	} else {
		now := time.Now()
		entry.SentAt = &now
	}
	return entry
}

// RecordEmailLog persists the outcome of one delivery. Failures to record are logged, not returned.
func RecordEmailLog(db *gorm.DB, e emailLogEntry) {
	if err := db.Create(newEmailLog(e)).Error; err != nil {
		slog.Error("failed to record email log", "recipient", e.Email, "error", err)
	}
}

// MarkEmailOpened flags a sent email as opened on first pixel hit. Unknown ids are ignored.
func MarkEmailOpened(db *gorm.DB, id string) error {
	now := time.Now()
	return db.Model(&models.EmailLog{}).
		Where("id = ? AND status = ?", id, models.EmailStatusSent).
		Updates(map[string]interface{}{
			"status":    models.EmailStatusOpened,
			"opened_at": now,
		}).Error
}

// ListEmailLogs returns a filtered, paginated page of email logs, newest first
func ListEmailLogs(db *gorm.DB, filters EmailLogFilters, page, pageSize int) ([]models.EmailLog, int64, error) {
	query := db.Model(&models.EmailLog{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.CampaignID != "" {
		query = query.Where("campaign_id = ?", filters.CampaignID)
	}
	if filters.TemplateID != "" {
		query = query.Where("template_id = ?", filters.TemplateID)
	}
	if filters.Recipient != "" {
		query = query.Where("recipient_email LIKE ?", "%"+filters.Recipient+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var logs []models.EmailLog
	err := query.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}

// GetEmailStatistics aggregates the email log
func GetEmailStatistics(db *gorm.DB) (*EmailStatistics, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := db.Model(&models.EmailLog{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate email logs: %w", err)
	}

	stats := &EmailStatistics{ByStatus: map[string]int64{}}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Total += r.Count
	}
	stats.Sent = stats.ByStatus[models.EmailStatusSent]
	stats.Failed = stats.ByStatus[models.EmailStatusFailed]
	stats.Opened = stats.ByStatus[models.EmailStatusOpened]
	stats.Bounced = stats.ByStatus[models.EmailStatusBounced]

	// Opened emails were delivered too
	delivered := stats.Sent + stats.Opened
	if delivered > 0 {
		stats.OpenRate = float64(stats.Opened) / float64(delivered)
	}

	if err := db.Model(&models.EmailLog{}).
		Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).
		Count(&stats.Last7Days).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EmailCampaign{}).Count(&stats.Campaigns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EmailCampaign{}).
		Where("status IN ?", []string{models.CampaignStatusPending, models.CampaignStatusRunning}).
		Count(&stats.ActiveCampgn).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
