package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// AuditContext contains contextual information for audit logging
type AuditContext struct {
	UserID    string
	UserName  string
	UserRole  string
	IPAddress string
	UserAgent string
}

// AuditEvent describes one change to record
type AuditEvent struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// Audited resource types
const (
	AuditResourceBooking        = "Booking"
	AuditResourceUser           = "User"
	AuditResourceTimeSlot       = "TimeSlot"
	AuditResourceTimeSlotConfig = "TimeSlotConfig"
	AuditResourceBlockedDate    = "BlockedDate"
	AuditResourceEmailTemplate  = "EmailTemplate"
	AuditResourceEmailCampaign  = "EmailCampaign"
	AuditResourceDocument       = "Document"
)

func newAuditLog(ctx AuditContext, ev AuditEvent) models.AuditLog {
	var oldJSON, newJSON string
	if ev.OldValues != nil {
		if b, err := json.Marshal(ev.OldValues); err == nil {
			oldJSON = string(b)
		}
	}
	if ev.NewValues != nil {
		if b, err := json.Marshal(ev.NewValues); err == nil {
			newJSON = string(b)
		}
	}

	return models.AuditLog{
		UserID:       optionalString(ctx.UserID),
		UserName:     ctx.UserName,
		UserRole:     ctx.UserRole,
		ResourceType: ev.ResourceType,
		ResourceID:   ev.ResourceID,
		Action:       ev.Action,
		Description:  ev.Description,
		OldValues:    oldJSON,
		NewValues:    newJSON,
		IPAddress:    ctx.IPAddress,
		UserAgent:    ctx.UserAgent,
	}
}

// RecordAuditEvent writes an audit log entry synchronously
func RecordAuditEvent(db *gorm.DB, ctx AuditContext, ev AuditEvent) error {
	entry := newAuditLog(ctx, ev)
	return db.Create(&entry).Error
}

// LogAuditEvent creates a new audit log entry asynchronously
func LogAuditEvent(db *gorm.DB, ctx AuditContext, ev AuditEvent) {
	go func() {
		if err := RecordAuditEvent(db, ctx, ev); err != nil {
			slog.Error("failed to create audit log", "resource_type", ev.ResourceType, "resource_id", ev.ResourceID, "error", err)
		}
	}()
}

// LogSecurityEvent logs a security event and persists it asynchronously
func LogSecurityEvent(db *gorm.DB, ctx AuditContext, eventType, details string) {
	slog.Warn("security event", "event", eventType, "user_id", ctx.UserID, "ip", ctx.IPAddress, "details", details)

	LogAuditEvent(db, ctx, AuditEvent{
		Action:       models.AuditActionSecurity,
		ResourceType: "SECURITY_EVENT",
		ResourceID:   eventType,
		Description:  details,
	})
}

// AuditLogFilters contains filter options for audit log queries
type AuditLogFilters struct {
	UserID       string
	ResourceType string
	ResourceID   string
	Action       string
	DateFrom     time.Time
	DateTo       time.Time
	SearchQuery  string
}

// ListAuditLogs retrieves paginated audit logs, newest first
func ListAuditLogs(db *gorm.DB, filters AuditLogFilters, page, pageSize int) ([]models.AuditLog, int64, error) {
	query := db.Model(&models.AuditLog{})

	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.ResourceType != "" {
		query = query.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.ResourceID != "" {
		query = query.Where("resource_id = ?", filters.ResourceID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filters.DateTo)
	}
	if filters.SearchQuery != "" {
		pattern := "%" + filters.SearchQuery + "%"
		query = query.Where("description LIKE ? OR user_name LIKE ?", pattern, pattern)
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

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}
