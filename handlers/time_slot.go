package handlers

import (
	"fmt"
	"net/http"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// BlockedDateRequest is the body of POST /api/admin/blocked-dates
type BlockedDateRequest struct {
	Date   string `json:"date" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

func auditAdmin(c echo.Context, action models.AuditAction, resource, id, description string) {
	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		Description:  description,
	})
}

// ListTimeSlotsHandler lists explicit slots in [from, to]; from defaults to today
func ListTimeSlotsHandler(c echo.Context) error {
	from := c.QueryParam("from")
	if from == "" {
		from = services.Today()
	}
	slots, err := services.ListTimeSlots(db.DB, from, c.QueryParam("to"))
	if err != nil {
		return err
	}
	return ok(c, slots)
}

// CreateTimeSlotHandler creates one explicit slot
func CreateTimeSlotHandler(c echo.Context) error {
	var req services.TimeSlotInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	slot, err := services.CreateTimeSlot(db.DB, req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceTimeSlot, slot.ID,
		fmt.Sprintf("Slot %s %s-%s", slot.Date, slot.StartTime, slot.EndTime))
	return created(c, "Time slot created", slot)
}

// GenerateTimeSlotsHandler creates slots over a date range
func GenerateTimeSlotsHandler(c echo.Context) error {
	var req services.GenerateSlotsInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := services.GenerateTimeSlots(db.DB, req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceTimeSlot, req.StartDate+".."+req.EndDate,
		fmt.Sprintf("Generated %d slots", result.Created))
	return created(c, fmt.Sprintf("%d time slots created", result.Created), result)
}

// UpdateTimeSlotHandler edits capacity or the active flag of a slot
func UpdateTimeSlotHandler(c echo.Context) error {
	var req services.TimeSlotUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	slot, err := services.UpdateTimeSlot(db.DB, c.Param("id"), req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionUpdate, services.AuditResourceTimeSlot, slot.ID, "Slot updated")
	return okMessage(c, "Time slot updated", slot)
}

// DeleteTimeSlotHandler deletes a slot without bookings
func DeleteTimeSlotHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteTimeSlot(db.DB, id); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceTimeSlot, id, "Slot deleted")
	return okMessage(c, "Time slot deleted", nil)
}

// ReconcileTimeSlotsHandler compares slot capacity with active bookings for a date
func ReconcileTimeSlotsHandler(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = services.Today()
	}
	report, err := services.ReconcileSlotOccupancy(db.DB, date)
	if err != nil {
		return err
	}
	return ok(c, report)
}

// ImportTimeSlotsHandler creates slots from an uploaded XLSX workbook
func ImportTimeSlotsHandler(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > services.MaxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := services.ImportTimeSlotsXLSX(db.DB, f)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceTimeSlot, fh.Filename,
		fmt.Sprintf("Imported %d slots", result.Created))
	return ok(c, result)
}

// TimeSlotImportTemplateHandler downloads the empty import workbook
func TimeSlotImportTemplateHandler(c echo.Context) error {
	buf, err := services.GenerateTimeSlotImportTemplate()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="time-slots-template.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ListTimeSlotConfigsHandler lists the weekly schedule
func ListTimeSlotConfigsHandler(c echo.Context) error {
	configs, err := services.GetTimeSlotConfigs(db.DB)
	if err != nil {
		return err
	}
	return ok(c, configs)
}

// CreateTimeSlotConfigHandler adds a weekly window
func CreateTimeSlotConfigHandler(c echo.Context) error {
	var req services.TimeSlotConfigInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cfg, err := services.CreateTimeSlotConfig(db.DB, req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceTimeSlotConfig, cfg.ID,
		fmt.Sprintf("Weekly window day %d %s-%s", cfg.DayOfWeek, cfg.StartTime, cfg.EndTime))
	return created(c, "Time slot config created", cfg)
}

// UpdateTimeSlotConfigHandler edits a weekly window
func UpdateTimeSlotConfigHandler(c echo.Context) error {
	var req services.TimeSlotConfigInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cfg, err := services.UpdateTimeSlotConfig(db.DB, c.Param("id"), req)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionUpdate, services.AuditResourceTimeSlotConfig, cfg.ID, "Weekly window updated")
	return okMessage(c, "Time slot config updated", cfg)
}

// DeleteTimeSlotConfigHandler removes a weekly window
func DeleteTimeSlotConfigHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteTimeSlotConfig(db.DB, id); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceTimeSlotConfig, id, "Weekly window deleted")
	return okMessage(c, "Time slot config deleted", nil)
}

// ListBlockedDatesHandler lists blocked dates from ?from= (default today)
func ListBlockedDatesHandler(c echo.Context) error {
	from := c.QueryParam("from")
	if from == "" {
		from = services.Today()
	}
	dates, err := services.GetBlockedDates(db.DB, from)
	if err != nil {
		return err
	}
	return ok(c, dates)
}

// CreateBlockedDateHandler blocks a whole day
func CreateBlockedDateHandler(c echo.Context) error {
	var req BlockedDateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user := middleware.GetCurrentUser(c)
	var blockedBy *string
	if user != nil {
		blockedBy = &user.ID
	}

	blocked, err := services.CreateBlockedDate(db.DB, req.Date, req.Reason, blockedBy)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceBlockedDate, blocked.ID, "Blocked "+blocked.Date)
	return created(c, "Date blocked", blocked)
}

// DeleteBlockedDateHandler unblocks a day
func DeleteBlockedDateHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteBlockedDate(db.DB, id); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceBlockedDate, id, "Blocked date removed")
	return okMessage(c, "Blocked date removed", nil)
}
