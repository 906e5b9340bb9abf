package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// CancelBookingRequest is the optional body of a cancellation
type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// BookingStatusRequest is the body of an admin status change
type BookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

// GuestBookingRequest is the body of POST /api/bookings. CaptchaToken is
// checked only for guests and only when Turnstile is configured.
type GuestBookingRequest struct {
	services.CreateBookingInput
	CaptchaToken string `json:"captcha_token"`
}

// AdminBookingRequest lets an admin book on behalf of a user or a guest
type AdminBookingRequest struct {
	services.CreateBookingInput
	UserID *string `json:"user_id"`
}

// loadAccessibleBooking fetches a booking the current user may access.
// Bookings of other users are reported as not found.
func loadAccessibleBooking(c echo.Context) (*models.Booking, error) {
	booking, err := services.GetBookingByID(db.DB, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !middleware.CanAccessBooking(c, booking) {
		return nil, services.ErrBookingNotFound
	}
	return booking, nil
}

// excludableBookingID returns id when the caller may reschedule that booking,
// and "" otherwise so nobody frees up seats held by someone else
func excludableBookingID(c echo.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	booking, err := services.GetBookingByID(db.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			return "", nil
		}
		return "", err
	}
	if !middleware.CanAccessBooking(c, booking) {
		return "", nil
	}
	return booking.ID, nil
}

// AvailableSlotsHandler returns the resolved slots of a date
func AvailableSlotsHandler(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required (YYYY-MM-DD)")
	}

	exclude, err := excludableBookingID(c, c.QueryParam("exclude_booking_id"))
	if err != nil {
		return err
	}

	day, err := services.GetAvailableSlots(db.DB, services.AvailabilityQuery{
		Date:             date,
		ExcludeBookingID: exclude,
	})
	if err != nil {
		return err
	}
	return ok(c, day)
}

// CreateBookingHandler books a slot for a guest or the signed-in user
func CreateBookingHandler(c echo.Context) error {
	var req GuestBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := req.CreateBookingInput
	if user := middleware.GetCurrentUser(c); user != nil {
		in.UserID = &user.ID
	} else if secret := appConfig(c).TurnstileSecretKey; secret != "" {
		if err := services.VerifyTurnstileToken(c.Request().Context(), req.CaptchaToken, secret, c.RealIP()); err != nil {
			return err
		}
	}

	booking, err := services.CreateBooking(db.DB, in)
	if err != nil {
		return err
	}

	services.NotifyBookingCreated(db.DB, booking)
	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: services.AuditResourceBooking,
		ResourceID:   booking.ID,
		Description:  fmt.Sprintf("Booking for %s at %s", booking.InterviewDate, booking.InterviewTime),
	})

	return created(c, "Booking created", booking)
}

// MyBookingsHandler lists the current user's bookings
func MyBookingsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	bookings, err := services.GetUserBookings(db.DB, user.ID)
	if err != nil {
		return err
	}
	return ok(c, bookings)
}

// GetBookingHandler returns one booking
func GetBookingHandler(c echo.Context) error {
	booking, err := loadAccessibleBooking(c)
	if err != nil {
		return err
	}
	return ok(c, booking)
}

// UpdateBookingHandler edits or reschedules a booking
func UpdateBookingHandler(c echo.Context) error {
	booking, err := loadAccessibleBooking(c)
	if err != nil {
		return err
	}

	var req services.UpdateBookingInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := services.UpdateBooking(db.DB, booking.ID, req)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       models.AuditActionUpdate,
		ResourceType: services.AuditResourceBooking,
		ResourceID:   booking.ID,
		OldValues:    map[string]string{"interview_date": booking.InterviewDate, "interview_time": booking.InterviewTime},
		NewValues:    map[string]string{"interview_date": updated.InterviewDate, "interview_time": updated.InterviewTime},
	})
	return okMessage(c, "Booking updated", updated)
}

// CancelBookingHandler cancels a booking and frees its seat
func CancelBookingHandler(c echo.Context) error {
	booking, err := loadAccessibleBooking(c)
	if err != nil {
		return err
	}

	var req CancelBookingRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	cancelled, err := services.CancelBooking(db.DB, booking.ID, req.Reason)
	if err != nil {
		return err
	}

	if booking.Status != cancelled.Status {
		services.NotifyBookingStatusChanged(db.DB, cancelled)
		services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
			Action:       models.AuditActionStatusChange,
			ResourceType: services.AuditResourceBooking,
			ResourceID:   booking.ID,
			Description:  "Booking cancelled",
			OldValues:    map[string]string{"status": booking.Status},
			NewValues:    map[string]string{"status": cancelled.Status},
		})
	}
	return okMessage(c, "Booking cancelled", cancelled)
}

// BookingConfirmationPDFHandler renders the booking confirmation as a PDF
func BookingConfirmationPDFHandler(c echo.Context) error {
	booking, err := loadAccessibleBooking(c)
	if err != nil {
		return err
	}

	pdf, err := services.GenerateBookingConfirmationPDF(c.Request().Context(), booking)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="booking-%s.pdf"`, booking.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// AdminListBookingsHandler lists bookings with filters and pagination
func AdminListBookingsHandler(c echo.Context) error {
	page, size := pageParams(c, 20, 100)
	bookings, total, err := services.ListBookings(db.DB, bookingFilters(c), page, size)
	if err != nil {
		return err
	}
	return paginated(c, bookings, page, size, total)
}

func bookingFilters(c echo.Context) services.BookingFilters {
	return services.BookingFilters{
		Status:   c.QueryParam("status"),
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Search:   c.QueryParam("search"),
		UserID:   c.QueryParam("user_id"),
	}
}

// AdminCreateBookingHandler books a confirmed slot on someone's behalf
func AdminCreateBookingHandler(c echo.Context) error {
	var req AdminBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := req.CreateBookingInput
	in.AdminCreated = true
	if req.UserID != nil && *req.UserID != "" {
		if _, err := services.GetUserByID(db.DB, *req.UserID); err != nil {
			return err
		}
		in.UserID = req.UserID
	}

	booking, err := services.CreateBooking(db.DB, in)
	if err != nil {
		return err
	}

	services.NotifyBookingCreated(db.DB, booking)
	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: services.AuditResourceBooking,
		ResourceID:   booking.ID,
		Description:  "Booking created by admin",
	})
	return created(c, "Booking created", booking)
}

// AdminUpdateBookingStatusHandler applies a status transition
func AdminUpdateBookingStatusHandler(c echo.Context) error {
	var req BookingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	before, err := services.GetBookingByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	booking, err := services.UpdateBookingStatus(db.DB, before.ID, req.Status)
	if err != nil {
		return err
	}

	if before.Status != booking.Status {
		services.NotifyBookingStatusChanged(db.DB, booking)
		services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
			Action:       models.AuditActionStatusChange,
			ResourceType: services.AuditResourceBooking,
			ResourceID:   booking.ID,
			OldValues:    map[string]string{"status": before.Status},
			NewValues:    map[string]string{"status": booking.Status},
		})
	}
	return okMessage(c, "Booking status updated", booking)
}

// AdminDeleteBookingHandler removes a booking permanently
func AdminDeleteBookingHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteBooking(db.DB, id); err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEvent{
		Action:       models.AuditActionDelete,
		ResourceType: services.AuditResourceBooking,
		ResourceID:   id,
	})
	return okMessage(c, "Booking deleted", nil)
}

// AdminExportBookingsHandler streams the filtered bookings as an XLSX workbook
func AdminExportBookingsHandler(c echo.Context) error {
	buf, err := services.ExportBookingsXLSX(db.DB, bookingFilters(c))
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", services.Today())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
