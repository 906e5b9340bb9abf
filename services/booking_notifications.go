package services

import (
	"context"
	"log/slog"
	"strings"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

const appName = "Interview Booking"

// BookingEmailData contains data for the booking email templates
type BookingEmailData struct {
	ClientName    string
	Date          string
	Time          string
	InterviewType string
	Status        string
	BookingID     string
	ManageURL     string
	Reason        string
	AppName       string
}

func bookingEmailData(b *models.Booking) BookingEmailData {
	date := b.InterviewDate
	if t, err := ParseDate(b.InterviewDate); err == nil {
		date = t.Format("Monday, January 2, 2006")
	}

	data := BookingEmailData{
		ClientName:    b.ClientName,
		Date:          date,
		Time:          b.InterviewTime,
		InterviewType: strings.ReplaceAll(b.InterviewType, "_", " "),
		Status:        b.Status,
		BookingID:     b.ID,
		AppName:       appName,
	}
	if appURL != "" {
		data.ManageURL = appURL + "/bookings/" + b.ID
	}
	if b.CancellationReason != nil {
		data.Reason = *b.CancellationReason
	}
	return data
}

// BuildBookingConfirmationEmail creates the email sent when a booking is created
func BuildBookingConfirmationEmail(b *models.Booking) (*Email, error) {
	return buildEmail("booking_confirmation", bookingEmailData(b), b.ClientEmail, "Interview booking received - "+b.InterviewDate+" "+b.InterviewTime)
}

// BuildBookingStatusEmail creates the email sent when a booking changes status
func BuildBookingStatusEmail(b *models.Booking) (*Email, error) {
	return buildEmail("booking_status", bookingEmailData(b), b.ClientEmail, "Your interview booking is "+b.Status)
}

// BuildBookingReminderEmail creates the day-before reminder
func BuildBookingReminderEmail(b *models.Booking) (*Email, error) {
	return buildEmail("booking_reminder", bookingEmailData(b), b.ClientEmail, "Reminder: interview on "+b.InterviewDate+" at "+b.InterviewTime)
}

// notifyAsync sends a system email in the background and logs the attempt
func notifyAsync(db *gorm.DB, b *models.Booking, build func(*models.Booking) (*Email, error)) {
	email, err := build(b)
	if err != nil {
		slog.Error("failed to build booking email", "booking_id", b.ID, "error", err)
		return
	}

	recipientID := b.UserID
	SendEmailAsync(email, func(sendErr error) {
		RecordEmailLog(db, emailLogEntry{
			RecipientID: recipientID,
			Email:       b.ClientEmail,
			Subject:     email.Subject,
			Err:         sendErr,
		})
	})
}

// NotifyBookingCreated emails the candidate a confirmation of their booking
func NotifyBookingCreated(db *gorm.DB, b *models.Booking) {
	notifyAsync(db, b, BuildBookingConfirmationEmail)
}

// NotifyBookingStatusChanged emails the candidate the booking's new status
func NotifyBookingStatusChanged(db *gorm.DB, b *models.Booking) {
	notifyAsync(db, b, BuildBookingStatusEmail)
}

// SendBookingReminder sends the reminder synchronously, records it, and
// stamps reminder_sent_at on success
func SendBookingReminder(ctx context.Context, db *gorm.DB, b *models.Booking) error {
	email, err := BuildBookingReminderEmail(b)
	if err != nil {
		return err
	}

	sendErr := SendEmail(ctx, email)
	RecordEmailLog(db, emailLogEntry{
		RecipientID: b.UserID,
		Email:       b.ClientEmail,
		Subject:     email.Subject,
		Err:         sendErr,
	})
	if sendErr != nil {
		return sendErr
	}
	return MarkReminderSent(db, b.ID)
}
