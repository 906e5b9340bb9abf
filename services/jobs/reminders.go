package jobs

import (
	"context"
	"log/slog"
	"time"

	"interview_booking_app_go/services"

	"gorm.io/gorm"
)

// ReminderResult counts the outcome of one reminder run
type ReminderResult struct {
	Date   string
	Sent   int
	Failed int
}

// SendBookingReminders emails every confirmed booking taking place tomorrow
// that has not been reminded yet. Failed sends are retried on the next run.
func SendBookingReminders(ctx context.Context, database *gorm.DB) ReminderResult {
	result := ReminderResult{Date: services.Now().AddDate(0, 0, 1).Format(services.DateLayout)}

	bookings, err := services.GetBookingsDueForReminder(database, result.Date)
	if err != nil {
		slog.Error("failed to fetch bookings for reminders", "date", result.Date, "error", err)
		return result
	}
	slog.Info("booking reminder job started", "date", result.Date, "bookings", len(bookings))

	for i := range bookings {
		if ctx.Err() != nil {
			break
		}
		b := &bookings[i]

		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := services.SendBookingReminder(sendCtx, database, b)
		cancel()

		if err != nil {
			result.Failed++
			slog.Error("failed to send booking reminder", "booking_id", b.ID, "error", err)
			continue
		}
		result.Sent++
	}

	slog.Info("booking reminder job completed", "date", result.Date, "sent", result.Sent, "failed", result.Failed)
	return result
}
