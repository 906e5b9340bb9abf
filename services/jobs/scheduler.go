package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"interview_booking_app_go/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderSchedule runs the reminder job daily at 08:00 in the app timezone
const ReminderSchedule = "0 8 * * *"

// TokenCleanupSchedule purges expired password reset tokens hourly
const TokenCleanupSchedule = "@hourly"

// StartScheduler resumes campaigns interrupted by the last shutdown and
// schedules the recurring jobs. The caller stops the returned cron on shutdown.
func StartScheduler(database *gorm.DB, runner *services.CampaignRunner) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(services.Location()))

	_, err := c.AddFunc(ReminderSchedule, func() {
		SendBookingReminders(context.Background(), database)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	_, err = c.AddFunc(TokenCleanupSchedule, func() {
		if _, err := services.CleanupExpiredResetTokens(database); err != nil {
			slog.Error("reset token cleanup failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}

	if runner != nil {
		runner.ResumeInterrupted()
	}

	c.Start()
	slog.Info("scheduler started", "reminders", ReminderSchedule, "timezone", services.Location().String())
	return c, nil
}
