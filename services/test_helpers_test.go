package services

import (
	"path/filepath"
	"testing"
	"time"

	"interview_booking_app_go/db"
	"interview_booking_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with a single connection,
// which serializes transactions the way row locks do on PostgreSQL.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, "file:svc_"+uuid.New().String()+"?mode=memory&cache=shared&_busy_timeout=5000", 1)
}

// setupFileTestDB opens a file database with the server's SQLite settings and
// a real connection pool, so concurrent transactions actually overlap
func setupFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, db.SQLiteDSN(filepath.Join(t.TempDir(), "bookings.db")), 8)
}

func openTestDB(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { sqlDB.Close() })

	err = testDB.AutoMigrate(
		&models.User{},
		&models.TimeSlotConfig{},
		&models.TimeSlot{},
		&models.BlockedDate{},
		&models.Booking{},
		&models.Document{},
		&models.EmailTemplate{},
		&models.EmailLog{},
		&models.EmailCampaign{},
		&models.AuditLog{},
		&models.PasswordResetToken{},
	)
	require.NoError(t, err)

	return testDB
}

// useClock pins "now" and the weekend policy for the duration of a test
func useClock(t *testing.T, now time.Time, weekends bool) {
	t.Helper()
	require.NoError(t, ConfigureScheduling("UTC", weekends))
	restore := SetNowFunc(func() time.Time { return now })
	t.Cleanup(func() {
		restore()
		_ = ConfigureScheduling("UTC", false)
	})
}

func addConfig(t *testing.T, db *gorm.DB, day int, start, end string, duration, capacity int) {
	t.Helper()
	require.NoError(t, db.Create(&models.TimeSlotConfig{
		DayOfWeek:    day,
		StartTime:    start,
		EndTime:      end,
		SlotDuration: duration,
		MaxCapacity:  capacity,
		IsActive:     true,
	}).Error)
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)
	u := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  hash,
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func guestBooking(date, at string) CreateBookingInput {
	return CreateBookingInput{
		ClientName:    "Jane Candidate",
		ClientEmail:   "jane@example.com",
		InterviewDate: date,
		InterviewTime: at,
	}
}

func strPtr(s string) *string { return &s }
