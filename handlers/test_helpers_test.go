package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"interview_booking_app_go/config"
	"interview_booking_app_go/db"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret = "handlers-test-secret-0123456789abcdef"
	testPassword  = "Sup3rSecret!pass"
)

// Friday 2025-03-07 10:00 UTC; the next bookable weekday is Monday 2025-03-10
var testNow = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

var ipCounter atomic.Uint32

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "handlers_" + uuid.New().String()
	return openTestDB(t, "file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000", 1)
}

// setupFileTestDB uses a file database with the server's SQLite settings and
// several connections, so concurrent requests run overlapping transactions
func setupFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, db.SQLiteDSN(filepath.Join(t.TempDir(), "handlers.db")), 8)
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

	require.NoError(t, testDB.AutoMigrate(
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
	))

	// Set global DB
	prevDB := db.DB
	db.DB = testDB

	prevMail, prevStorage := services.Mail, services.Storage
	services.Mail = services.ConsoleMailer{}
	services.Storage = services.NewLocalStorage(t.TempDir())

	require.NoError(t, services.ConfigureScheduling("UTC", false))
	restoreClock := services.SetNowFunc(func() time.Time { return testNow })

	t.Cleanup(func() {
		restoreClock()
		services.Mail, services.Storage = prevMail, prevStorage
		db.DB = prevDB
		sqlDB.Close()
	})
	return testDB
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		Environment:        "test",
		JWTSecret:          testJWTSecret,
		JWTExpiryHours:     1,
		AppURL:             "https://app.test",
		BulkEmailBatchSize: 10,
		BulkEmailDelayMS:   0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	RegisterRoutes(e, cfg)
	return e
}

func createUser(t *testing.T, testDB *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  hash,
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := services.GenerateToken(testJWTSecret, user, time.Hour)
	require.NoError(t, err)
	return token
}

func addConfig(t *testing.T, testDB *gorm.DB, day int, start, end string, capacity int) {
	t.Helper()
	require.NoError(t, testDB.Create(&models.TimeSlotConfig{
		DayOfWeek:    day,
		StartTime:    start,
		EndTime:      end,
		SlotDuration: 60,
		MaxCapacity:  capacity,
		IsActive:     true,
	}).Error)
}

// nextIP gives every request its own client address so the shared rate
// limiters never trip across tests
func nextIP() string {
	n := ipCounter.Add(1)
	return fmt.Sprintf("10.%d.%d.%d", (n>>16)&0xff, (n>>8)&0xff, n&0xff)
}

func doRequest(t *testing.T, e *echo.Echo, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	req.Header.Set(echo.HeaderXRealIP, nextIP())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// decodeResponse unmarshals the envelope, decoding data into out when given
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var env struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Response
}

func strPtr(s string) *string { return &s }
