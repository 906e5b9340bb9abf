package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// MinJWTSecretLength is the minimum required length for the JWT signing secret in production
	MinJWTSecretLength = 32
)

type Config struct {
	ServerPort  string
	Environment string
	UploadDir   string
	// Database
	DBDriver         string // sqlite, postgres, libsql
	DBPath           string
	DatabaseURL      string
	TursoDatabaseURL string
	TursoAuthToken   string
	// Auth
	JWTSecret      string
	JWTExpiryHours int
	// Scheduling
	AppTimezone          string
	AllowWeekendBookings bool
	// Email
	EmailProvider string // resend or smtp
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPUseTLS    bool
	// Bulk email pacing
	BulkEmailBatchSize int
	BulkEmailDelayMS   int
	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
	// Other
	AllowedOrigins []string
	AppURL         string
	ChromePath     string

	// Cloudflare Turnstile; guest bookings require a captcha when set
	TurnstileSecretKey string
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	jwtSecret := getEnv("JWT_SECRET", "")

	// Fatal in production if the secret is weak
	ValidateJWTSecret(jwtSecret, environment)

	if jwtSecret == "" && environment != "production" {
		jwtSecret = GenerateSecureSecret()
		log.Println("[INFO] Generated temporary JWT secret for development. Set JWT_SECRET env var so tokens survive restarts.")
	}

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		Environment:          environment,
		UploadDir:            getEnv("UPLOAD_DIR", "uploads"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:               getEnv("DB_PATH", "db/app.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:     getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:       getEnv("TURSO_AUTH_TOKEN", ""),
		JWTSecret:            jwtSecret,
		JWTExpiryHours:       getEnvInt("JWT_EXPIRY_HOURS", 24),
		AppTimezone:          getEnv("APP_TIMEZONE", "UTC"),
		AllowWeekendBookings: getEnvBool("ALLOW_WEEKEND_BOOKINGS", false),
		EmailProvider:        strings.ToLower(getEnv("EMAIL_PROVIDER", "resend")),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		EmailFrom:            getEnv("EMAIL_FROM", "noreply@interviews.local"),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Interview Booking"),
		EmailTestMode:        getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:           getEnvBool("SMTP_USE_TLS", false),
		BulkEmailBatchSize:   getEnvInt("BULK_EMAIL_BATCH_SIZE", 50),
		BulkEmailDelayMS:     getEnvInt("BULK_EMAIL_DELAY_MS", 1000),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		LogFile:              getEnv("LOG_FILE", ""),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:               getEnv("APP_URL", "http://localhost:8080"),
		ChromePath:           getEnv("CHROME_PATH", ""),
		TurnstileSecretKey:   getEnv("TURNSTILE_SECRET_KEY", ""),
		R2AccountID:          getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:        getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:         getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:          getEnv("R2_PUBLIC_URL", ""),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("[WARNING] %s=%q is not a number, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// ValidateJWTSecret validates the JWT signing secret.
// In production it must be at least 32 bytes and not a known insecure default.
func ValidateJWTSecret(secret string, environment string) error {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal("[CRITICAL] JWT_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			return nil
		}
	}

	if environment == "production" && len(secret) < MinJWTSecretLength {
		log.Fatalf("[CRITICAL] JWT_SECRET must be at least %d characters in production (current: %d). Generate with: openssl rand -base64 32", MinJWTSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret.
// Only used in development when no secret is provided.
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("[WARNING] Failed to generate secure secret: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
