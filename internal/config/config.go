package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Signing secrets
	QRSecretKey string
	JWTSecret   string

	// Brevo email configuration
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	// Membership configuration
	DefaultMembershipDays    int
	AccessWindowBufferHours  int
	SweepIntervalMinutes     int
	ReminderDaysBeforeExpiry int
	CheckInLockSeconds       int

	// Receipt upload configuration
	ReceiptUploadDir string

	ServiceName string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                     getEnv("PORT", "8080"),
		Mode:                     getEnv("GIN_MODE", "debug"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", "redis://localhost:6379/0"),
		QRSecretKey:              getEnv("QR_SECRET_KEY", ""),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		BrevoAPIKey:              getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:           getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:            getEnv("BREVO_FROM_NAME", "Gym Membership"),
		DefaultMembershipDays:    getEnvInt("DEFAULT_MEMBERSHIP_DAYS", 30),
		AccessWindowBufferHours:  getEnvInt("ACCESS_WINDOW_BUFFER_HOURS", 2),
		SweepIntervalMinutes:     getEnvInt("SWEEP_INTERVAL_MINUTES", 60),
		ReminderDaysBeforeExpiry: getEnvInt("REMINDER_DAYS_BEFORE_EXPIRY", 3),
		CheckInLockSeconds:       getEnvInt("CHECKIN_LOCK_SECONDS", 10),
		ReceiptUploadDir:         getEnv("RECEIPT_UPLOAD_DIR", "./uploads/receipts"),
		ServiceName:              getEnv("SERVICE_NAME", "Membership Service"),
	}

	return nil
}

// Validate checks that required secrets are present. HMAC with an empty key
// still produces signatures, so an unset QR secret would silently issue
// forgeable codes; refuse to start instead.
func (c *Config) Validate() error {
	if c.QRSecretKey == "" {
		return fmt.Errorf("QR_SECRET_KEY is not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
