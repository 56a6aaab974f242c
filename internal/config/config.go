package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// Logging
	LogLevel  string
	LogFormat string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT / session cookie
	JwtSecret    string
	JwtTTL       time.Duration
	CookieSecure bool

	// Server
	ApiPort         string
	ServiceApiPort  string
	CorsAllowOrigin string // empty disables cross-origin access

	// Accounts
	AdminSignupKey         string
	HokerBootstrapPassword string
	HokerBootstrapTTL      time.Duration
	PasswordMinLength      int

	// Billing
	BillGenerationCron string
	CurrencyCode       string

	// Catalog
	CatalogCacheTTL time.Duration

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	EmailLogFile    string // also append every outgoing message to this file
	EmailMockRedis  bool   // also store outgoing messages in Redis for inspection

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseS3URL     string
	ImageMaxDimension  int
	ImageMaxSizeMB     int

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// Object storage is needed by the API (uploads) and the worker (image processing).
	if runMode == "api" || runMode == "bg" || runMode == "all" {
		for _, dst := range []struct {
			key string
			val *string
		}{
			{"AWS_ACCESS_KEY_ID", &cfg.AwsAccessKeyID},
			{"AWS_SECRET_ACCESS_KEY", &cfg.AwsSecretAccessKey},
			{"AWS_REGION", &cfg.AwsRegion},
			{"AWS_S3_BUCKET", &cfg.AwsS3Bucket},
		} {
			*dst.val, err = getRequiredEnv(dst.key)
			if err != nil {
				return nil, err
			}
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "newsdesk")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CorsAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", "")
	cfg.AdminSignupKey = getEnv("ADMIN_SIGNUP_KEY", "")
	cfg.HokerBootstrapPassword = getEnv("HOKER_BOOTSTRAP_PASSWORD", "2026")
	cfg.BillGenerationCron = getEnv("BILL_GENERATION_CRON", "0 3 1 * *")
	cfg.CurrencyCode = getEnv("CURRENCY_CODE", "INR")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@newsdesk.example.com")
	cfg.EmailLogFile = getEnv("EMAIL_LOG_FILE", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")
	cfg.AppName = getEnv("APP_NAME", "Newsdesk")

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLHours, err := strconv.ParseInt(getEnv("JWT_TTL_HOURS", "168"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLHours) * time.Hour

	cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	bootstrapTTLHours, err := strconv.ParseInt(getEnv("HOKER_BOOTSTRAP_TTL_HOURS", "720"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOKER_BOOTSTRAP_TTL_HOURS: %w", err)
	}
	cfg.HokerBootstrapTTL = time.Duration(bootstrapTTLHours) * time.Hour

	cfg.PasswordMinLength, err = strconv.Atoi(getEnv("PASSWORD_MIN_LENGTH", "6"))
	if err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_MIN_LENGTH: %w", err)
	}

	catalogTTLSeconds, err := strconv.ParseInt(getEnv("CATALOG_CACHE_TTL_SECONDS", "300"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.CatalogCacheTTL = time.Duration(catalogTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.EmailMockRedis, err = strconv.ParseBool(getEnv("EMAIL_MOCK_REDIS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_MOCK_REDIS: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "1024"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
