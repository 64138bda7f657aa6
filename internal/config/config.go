package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BackendConfig describes the booking REST backend the portal delegates to.
type BackendConfig struct {
	BaseURL         string
	Timeout         time.Duration
	DialTimeout     time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration
	MaxIdleConns    int
	// RateLimit is the outbound requests-per-second budget. Zero disables throttling.
	RateLimit float64
	RateBurst int
}

// SessionConfig controls the portal session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// CryptoConfig holds the secret used to encrypt identifiers exposed to the browser.
type CryptoConfig struct {
	IDSecret string
}

// AvatarConfig limits profile picture uploads.
type AvatarConfig struct {
	MaxBytes   int64
	PresignTTL time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Backend  BackendConfig
	Session  SessionConfig
	Crypto   CryptoConfig
	Avatar   AvatarConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "avatars"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Backend: BackendConfig{
			BaseURL:         getEnv("BACKEND_BASE_URL", ""),
			Timeout:         getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
			DialTimeout:     getEnvDuration("BACKEND_DIAL_TIMEOUT", 5*time.Second),
			ResponseHeader:  getEnvDuration("BACKEND_RESPONSE_HEADER_TIMEOUT", 10*time.Second),
			IdleConnTimeout: getEnvDuration("BACKEND_IDLE_CONN_TIMEOUT", 90*time.Second),
			MaxIdleConns:    getEnvInt("BACKEND_MAX_IDLE_CONNS", 20),
			RateLimit:       getEnvFloat("BACKEND_RATE_LIMIT", 0),
			RateBurst:       getEnvInt("BACKEND_RATE_BURST", 10),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE", "carebook_session"),
			TTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
			Secure:     getEnvBool("SESSION_SECURE", false),
		},
		Crypto: CryptoConfig{
			IDSecret: getEnv("ID_ENCRYPTION_SECRET", ""),
		},
		Avatar: AvatarConfig{
			MaxBytes:   int64(getEnvInt("AVATAR_MAX_BYTES", 2<<20)),
			PresignTTL: getEnvDuration("AVATAR_URL_TTL", 15*time.Minute),
		},
	}
}

// Validate reports the required settings that are missing.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("BACKEND_BASE_URL is required"))
	}
	if c.Crypto.IDSecret == "" {
		errs = append(errs, errors.New("ID_ENCRYPTION_SECRET is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Avatar.MaxBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, errors.New("APP_TIMEZONE is not a valid location"))
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
