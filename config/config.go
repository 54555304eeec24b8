package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBUrl          string
	Environment    string
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxUploadBytes int64

	Upload UploadConfig
	Email  EmailConfig
	Auth   AuthConfig
}

// UploadConfig configures where event cover images go.
type UploadConfig struct {
	Provider        string // s3 or noop
	Timeout         time.Duration
	Folder          string
	MaxWidth        int
	MaxPixels       int
	PublicBaseURL   string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// EmailConfig configures booking confirmation mail.
type EmailConfig struct {
	Provider    string // ses or noop
	FromAddress string
	FromName    string
	SESRegion   string
}

// AuthConfig configures organizer tokens. An empty secret leaves event writes open.
type AuthConfig struct {
	JWTSecret string
}

// Production reports whether GO_ENV is production.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production the environment is the only source.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	var errs []error
	cfg := &Config{
		Environment:    env,
		DBUrl:          os.Getenv("DATABASE_URL"),
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RequestTimeout: duration("REQUEST_TIMEOUT", 10*time.Second, &errs),
		MaxUploadBytes: int64(integer("MAX_UPLOAD_BYTES", 10<<20, &errs)),
		Upload: UploadConfig{
			Provider:        getenv("UPLOAD_PROVIDER", "s3"),
			Timeout:         duration("UPLOAD_TIMEOUT", 2*time.Minute, &errs),
			Folder:          getenv("UPLOAD_FOLDER", "dev-events"),
			MaxWidth:        integer("UPLOAD_MAX_WIDTH", 1600, &errs),
			MaxPixels:       integer("UPLOAD_MAX_PIXELS", 40_000_000, &errs),
			PublicBaseURL:   os.Getenv("UPLOAD_PUBLIC_BASE_URL"),
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getenv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Email: EmailConfig{
			Provider:    getenv("EMAIL_PROVIDER", "noop"),
			FromAddress: os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:    getenv("EMAIL_FROM_NAME", "DevEvents"),
			SESRegion:   getenv("SES_REGION", "us-east-1"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		},
	}
	if cfg.DBUrl == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func integer(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive integer %q", key, v))
		return fallback
	}
	return n
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
