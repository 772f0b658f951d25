// Package config loads the server configuration from the environment.
//
// Values come from real environment variables first; a .env file, if
// present, only fills in what the environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/report-portal/internal/upload/s3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is everything the server needs to start.
type Config struct {
	Port int
	Env  string

	// DatabaseURL selects the backend by scheme: mongodb:// and
	// mongodb+srv:// go to MongoDB, anything else is a SQLite path.
	DatabaseURL  string
	DatabaseName string

	JWTSecret string
	TokenTTL  time.Duration

	Storage s3.Config

	MaxReportBytes int64
	MaxUploadBytes int64

	CORSAllowedOrigins []string
}

// IsProduction reports whether internal error details must stay hidden.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

var requiredVars = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"STORAGE_BUCKET",
	"STORAGE_ACCESS_KEY",
	"STORAGE_SECRET_KEY",
}

// Load reads the given .env files (default ".env"), then builds a Config
// from the environment. A missing .env file is not an error.
//
// Every missing required variable is named in a single error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	var missing []string
	for _, key := range requiredVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	storage := s3.DefaultConfig()
	storage.Bucket = os.Getenv("STORAGE_BUCKET")
	storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	storage.SecretKey = os.Getenv("STORAGE_SECRET_KEY")
	storage.Region = getEnv("STORAGE_REGION", storage.Region)
	storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")
	storage.PublicBaseURL = os.Getenv("STORAGE_PUBLIC_URL")

	cfg := Config{
		Env:                getEnv("APP_ENV", EnvDevelopment),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DatabaseName:       getEnv("DATABASE_NAME", "report_portal"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		Storage:            storage,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	var errs []error
	var err error
	if cfg.Port, err = getInt("PORT", 8000); err != nil {
		errs = append(errs, err)
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxReportBytes, err = getBytes("MAX_REPORT_BYTES", 10<<20); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxUploadBytes, err = getBytes("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getBytes(key string, fallback int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive byte count, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration like 1h or 30m, got %q", key, v)
	}
	return d, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
