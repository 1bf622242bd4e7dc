package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort    string
	JWTSecret   string
	JWTExpires  time.Duration
	LogLevel    string
	CORSOrigins []string

	Database Database
	Email    Email
	Storage  Storage
}

// Database selects the SQL driver ("sqlite" or "pgx") and its DSN.
type Database struct {
	Driver string
	DSN    string
}

type Email struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Storage configures the S3-compatible bucket that holds item images.
type Storage struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
}

var required = []string{
	"PORT",
	"JWT_SECRET",
	"JWT_EXPIRES_IN",
	"EMAIL_HOST",
	"EMAIL_PORT",
	"EMAIL_USER",
	"EMAIL_PASS",
	"S3_BUCKET",
	"S3_ACCESS_KEY",
	"S3_SECRET_KEY",
}

// Load reads configuration from environment variables. Every missing
// required variable is reported in the returned error.
func Load() (Config, error) {
	var errs []error
	for _, key := range required {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}

	port := os.Getenv("PORT")
	if _, err := strconv.Atoi(port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", port))
	}

	expires, err := ParseExpiry(os.Getenv("JWT_EXPIRES_IN"))
	if err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN: %w", err))
	}

	emailPort, err := strconv.Atoi(os.Getenv("EMAIL_PORT"))
	if err != nil {
		errs = append(errs, fmt.Errorf("EMAIL_PORT must be numeric, got %q", os.Getenv("EMAIL_PORT")))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}

	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = os.Getenv("EMAIL_USER")
	}

	return Config{
		HTTPPort:    port,
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTExpires:  expires,
		LogLevel:    getenv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:8810,http://localhost:3300")),
		Database:    LoadDatabase(),
		Email: Email{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     emailPort,
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     from,
		},
		Storage: Storage{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}, nil
}

// LoadDatabase reads only the database settings. Commands that never
// serve HTTP use it so they do not need the full environment.
func LoadDatabase() Database {
	return Database{
		Driver: getenv("DATABASE_DRIVER", "sqlite"),
		DSN:    getenv("DATABASE_DSN", "inventory.db"),
	}
}

// ParseExpiry accepts Go durations ("90m", "12h"), day and week
// suffixes ("1d", "7d", "2w") and bare numbers, which count seconds.
func ParseExpiry(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else if unit := s[len(s)-1]; unit == 'd' || unit == 'w' {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		d = time.Duration(n) * 24 * time.Hour
		if unit == 'w' {
			d *= 7
		}
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", raw)
	}
	return d, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
