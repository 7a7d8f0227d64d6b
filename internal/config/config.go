// Package config loads the job tracker's settings from the environment.
//
// Every setting has a development default, so an empty environment starts
// a local server that logs emails instead of sending them. Load validates
// the result and reports every problem at once.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/job-tracker/internal/reminder"
)

// Email transport names accepted in EMAIL_TRANSPORT.
const (
	TransportSMTP = "smtp"
	TransportLog  = "log"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	GitHub   GitHubConfig
	Reminder ReminderConfig
	Email    EmailConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// GitHubConfig holds the optional GitHub sign-in credentials.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// ReminderConfig controls the deadline reminder scheduler.
type ReminderConfig struct {
	Enabled  bool
	Schedule string
	LeadDays int
	Timezone string
}

// EmailConfig selects and configures the outbound mail transport.
type EmailConfig struct {
	Transport string
	From      string
	SMTP      SMTPConfig
}

// SMTPConfig holds the relay settings used when Transport is "smtp".
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	Timeout  time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with sensible
// defaults and validates it.
func Load() (*Config, error) {
	smtpHost := getEnv("SMTP_HOST", "")
	defaultTransport := TransportLog
	if smtpHost != "" {
		defaultTransport = TransportSMTP
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntEnv("PORT", 5000),
			AllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/jobtracker.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getDurationEnv("JWT_TTL", 2*time.Hour),
		},
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),
		},
		Reminder: ReminderConfig{
			Enabled:  getBoolEnv("ENABLE_REMINDERS", false),
			Schedule: getEnv("CRON_TIME", reminder.DefaultSpec),
			LeadDays: getIntEnv("REMINDER_LEAD_DAYS", reminder.DefaultLeadDays),
			Timezone: getEnv("REMINDER_TZ", "Local"),
		},
		Email: EmailConfig{
			Transport: strings.ToLower(getEnv("EMAIL_TRANSPORT", defaultTransport)),
			From:      getEnv("EMAIL_FROM", ""),
			SMTP: SMTPConfig{
				Host:     smtpHost,
				Port:     getIntEnv("SMTP_PORT", 587),
				Secure:   getBoolEnv("SMTP_SECURE", false),
				Username: getEnv("SMTP_USER", ""),
				Password: getEnv("SMTP_PASS", ""),
				Timeout:  getDurationEnv("SMTP_TIMEOUT", 0),
			},
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}

	// An empty secret is allowed here; the HTTP server refuses to start
	// without one, the one-shot reminder command does not need it.
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	if c.GitHub.IsConfigured() {
		if err := c.GitHub.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("GitHub OAuth: %w", err))
		}
	}

	if err := reminder.ValidateSpec(c.Reminder.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("CRON_TIME: %w", err))
	}
	if c.Reminder.LeadDays < 1 {
		errs = append(errs, fmt.Errorf("REMINDER_LEAD_DAYS must be at least 1, got %d", c.Reminder.LeadDays))
	}
	if _, err := c.Reminder.Location(); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_TZ: %w", err))
	}

	switch c.Email.Transport {
	case TransportLog:
	case TransportSMTP:
		if err := c.Email.SMTP.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("SMTP: %w", err))
		}
		if c.Email.From == "" {
			errs = append(errs, errors.New("EMAIL_FROM is required when EMAIL_TRANSPORT is smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_TRANSPORT must be 'smtp' or 'log', got '%s'", c.Email.Transport))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got '%s'", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IsConfigured returns true if any GitHub OAuth field is set.
// CallbackURL is excluded because Load fills in a default.
func (g GitHubConfig) IsConfigured() bool {
	return g.ClientID != "" || g.ClientSecret != ""
}

// Validate checks that all required GitHub OAuth fields are present.
func (g GitHubConfig) Validate() error {
	var missing []string
	if g.ClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if g.ClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if g.CallbackURL == "" {
		missing = append(missing, "GITHUB_CALLBACK_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the relay settings.
func (s SMTPConfig) Validate() error {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if s.Username != "" && s.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the host's zone.
func (r ReminderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

// NewLogger builds the application logger writing to w.
// Level and Format are assumed valid; unknown values fall back to info/text.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", s)
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
