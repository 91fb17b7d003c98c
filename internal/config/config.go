// Package config holds the service configuration, loaded from the
// environment over compiled-in defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database file.
	DBPath string

	// AppURL is the public base URL, used to build invite links in
	// reminder notifications.
	AppURL string

	// JWTSecret signs session tokens. TokenDuration bounds their
	// validity.
	JWTSecret     string
	TokenDuration time.Duration

	// MatchWindow is the span from the oldest queued entry within
	// which enough entries must accumulate to form a group.
	MatchWindow time.Duration

	// MinMembers and MaxMembers bound the size of a matched group.
	MinMembers int
	MaxMembers int

	// CompletionWindow is how long a group stays INPROGRESS before the
	// delayed COMPLETE transition fires.
	CompletionWindow time.Duration

	// QueueSweepInterval is how often the background sweep re-runs the
	// batcher (and with it the reminder dispatcher).
	QueueSweepInterval time.Duration

	// SMTP settings for outbound mail. Mail is disabled (logged only)
	// when SMTPHost is empty.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:               8080,
		DBPath:             "./data/community.db",
		AppURL:             "",
		JWTSecret:          "dev-secret-change-me",
		TokenDuration:      24 * time.Hour,
		MatchWindow:        48 * time.Hour,
		MinMembers:         5,
		MaxMembers:         25,
		CompletionWindow:   14 * 24 * time.Hour,
		QueueSweepInterval: time.Hour,
		SMTPPort:           587,
		MailFrom:           "20 Tester Community <no-reply@20testercommunity.com>",
	}
}

// Load returns the default configuration overlaid with environment
// variables.
func Load() Config {
	cfg := Default()

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("APP_URL"); v != "" {
		cfg.AppURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_DURATION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TokenDuration = time.Duration(n) * time.Hour
		}
	}
	if v := os.Getenv("MATCH_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MatchWindow = time.Duration(n) * time.Hour
		}
	}
	if v := os.Getenv("MIN_MEMBERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinMembers = n
		}
	}
	if v := os.Getenv("MAX_MEMBERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxMembers = n
		}
	}
	if v := os.Getenv("COMPLETION_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CompletionWindow = time.Duration(n) * 24 * time.Hour
		}
	}
	if v := os.Getenv("QUEUE_SWEEP_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueSweepInterval = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTPPassword = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		cfg.MailFrom = v
	}

	return cfg
}

// InviteLink builds the link included in queue reminders.
func (c Config) InviteLink() string {
	if c.AppURL == "" {
		return "/group/create"
	}
	base := c.AppURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/group/create"
}
