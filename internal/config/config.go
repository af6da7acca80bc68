// Package config reads the weblog's settings from the environment. A .env
// file in the working directory is loaded first.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Default admin credentials for development.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// StoreURL and AccessKey are required; a missing one is reported by
	// Warnings and the server still starts.
	StoreURL  string `env:"WEBLOG_STORE_URL"`
	AccessKey string `env:"WEBLOG_ACCESS_KEY"`

	ContentPath string `env:"WEBLOG_CONTENT_PATH" envDefault:"content.yaml"`
	PublicURL   string `env:"WEBLOG_PUBLIC_URL"   envDefault:"http://localhost:8080"`
	DefaultLang string `env:"WEBLOG_DEFAULT_LANG" envDefault:"en"`
	RecentPosts int    `env:"WEBLOG_RECENT_POSTS" envDefault:"3"`

	SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	ToEmail  string `env:"TO_EMAIL"`

	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	AdminSecret   string        `env:"ADMIN_SECRET"`
	SessionTTL    time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`

	VisitorRetention time.Duration `env:"WEBLOG_VISITOR_RETENTION" envDefault:"8760h"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// FromMap parses settings from vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SMTPConfigured reports whether contact mail can be sent.
func (c Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != ""
}

// Warnings lists the startup problems worth logging. None of them stop the
// server.
func (c Config) Warnings() []string {
	var out []string
	if c.StoreURL == "" {
		out = append(out, "WEBLOG_STORE_URL is not set; blog storage is disabled")
	}
	if c.AccessKey == "" {
		out = append(out, "WEBLOG_ACCESS_KEY is not set; every API call will be rejected")
	}
	if !c.SMTPConfigured() {
		out = append(out, "SMTP credentials not configured; contact messages will not be delivered")
	}
	if c.AdminUsername == DefaultAdminUsername {
		out = append(out, "Using default admin username. Set ADMIN_USERNAME environment variable.")
	}
	if c.AdminPassword == DefaultAdminPassword {
		out = append(out, "Using default admin password. Set ADMIN_PASSWORD environment variable.")
	}
	if c.AdminSecret == "" {
		out = append(out, "ADMIN_SECRET is not set; admin sessions end when the server restarts")
	}
	return out
}
