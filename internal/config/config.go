package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds all configuration for the ganalytics reporter.
// Values are loaded from environment variables; see printUsage() for the full list.
// It is built once at startup and never mutated.
type Config struct {
	PropertyID      string `json:"ga_property_id"`
	WebhookURL      string `json:"discord_webhook_url"`
	CredentialsJSON string `json:"-"`

	HTTPAddr string `json:"http_addr"`

	ReportInterval    time.Duration `json:"-"`
	ReportIntervalStr string        `json:"report_interval"`

	// ReportCron, when set, replaces the fixed interval with a cron
	// expression evaluated in UTC.
	ReportCron string `json:"report_cron,omitempty"`

	FetchTimeout    time.Duration `json:"-"`
	FetchTimeoutStr string        `json:"fetch_timeout"`

	NotifyTimeout    time.Duration `json:"-"`
	NotifyTimeoutStr string        `json:"notify_timeout"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`
	MetricsPort    string `json:"metrics_port"`

	RedisAddr string `json:"redis_addr,omitempty"`

	RunLogRetention    time.Duration `json:"-"`
	RunLogRetentionStr string        `json:"runlog_retention"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		PropertyID:             os.Getenv("GA_PROPERTY_ID"),
		WebhookURL:             os.Getenv("DISCORD_WEBHOOK_URL"),
		CredentialsJSON:        os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		ReportIntervalStr:      os.Getenv("REPORT_INTERVAL"),
		ReportCron:             os.Getenv("REPORT_CRON"),
		FetchTimeoutStr:        os.Getenv("FETCH_TIMEOUT"),
		NotifyTimeoutStr:       os.Getenv("NOTIFY_TIMEOUT"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		MetricsPort:            os.Getenv("METRICS_PORT"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RunLogRetentionStr:     os.Getenv("RUNLOG_RETENTION"),
	}

	// Support platform PORT variables as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":5000"
		}
	}
	if cfg.ReportIntervalStr == "" {
		cfg.ReportIntervalStr = "10m"
	}
	if cfg.FetchTimeoutStr == "" {
		cfg.FetchTimeoutStr = "30s"
	}
	if cfg.NotifyTimeoutStr == "" {
		cfg.NotifyTimeoutStr = "15s"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = "9090"
	}
	if cfg.RunLogRetentionStr == "" {
		cfg.RunLogRetentionStr = "168h"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.ReportIntervalStr); err == nil {
		cfg.ReportInterval = d
	}
	if d, err := time.ParseDuration(cfg.FetchTimeoutStr); err == nil {
		cfg.FetchTimeout = d
	}
	if d, err := time.ParseDuration(cfg.NotifyTimeoutStr); err == nil {
		cfg.NotifyTimeout = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.RunLogRetentionStr); err == nil {
		cfg.RunLogRetention = d
	}

	return cfg
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		PropertyID          string `json:"ga_property_id"`
		WebhookURL          string `json:"discord_webhook_url"`
		GoogleCredentials   string `json:"google_credentials"`
		HTTPAddr            string `json:"http_addr"`
		ReportInterval      string `json:"report_interval"`
		ReportCron          string `json:"report_cron,omitempty"`
		FetchTimeout        string `json:"fetch_timeout"`
		NotifyTimeout       string `json:"notify_timeout"`
		HTTPShutdownTimeout string `json:"http_shutdown_timeout"`
		MetricsEnabled      bool   `json:"metrics_enabled"`
		MetricsPath         string `json:"metrics_path"`
		MetricsPort         string `json:"metrics_port"`
		RedisAddr           string `json:"redis_addr,omitempty"`
		RunLogRetention     string `json:"runlog_retention"`
	}{
		PropertyID:          c.PropertyID,
		WebhookURL:          maskSecret(c.WebhookURL),
		GoogleCredentials:   maskPresence(c.CredentialsJSON),
		HTTPAddr:            c.HTTPAddr,
		ReportInterval:      c.ReportIntervalStr,
		ReportCron:          c.ReportCron,
		FetchTimeout:        c.FetchTimeoutStr,
		NotifyTimeout:       c.NotifyTimeoutStr,
		HTTPShutdownTimeout: c.HTTPShutdownTimeoutStr,
		MetricsEnabled:      c.MetricsEnabled,
		MetricsPath:         c.MetricsPath,
		MetricsPort:         c.MetricsPort,
		RedisAddr:           c.RedisAddr,
		RunLogRetention:     c.RunLogRetentionStr,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
// Discord webhook URLs carry the channel token in the path, so everything
// past the scheme is secret.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"https://", "http://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}

// maskPresence reports whether a secret is set without echoing any of it.
func maskPresence(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
