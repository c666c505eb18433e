package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// serviceAccountKey is the subset of a Google service-account key file
// needed to decide the blob is usable. Full parsing happens in the GA4
// client via the oauth2 library.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
// The process must not start the scheduler or server on any error here.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if cfg.PropertyID == "" {
		errs = append(errs, ValidationError{
			Field:   "GA_PROPERTY_ID",
			Message: "required",
		})
	}

	if cfg.WebhookURL == "" {
		errs = append(errs, ValidationError{
			Field:   "DISCORD_WEBHOOK_URL",
			Message: "required",
		})
	} else if err := validateWebhookURL(cfg.WebhookURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "DISCORD_WEBHOOK_URL",
			Message: fmt.Sprintf("invalid url: %v", err),
		})
	}

	if cfg.CredentialsJSON == "" {
		errs = append(errs, ValidationError{
			Field:   "GOOGLE_APPLICATION_CREDENTIALS_JSON",
			Message: "required",
		})
	} else if err := validateCredentials(cfg.CredentialsJSON); err != nil {
		errs = append(errs, ValidationError{
			Field:   "GOOGLE_APPLICATION_CREDENTIALS_JSON",
			Message: err.Error(),
		})
	}

	if cfg.ReportIntervalStr != "" {
		d, err := time.ParseDuration(cfg.ReportIntervalStr)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "REPORT_INTERVAL",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{
				Field:   "REPORT_INTERVAL",
				Message: "must be positive",
			})
		}
	}

	if cfg.ReportCron != "" {
		if err := validateCron(cfg.ReportCron); err != nil {
			errs = append(errs, ValidationError{
				Field:   "REPORT_CRON",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	for _, tc := range []struct {
		field string
		raw   string
	}{
		{"FETCH_TIMEOUT", cfg.FetchTimeoutStr},
		{"NOTIFY_TIMEOUT", cfg.NotifyTimeoutStr},
		{"HTTP_SHUTDOWN_TIMEOUT", cfg.HTTPShutdownTimeoutStr},
		{"RUNLOG_RETENTION", cfg.RunLogRetentionStr},
	} {
		if tc.raw == "" {
			continue
		}
		d, err := time.ParseDuration(tc.raw)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   tc.field,
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{
				Field:   tc.field,
				Message: "must be positive",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func validateCredentials(raw string) error {
	var key serviceAccountKey
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return fmt.Errorf("not valid JSON: %v", err)
	}
	if key.ClientEmail == "" {
		return fmt.Errorf("missing client_email")
	}
	if key.PrivateKey == "" {
		return fmt.Errorf("missing private_key")
	}
	return nil
}

func validateCron(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(expr)
	return err
}
