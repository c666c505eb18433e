package main

import (
	"log"
	"time"

	"github.com/mtt80/meteorite.io-ganalytics/internal/config"
)

// logConfigWarnings flags configurations that are valid but operationally
// risky. Warnings never block startup.
func logConfigWarnings(cfg *config.Config) {
	if cfg.ReportCron == "" && cfg.ReportInterval < time.Minute {
		log.Printf("WARNING [P0]: REPORT_INTERVAL=%s is below 1m; GA4 quota and Discord rate limits will throttle the reporter", cfg.ReportIntervalStr)
	}

	if !cfg.MetricsEnabled {
		log.Println("WARNING [P1]: METRICS_ENABLED=false; delivery failures are only visible in logs")
	}

	if cfg.ReportCron != "" {
		log.Printf("INFO: REPORT_CRON=%q set; REPORT_INTERVAL is ignored", cfg.ReportCron)
	}
}
