package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mtt80/meteorite.io-ganalytics/internal/api"
	"github.com/mtt80/meteorite.io-ganalytics/internal/config"
	"github.com/mtt80/meteorite.io-ganalytics/internal/cron"
	"github.com/mtt80/meteorite.io-ganalytics/internal/ga4"
	"github.com/mtt80/meteorite.io-ganalytics/internal/metrics"
	"github.com/mtt80/meteorite.io-ganalytics/internal/notifier"
	"github.com/mtt80/meteorite.io-ganalytics/internal/runlog"
	"github.com/mtt80/meteorite.io-ganalytics/internal/runner"
	"github.com/mtt80/meteorite.io-ganalytics/internal/scheduler"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`ganalytics - GA4 analytics reporter for Discord

Usage:
  ganalytics <command>

Commands:
  serve      Start the reporter and trigger API
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  GA_PROPERTY_ID                        GA4 property ID (required)
  DISCORD_WEBHOOK_URL                   Discord incoming webhook URL (required)
  GOOGLE_APPLICATION_CREDENTIALS_JSON   Service account key JSON (required)

  HTTP_ADDR                 HTTP server address (default: ":5000", or ":$PORT")
  REPORT_INTERVAL           Interval between reports (default: "10m")
  REPORT_CRON               Cron expression overriding the interval (optional)

  FETCH_TIMEOUT             GA4 request timeout (default: "30s")
  NOTIFY_TIMEOUT            Webhook delivery timeout (default: "15s")
  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")
  METRICS_PORT              Metrics server port (default: "9090")

  REDIS_ADDR                Redis address for the run log (optional)
  RUNLOG_RETENTION          Run log key retention (default: "168h")`)
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	logConfigWarnings(&cfg)

	// The GA4 client holds the authenticated transport for the lifetime of
	// the process; token refresh rides on this context.
	clientCtx, cancelClient := context.WithCancel(context.Background())
	defer cancelClient()

	fetcher, err := ga4.NewClient(clientCtx, []byte(cfg.CredentialsJSON), cfg.PropertyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build analytics client: %v\n", err)
		return exitRuntimeError
	}
	fetcher = fetcher.WithTimeout(cfg.FetchTimeout)

	discord := notifier.NewDiscord(cfg.WebhookURL).WithTimeout(cfg.NotifyTimeout)

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	var metricsServer *http.Server

	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("ganalytics: metrics enabled (port=%s, path=%s)", cfg.MetricsPort, cfg.MetricsPath)

		// Start metrics HTTP server on separate port
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.MetricsPath, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			log.Printf("ganalytics: metrics server listening on :%s", cfg.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("ganalytics: metrics server error: %v", err)
			}
		}()
	} else {
		log.Println("ganalytics: METRICS_ENABLED not set; metrics disabled")
	}

	if metricsSink != nil {
		discord = discord.WithMetrics(metricsSink)
	}

	reportRunner := runner.New(fetcher, discord)
	if metricsSink != nil {
		reportRunner = reportRunner.WithMetrics(metricsSink)
	}

	// Wire the run log if Redis is configured
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		sink := runlog.NewRedisSink(redisClient, cfg.RunLogRetention)
		reportRunner = reportRunner.WithRunLog(sink)
		log.Printf("ganalytics: run log enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("ganalytics: REDIS_ADDR not set; run log disabled")
	}

	schedConfig := scheduler.Config{Interval: cfg.ReportInterval}
	if cfg.ReportCron != "" {
		sched, err := cron.NewParser().Parse(cfg.ReportCron)
		if err != nil {
			// Validate() already checked the expression; this cannot happen.
			fmt.Fprintf(os.Stderr, "failed to parse REPORT_CRON: %v\n", err)
			return exitInvalidConfig
		}
		schedConfig.Schedule = sched
		log.Printf("ganalytics: cron schedule enabled (%s)", cfg.ReportCron)
	}

	sched := scheduler.New(schedConfig, reportRunner)
	if metricsSink != nil {
		sched = sched.WithMetrics(metricsSink)
	}

	apiHandler := api.NewHandler(reportRunner)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiHandler,
	}

	go func() {
		log.Printf("ganalytics: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ganalytics: http server error: %v", err)
		}
	}()

	// Separate context for the scheduler so shutdown can stop new runs
	// before the HTTP server stops answering triggers.
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())

	var schedulerWg sync.WaitGroup
	schedulerWg.Add(1)
	go func() {
		defer schedulerWg.Done()
		sched.Run(schedulerCtx)
	}()

	log.Printf("ganalytics: started (interval=%s, http=%s, property=%s)",
		cfg.ReportInterval, cfg.HTTPAddr, cfg.PropertyID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("ganalytics: received signal %v, shutting down", received)

	// Phase 1: Stop the scheduler (no new scheduled runs)
	log.Println("ganalytics: stopping scheduler...")
	cancelScheduler()
	schedulerWg.Wait()
	log.Println("ganalytics: scheduler stopped")

	// Phase 2: Stop HTTP server with graceful shutdown (in-flight triggers finish)
	log.Println("ganalytics: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("ganalytics: http server shutdown error: %v", err)
	}
	log.Println("ganalytics: http server stopped")

	// Phase 3: Stop metrics server if running (with same timeout)
	if metricsServer != nil {
		log.Println("ganalytics: stopping metrics server...")
		metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer metricsShutdownCancel()
		if err := metricsServer.Shutdown(metricsShutdownCtx); err != nil {
			log.Printf("ganalytics: metrics server shutdown error: %v", err)
		}
		log.Println("ganalytics: metrics server stopped")
	}

	log.Println("ganalytics: stopped")
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("ganalytics version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
