package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/webdriftlab/ecom-scraper/internal/browser"
	"github.com/webdriftlab/ecom-scraper/internal/config"
	"github.com/webdriftlab/ecom-scraper/internal/events"
	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/orchestrator"
)

func main() {
	var (
		targetURL = flag.String("url", "", "Target URL to extract (listing or product page)")
		inputFile = flag.String("file", "", "File containing target URLs (one per line)")
		output    = flag.String("output", "", "Output directory for CSV session folders")
		maxPages  = flag.Int("max-pages", -1, "Page cap per session, 0 for unbounded (-1 keeps the configured value)")
		headless  = flag.Bool("headless", true, "Run browser in headless mode")
		resume    = flag.String("resume", "", "Existing session directory name to append to")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *output != "" {
		cfg.Output.Dir = *output
	}
	if *maxPages >= 0 {
		cfg.Session.MaxPages = *maxPages
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	targets, err := loadTargets(*targetURL, *inputFile)
	if err != nil {
		logger.Error("failed to load targets", "error", err)
		os.Exit(1)
	}
	if len(targets) == 0 {
		fmt.Println("No targets to process. Use -url or -file to specify pages to extract.")
		flag.Usage()
		os.Exit(1)
	}
	if *resume != "" && len(targets) > 1 {
		log.Fatalf("-resume only applies to a single target")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	var publisher *events.Publisher
	if cfg.Redis.Addr != "" {
		publisher, err = events.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Stream)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}

	service := orchestrator.NewService(b, cfg, publisher)

	logger.Info("starting extraction", "targets", len(targets))

	failed := 0
	for _, target := range targets {
		if ctx.Err() != nil {
			logger.Info("cancelled, stopping")
			break
		}

		var report *models.Report
		if *resume != "" {
			report, err = service.ResumeURL(ctx, target, *resume)
		} else {
			report, err = service.RunURL(ctx, target)
		}
		if err != nil {
			failed++
			logger.Error("session failed", "url", target, "error", err)
			if report == nil {
				continue
			}
		}
		printReport(report)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func loadTargets(rawURL, inputFile string) ([]string, error) {
	var targets []string

	if rawURL != "" {
		targets = append(targets, strings.TrimSpace(rawURL))
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				targets = append(targets, line)
			}
		}
	}

	return targets, nil
}

func printReport(report *models.Report) {
	if report == nil {
		return
	}
	out := struct {
		*models.Report
		Duration string `json:"duration"`
	}{
		Report:   report,
		Duration: report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		slog.Error("failed to render report", "error", err)
		return
	}
	fmt.Println(string(data))
}
