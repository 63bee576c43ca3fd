package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/webdriftlab/ecom-scraper/internal/browser"
	"github.com/webdriftlab/ecom-scraper/internal/config"
	"github.com/webdriftlab/ecom-scraper/internal/events"
	"github.com/webdriftlab/ecom-scraper/internal/extractor"
	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
	"github.com/webdriftlab/ecom-scraper/internal/ratelimit"
	"github.com/webdriftlab/ecom-scraper/internal/sink"
)

// Service wires a browser, configuration and event publisher into runnable
// sessions. Each RunURL call builds its own sink and orchestrator, so
// sessions for different targets never share output files.
type Service struct {
	browser *browser.Browser
	cfg     *config.Config
	events  *events.Publisher
	logger  *slog.Logger
}

func NewService(b *browser.Browser, cfg *config.Config, pub *events.Publisher) *Service {
	return &Service{
		browser: b,
		cfg:     cfg,
		events:  pub,
		logger:  slog.Default().With("component", "service"),
	}
}

// RunURL executes one extraction session for rawURL.
func (s *Service) RunURL(ctx context.Context, rawURL string) (*models.Report, error) {
	snk, err := s.newSink(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer snk.Close()

	factory := func(d *platform.Descriptor) (extractor.Extractor, error) {
		return extractor.New(d, s.browser), nil
	}

	limiter := ratelimit.NewAdaptive(s.cfg.Session.ProductDelayMin, s.cfg.Session.ProductDelayMax)

	o := New(factory, snk, limiter, s.events, s.cfg.Session)
	return o.Run(ctx, rawURL)
}

// newSink builds the configured sink for one target. CSV sinks get a
// per-target session directory; the Postgres sink keys rows by a generated
// session id.
func (s *Service) newSink(ctx context.Context, rawURL string) (sink.Sink, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	desc := platform.Detect(u.Host)
	if desc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredPlatform, u.Host)
	}

	switch s.cfg.Output.Sink {
	case "postgres":
		// Keyed by the target, not a per-run id: rerunning the same target
		// must see its prior rows and resume.
		return sink.NewPostgresSink(ctx, sink.PostgresConfig{
			Host:     s.cfg.Database.Host,
			Port:     s.cfg.Database.Port,
			User:     s.cfg.Database.User,
			Password: s.cfg.Database.Password,
			Database: s.cfg.Database.Name,
			MaxConns: s.cfg.Database.MaxConns,
		}, sink.TargetKey(rawURL))
	default:
		domain := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		name := sink.SessionDirName(desc.ID, domain, time.Now())
		return sink.NewCSVSink(s.cfg.Output.Dir, name)
	}
}

// ResumeURL reopens an existing session directory and continues extraction
// for rawURL, skipping every product already on disk.
func (s *Service) ResumeURL(ctx context.Context, rawURL, sessionName string) (*models.Report, error) {
	snk, err := sink.NewCSVSink(s.cfg.Output.Dir, sessionName)
	if err != nil {
		return nil, err
	}
	defer snk.Close()

	factory := func(d *platform.Descriptor) (extractor.Extractor, error) {
		return extractor.New(d, s.browser), nil
	}

	limiter := ratelimit.NewAdaptive(s.cfg.Session.ProductDelayMin, s.cfg.Session.ProductDelayMax)

	o := New(factory, snk, limiter, s.events, s.cfg.Session)
	return o.Run(ctx, rawURL)
}
