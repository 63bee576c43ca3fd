// Package orchestrator drives one extraction session end to end: classify
// the target, walk the listing, extract and persist each product, and
// produce the session report. It only sees the extractor contract and the
// sink, never the browser.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webdriftlab/ecom-scraper/internal/classifier"
	"github.com/webdriftlab/ecom-scraper/internal/config"
	"github.com/webdriftlab/ecom-scraper/internal/events"
	"github.com/webdriftlab/ecom-scraper/internal/extractor"
	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
	"github.com/webdriftlab/ecom-scraper/internal/ratelimit"
	"github.com/webdriftlab/ecom-scraper/internal/sink"
	"github.com/webdriftlab/ecom-scraper/internal/whitelist"
)

var (
	ErrUnregisteredPlatform = errors.New("url does not belong to a registered platform")
	ErrUnclassifiableURL    = errors.New("url could not be classified")
	ErrInvalidURL           = errors.New("target url is not parseable")
)

// State is the session phase, used for logging and status reporting.
type State string

const (
	StateInit             State = "init"
	StateClassifying      State = "classifying"
	StateExtractingSingle State = "extracting_single"
	StateListingLoop      State = "listing_loop"
	StateDone             State = "done"
)

// abort reasons recorded in the report when a session ends early.
const (
	AbortConsecutiveFailures = "consecutive_failures"
	AbortCancelled           = "cancelled"
)

// Factory opens a fresh extractor session for a platform.
type Factory func(d *platform.Descriptor) (extractor.Extractor, error)

// recorder is implemented by limiters that adapt pacing to outcomes.
type recorder interface {
	RecordSuccess()
	RecordError()
}

// Orchestrator runs extraction sessions. One Orchestrator may run many
// sessions sequentially; each Run call is a fresh session with its own
// extractor and seen-set.
type Orchestrator struct {
	newExtractor Factory
	sink         sink.Sink
	limiter      ratelimit.Limiter
	events       *events.Publisher
	cfg          config.SessionConfig
	logger       *slog.Logger

	state State
}

func New(factory Factory, s sink.Sink, limiter ratelimit.Limiter, pub *events.Publisher, cfg config.SessionConfig) *Orchestrator {
	return &Orchestrator{
		newExtractor: factory,
		sink:         s,
		limiter:      limiter,
		events:       pub,
		cfg:          cfg,
		logger:       slog.Default().With("component", "orchestrator"),
		state:        StateInit,
	}
}

// State returns the current session phase.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one session for rawURL and returns its report. The report is
// non-nil whenever the session got far enough to produce one, including
// aborted sessions; the error then records why it ended early.
func (o *Orchestrator) Run(ctx context.Context, rawURL string) (*models.Report, error) {
	o.setState(StateClassifying)

	target, desc, err := o.classify(rawURL)
	if err != nil {
		o.setState(StateDone)
		return nil, err
	}

	report := &models.Report{
		SessionID:  uuid.New().String(),
		Target:     *target,
		StartedAt:  time.Now().UTC(),
		OutputPath: o.sink.Location(),
	}

	o.logger.Info("session starting",
		"session_id", report.SessionID,
		"url", target.RawURL,
		"platform", target.Platform,
		"kind", string(target.Kind))

	o.events.PublishSessionStarted(ctx, report.SessionID, *target)

	seen, err := o.sink.ExistingProductURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing records: %w", err)
	}
	if len(seen) > 0 {
		o.logger.Info("resuming with existing records", "count", len(seen))
	}

	ext, err := o.newExtractor(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to start extractor for %s: %w", desc.ID, err)
	}
	defer ext.Close()

	if err := ext.Open(ctx, target.RawURL); err != nil {
		return nil, fmt.Errorf("failed to open target: %w", err)
	}

	var runErr error
	if target.Kind == models.KindSingleProduct {
		o.setState(StateExtractingSingle)
		runErr = o.runSingle(ctx, ext, target.RawURL, seen, report)
	} else {
		o.setState(StateListingLoop)
		runErr = o.runListing(ctx, ext, seen, report)
	}

	report.FinishedAt = time.Now().UTC()
	o.setState(StateDone)

	o.logger.Info("session finished",
		"session_id", report.SessionID,
		"products", report.Products,
		"variants", report.Variants,
		"incomplete", report.Incomplete,
		"skipped", report.Skipped,
		"pages", report.Pages,
		"abort_reason", report.AbortReason)

	o.events.PublishSessionCompleted(ctx, report)

	return report, runErr
}

// classify resolves rawURL to a target with a registered platform and a
// classification.
func (o *Orchestrator) classify(rawURL string) (*models.Target, *platform.Descriptor, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	desc := platform.Detect(u.Host)
	if desc == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnregisteredPlatform, u.Host)
	}

	kind := classifier.Classify(rawURL, desc)
	if kind == models.KindUnknown {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnclassifiableURL, rawURL)
	}

	target := &models.Target{
		RawURL:   rawURL,
		Domain:   strings.TrimPrefix(strings.ToLower(u.Host), "www."),
		Platform: desc.ID,
		Kind:     kind,
	}
	return target, desc, nil
}

// stepCtx bounds one extractor call. A step that overruns fails that step
// only; the session context stays live.
func (o *Orchestrator) stepCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.StepTimeout > 0 {
		return context.WithTimeout(ctx, o.cfg.StepTimeout)
	}
	return context.WithCancel(ctx)
}

// runSingle is the one-product path. The listing capabilities of the
// extractor are never exercised.
func (o *Orchestrator) runSingle(ctx context.Context, ext extractor.Extractor, productURL string, seen map[string]struct{}, report *models.Report) error {
	if _, done := seen[productURL]; done {
		o.logger.Info("product already extracted, nothing to do", "url", productURL)
		return nil
	}
	return o.handleProduct(ctx, ext, productURL, seen, report)
}

// runListing walks the listing page by page until the extractor reports no
// further content, the page cap is hit, or two consecutive pages yield no
// product links.
func (o *Orchestrator) runListing(ctx context.Context, ext extractor.Extractor, seen map[string]struct{}, report *models.Report) error {
	emptyPages := 0
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			report.AbortReason = AbortCancelled
			return err
		}

		linksCtx, cancel := o.stepCtx(ctx)
		links, err := ext.ProductLinks(linksCtx)
		cancel()
		if err != nil {
			report.AbortReason = "listing_unreadable"
			return fmt.Errorf("failed to collect product links: %w", err)
		}
		report.Pages++

		o.logger.Info("page processed", "page", report.Pages, "links", len(links))

		if len(links) == 0 {
			emptyPages++
			if emptyPages >= 2 {
				o.logger.Info("two consecutive empty pages, stopping")
				return nil
			}
		} else {
			emptyPages = 0
		}

		for _, link := range links {
			if err := ctx.Err(); err != nil {
				report.AbortReason = AbortCancelled
				return err
			}
			if _, done := seen[link]; done {
				continue
			}

			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					report.AbortReason = AbortCancelled
					return err
				}
			}

			if err := o.handleProduct(ctx, ext, link, seen, report); err != nil {
				if ctx.Err() != nil {
					report.AbortReason = AbortCancelled
					return err
				}
				if errors.Is(err, sink.ErrWriteFailed) {
					report.AbortReason = "sink_write_failed"
					return err
				}
				failures++
				report.Skipped++
				o.logger.Warn("product skipped", "url", link, "failures", failures, "error", err)
				if rec, ok := o.limiter.(recorder); ok {
					rec.RecordError()
				}
				if o.cfg.FailureThreshold > 0 && failures >= o.cfg.FailureThreshold {
					report.AbortReason = AbortConsecutiveFailures
					return fmt.Errorf("aborting after %d consecutive failures", failures)
				}
				continue
			}

			failures = 0
			if rec, ok := o.limiter.(recorder); ok {
				rec.RecordSuccess()
			}
		}

		if o.cfg.MaxPages > 0 && report.Pages >= o.cfg.MaxPages {
			o.logger.Info("page cap reached", "pages", report.Pages)
			return nil
		}

		advanceCtx, cancel := o.stepCtx(ctx)
		more, err := ext.Advance(advanceCtx)
		cancel()
		if err != nil {
			report.AbortReason = "advance_failed"
			return fmt.Errorf("failed to advance listing: %w", err)
		}
		if !more {
			return nil
		}
	}
}

// handleProduct extracts, flags and persists one product and its variants.
// Incomplete extractions persist the partial record and count toward the
// incomplete tally, not toward failures.
func (o *Orchestrator) handleProduct(ctx context.Context, ext extractor.Extractor, productURL string, seen map[string]struct{}, report *models.Report) error {
	extractCtx, cancel := o.stepCtx(ctx)
	product, err := ext.ExtractProduct(extractCtx, productURL)
	cancel()
	if err != nil {
		ie, ok := extractor.AsIncomplete(err)
		if !ok {
			return err
		}
		product = ie.Partial
		report.Incomplete++
		o.logger.Warn("incomplete record persisted", "url", productURL, "missing", strings.Join(ie.Missing, ","))
	}

	product.Whitelisted = o.flag(product.Seller, product.Manufacturer)

	if err := o.sink.AppendProduct(ctx, product); err != nil {
		return err
	}
	seen[productURL] = struct{}{}
	report.Products++

	o.events.PublishProductExtracted(ctx, report.SessionID, product)

	variantCtx, cancel := o.stepCtx(ctx)
	variants, err := ext.ExtractVariants(variantCtx, productURL)
	cancel()
	if err != nil {
		// The product row is already durable; a variant failure only costs
		// the variants.
		o.logger.Warn("variant discovery failed", "url", productURL, "error", err)
		return nil
	}

	for i := range variants {
		v := &variants[i]
		if v.URL == "" {
			continue
		}
		// A variant identity must differ from every product URL the session
		// has emitted, not just its own parent.
		if _, isProduct := seen[v.URL]; isProduct {
			continue
		}
		v.ParentURL = productURL
		v.Whitelisted = o.flag(v.Seller, v.Manufacturer)
		if err := o.sink.AppendVariant(ctx, v); err != nil {
			return err
		}
		report.Variants++
	}

	return nil
}

func (o *Orchestrator) flag(seller, manufacturer string) string {
	if whitelist.IsWhitelisted(seller, manufacturer, o.cfg.WhitelistedSellers) {
		return models.FlagWhitelisted
	}
	return models.FlagNotWhitelisted
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	o.logger.Debug("state change", "state", string(s))
}
