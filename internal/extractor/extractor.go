// Package extractor defines the per-platform capability contract and its
// implementations. All platform-specific DOM and selector knowledge lives
// behind this contract; the orchestrator never touches the automation
// runtime directly.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/webdriftlab/ecom-scraper/internal/browser"
	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
)

var (
	ErrNoListingPage = errors.New("listing page not opened")
	ErrNoProductPage = errors.New("product page not opened")
)

// IncompleteError reports that a required field (title or price) could not
// be located. Partial carries the best-effort record so the caller can
// persist it instead of dropping the product silently.
type IncompleteError struct {
	URL     string
	Missing []string
	Partial *models.Product
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("extraction incomplete for %s: missing %s", e.URL, strings.Join(e.Missing, ", "))
}

// AsIncomplete unwraps an IncompleteError if err carries one.
func AsIncomplete(err error) (*IncompleteError, bool) {
	var ie *IncompleteError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// Extractor is the fixed capability set every platform adapter implements.
// Implementations are stateful per session: Open establishes the listing or
// product page, ProductLinks/Advance operate on it, ExtractProduct and
// ExtractVariants drive a dedicated product tab. Every call may suspend on
// the underlying browser and honors ctx cancellation between steps.
type Extractor interface {
	Platform() string

	// Open navigates the session's primary page to the target URL.
	Open(ctx context.Context, url string) error

	// ProductLinks returns the product URLs visible on the current listing
	// page, deduplicated in document order. An empty result is a termination
	// signal for the listing loop.
	ProductLinks(ctx context.Context) ([]string, error)

	// ExtractProduct reads one product's core fields. Returns an
	// IncompleteError carrying a partial record when title or price cannot
	// be located.
	ExtractProduct(ctx context.Context, productURL string) (*models.Product, error)

	// ExtractVariants returns the product's variants, possibly empty. Every
	// variant URL differs from productURL. Must be called after
	// ExtractProduct for the same URL.
	ExtractVariants(ctx context.Context, productURL string) ([]models.Variant, error)

	// Advance loads the next page or triggers the next scroll batch.
	// Returns false when no further content is reachable.
	Advance(ctx context.Context) (bool, error)

	Close() error
}

// New returns the adapter for the descriptor's platform. Platforms without a
// dedicated adapter fall back to the generic one, parameterized by the
// descriptor's markers and pagination style.
func New(d *platform.Descriptor, b *browser.Browser) Extractor {
	s := newSession(d, b)
	switch d.ID {
	case "amazon":
		return &Amazon{session: s}
	case "flipkart":
		return &Flipkart{session: s}
	case "meesho":
		return &Meesho{session: s}
	default:
		return &Generic{session: s}
	}
}

// session holds the shared per-session browsing state and selector helpers
// used by every adapter.
type session struct {
	desc    *platform.Descriptor
	browser *browser.Browser
	listing playwright.Page
	product playwright.Page
	logger  *slog.Logger
}

func newSession(d *platform.Descriptor, b *browser.Browser) *session {
	return &session{
		desc:    d,
		browser: b,
		logger:  slog.Default().With("component", "extractor", "platform", d.ID),
	}
}

func (s *session) Platform() string {
	return s.desc.ID
}

func (s *session) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := s.browser.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	if err := s.browser.NavigateWithRetry(page, url, 3); err != nil {
		page.Close()
		return fmt.Errorf("failed to open %s: %w", url, err)
	}

	s.browser.Settle(page)
	s.listing = page
	return nil
}

// openProductPage navigates the dedicated product tab to productURL,
// creating it on first use. The listing page is left untouched.
func (s *session) openProductPage(ctx context.Context, productURL string) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.product == nil {
		page, err := s.browser.NewPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create product page: %w", err)
		}
		s.product = page
	}

	if err := s.browser.NavigateWithRetry(s.product, productURL, 2); err != nil {
		return nil, fmt.Errorf("failed to open product %s: %w", productURL, err)
	}

	s.browser.Settle(s.product)
	return s.product, nil
}

// currentProductPage returns the product tab as left by ExtractProduct.
func (s *session) currentProductPage() (playwright.Page, error) {
	if s.product == nil {
		return nil, ErrNoProductPage
	}
	return s.product, nil
}

func (s *session) Close() error {
	var errs []error
	if s.product != nil {
		if err := s.product.Close(); err != nil {
			errs = append(errs, err)
		}
		s.product = nil
	}
	if s.listing != nil {
		if err := s.listing.Close(); err != nil {
			errs = append(errs, err)
		}
		s.listing = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing pages: %v", errs)
	}
	return nil
}

// incompleteOrProduct converts a best-effort record into the contract's
// result: complete records pass through, records missing title or price are
// returned inside an IncompleteError.
func incompleteOrProduct(p *models.Product) (*models.Product, error) {
	if !p.Incomplete() {
		return p, nil
	}
	var missing []string
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Price == "" {
		missing = append(missing, "price")
	}
	return nil, &IncompleteError{URL: p.URL, Missing: missing, Partial: p}
}
