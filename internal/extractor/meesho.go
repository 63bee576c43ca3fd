package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// Meesho adapter: infinite-scroll listings. Advance triggers one scroll
// batch and reports exhaustion when the link set stops growing.
type Meesho struct {
	*session

	lastLinkCount int
}

var meeshoPriceRe = regexp.MustCompile(`₹\s*\d+(?:,\d+)*`)

func (m *Meesho) ProductLinks(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.listing == nil {
		return nil, ErrNoListingPage
	}

	html, err := m.listing.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	links := harvestLinks(html, m.listing.URL(), maxLinksPerPage, func(u string) bool {
		if !strings.Contains(u, "meesho.") {
			return false
		}
		return strings.Contains(u, "/p/") || strings.Contains(u, "/product/") || strings.Contains(u, "/products/")
	})
	return links, nil
}

func (m *Meesho) ExtractProduct(ctx context.Context, productURL string) (*models.Product, error) {
	page, err := m.openProductPage(ctx, productURL)
	if err != nil {
		return nil, err
	}

	p := &models.Product{URL: stripTracking(page.URL())}

	p.Title = firstText(page, []string{"h1"})
	if p.Title == "" {
		if t, err := page.Title(); err == nil {
			t = strings.TrimSuffix(t, " - Meesho")
			t = strings.TrimSuffix(t, " | Meesho")
			p.Title = strings.TrimSpace(t)
		}
	}

	price := textByXPath(page, []string{
		"//h4[contains(text(),'₹')]",
		"//span[contains(text(),'₹')]",
	})
	if match := meeshoPriceRe.FindString(strings.ReplaceAll(price, "\n", " ")); match != "" {
		price = match
	}
	p.Price = cleanPrice(price)

	seller := textByXPath(page, []string{
		"//div[text()='Sold By']/following-sibling::div[1]",
		"//*[text()='Sold By']/following-sibling::*[1]",
		"//*[contains(text(),'Supplier')]/following-sibling::*[1]",
	})
	// Strip the trailing shop-rating noise Meesho renders into the same node.
	if i := strings.Index(seller, "View Shop"); i >= 0 {
		seller = seller[:i]
	}
	p.Seller = strings.TrimSpace(seller)

	p.Manufacturer = textByXPath(page, []string{
		"//li[contains(.,'Manufacturer')]//*[self::span or self::div][last()]",
		"//*[contains(text(),'Manufacturer')]/following-sibling::*[1]",
		"//*[contains(text(),'Brand')]/following-sibling::*[1]",
	})

	p.ImageURL = imageURL(page, []string{
		"picture img",
		"img[src*='meesho']",
		"img[data-src]",
	})

	return incompleteOrProduct(p)
}

// ExtractVariants returns nothing: Meesho exposes size options without
// distinct identity URLs, so there are no variant records to emit.
func (m *Meesho) ExtractVariants(ctx context.Context, productURL string) ([]models.Variant, error) {
	return nil, ctx.Err()
}

func (m *Meesho) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if m.listing == nil {
		return false, ErrNoListingPage
	}

	m.browser.ScrollBy(m.listing, 2500)
	m.listing.WaitForTimeout(2000)

	links, err := m.ProductLinks(ctx)
	if err != nil {
		return false, err
	}

	// No growth after a scroll batch means the feed is exhausted.
	if len(links) <= m.lastLinkCount {
		return false, nil
	}
	m.lastLinkCount = len(links)
	return true, nil
}
