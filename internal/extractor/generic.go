package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
)

// Generic is the fallback adapter for platforms without dedicated selector
// knowledge. It leans on the descriptor's URL markers for link discovery and
// on schema.org/open-graph conventions for field extraction, and drives
// pagination or scrolling according to the descriptor's style.
type Generic struct {
	*session

	lastLinkCount int
}

// Secondary link patterns tried when the descriptor's own markers find
// nothing on the page.
var genericLinkPatterns = []string{
	"/product/", "/item/", "/p/", "/prod/", "/dp/",
	"/sku/", "/goods/", "/detail/", "/buy/",
}

func (g *Generic) ProductLinks(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.listing == nil {
		return nil, ErrNoListingPage
	}

	html, err := g.listing.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	host := hostFragmentFilter(g.desc)

	links := harvestLinks(html, g.listing.URL(), maxLinksPerPage, func(u string) bool {
		if !host(u) {
			return false
		}
		for _, marker := range g.desc.ProductMarkers {
			if strings.Contains(u, marker) {
				return true
			}
		}
		return false
	})

	if len(links) == 0 {
		links = harvestLinks(html, g.listing.URL(), maxLinksPerPage, func(u string) bool {
			if !host(u) {
				return false
			}
			for _, pat := range genericLinkPatterns {
				if strings.Contains(u, pat) {
					return true
				}
			}
			return false
		})
	}

	return links, nil
}

// hostFragmentFilter keeps harvested links on the platform's own domains.
func hostFragmentFilter(d *platform.Descriptor) func(string) bool {
	return func(u string) bool {
		for _, frag := range d.HostFragments {
			if strings.Contains(u, frag) {
				return true
			}
		}
		return false
	}
}

func (g *Generic) ExtractProduct(ctx context.Context, productURL string) (*models.Product, error) {
	page, err := g.openProductPage(ctx, productURL)
	if err != nil {
		return nil, err
	}

	p := &models.Product{URL: stripTracking(page.URL())}

	p.Title = firstText(page, []string{
		"h1.product-title",
		"h1.title",
		"[itemprop='name']",
		"h1",
	})
	if p.Title == "" {
		p.Title = attrValue(page, []string{"meta[property='og:title']"}, "content")
	}
	if p.Title == "" {
		if t, err := page.Title(); err == nil {
			for _, suffix := range []string{" | Buy Online", " - Buy Now", " | Shop", " - Price"} {
				if i := strings.Index(t, suffix); i > 0 {
					t = t[:i]
					break
				}
			}
			p.Title = strings.TrimSpace(t)
		}
	}

	p.Price = cleanPrice(firstText(page, []string{
		"[itemprop='price']",
		".product-price",
		".price",
		"[class*='price']",
	}))
	if p.Price == "" {
		p.Price = cleanPrice(attrValue(page, []string{"meta[property='product:price:amount']", "[itemprop='price']"}, "content"))
	}

	p.Seller = firstText(page, []string{
		"[itemprop='seller']",
		".seller-name",
		"[class*='seller']",
	})
	if p.Seller == "" {
		p.Seller = textByXPath(page, []string{
			"//*[contains(text(),'Sold by')]/following::*[1]",
		})
	}

	p.Manufacturer = firstText(page, []string{
		"[itemprop='brand']",
		".brand-name",
		"[class*='brand']",
	})
	if p.Manufacturer == "" {
		p.Manufacturer = textByXPath(page, []string{
			"//*[contains(text(),'Brand')]/following-sibling::*[1]",
			"//*[contains(text(),'Manufacturer')]/following-sibling::*[1]",
		})
	}

	p.ImageURL = imageURL(page, []string{
		"[itemprop='image']",
		".product-image img",
		"img[class*='product']",
	})

	return incompleteOrProduct(p)
}

// ExtractVariants returns nothing for generic platforms: variant discovery
// needs platform-specific selector knowledge a fallback cannot assume.
func (g *Generic) ExtractVariants(ctx context.Context, productURL string) ([]models.Variant, error) {
	return nil, ctx.Err()
}

func (g *Generic) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.listing == nil {
		return false, ErrNoListingPage
	}

	switch g.desc.Style {
	case platform.StyleSinglePageOnly:
		return false, nil

	case platform.StyleInfiniteScroll:
		g.browser.ScrollBy(g.listing, 2500)
		g.listing.WaitForTimeout(2000)

		links, err := g.ProductLinks(ctx)
		if err != nil {
			return false, err
		}
		if len(links) <= g.lastLinkCount {
			return false, nil
		}
		g.lastLinkCount = len(links)
		return true, nil

	default:
		for _, sel := range []string{
			"a[rel='next']",
			"a[aria-label='Next']",
			"a[aria-label='Next Page']",
			"a:has-text('Next')",
			".pagination-next a",
		} {
			next := g.listing.Locator(sel).First()
			count, err := next.Count()
			if err != nil || count == 0 {
				continue
			}
			if disabled, err := next.GetAttribute("aria-disabled"); err == nil && disabled == "true" {
				return false, nil
			}
			if err := next.Click(); err != nil {
				continue
			}
			g.listing.WaitForTimeout(3000)
			g.browser.Settle(g.listing)
			return true, nil
		}
		return false, nil
	}
}
