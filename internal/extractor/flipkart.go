package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// Flipkart adapter: discrete pagination, variants via the size/color rows on
// the product page.
type Flipkart struct {
	*session
}

func (f *Flipkart) ProductLinks(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.listing == nil {
		return nil, ErrNoListingPage
	}

	html, err := f.listing.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	links := harvestLinks(html, f.listing.URL(), maxLinksPerPage, func(u string) bool {
		if !strings.Contains(u, "flipkart.") {
			return false
		}
		return strings.Contains(u, "/p/") || strings.Contains(u, "/product/")
	})
	return links, nil
}

func (f *Flipkart) ExtractProduct(ctx context.Context, productURL string) (*models.Product, error) {
	page, err := f.openProductPage(ctx, productURL)
	if err != nil {
		return nil, err
	}

	p := &models.Product{URL: stripTracking(page.URL())}

	p.Title = firstText(page, []string{
		"span.VU-ZEz",
		"span.B_NuCI",
		"h1.yhB1nd",
		"h1",
	})

	p.Price = cleanPrice(firstText(page, []string{
		"div.Nx9bqj.CxhGGd",
		"div._30jeq3._16Jk6d",
		"div._30jeq3",
		"div._25b18c span",
	}))

	p.Seller = firstText(page, []string{
		"div#sellerName span",
		"div._3dqZjq a",
		"span._2hCDtv",
	})
	if p.Seller == "" {
		p.Seller = textByXPath(page, []string{
			"//*[contains(text(),'Sold by')]/following::span[1]",
			"//*[contains(text(),'Seller')]/following::a[1]",
		})
	}

	p.Manufacturer = firstText(page, []string{
		"[data-automation-id='brand']",
		"div._2NHrnP span",
	})
	if p.Manufacturer == "" {
		p.Manufacturer = textByXPath(page, []string{
			"//tr[td[contains(text(),'Brand') or contains(text(),'Manufacturer')]]/td[2]",
			"//li[contains(text(),'Brand:')]/following::span[1]",
		})
	}
	// Flipkart often lists the brand store as the seller.
	if p.Manufacturer == "" {
		p.Manufacturer = p.Seller
	}

	p.ImageURL = imageURL(page, []string{
		"img._2r_T1I",
		"div._396cs4 img",
		"img[src*='rukminim']",
		".CXW8mj img",
	})

	return incompleteOrProduct(p)
}

func (f *Flipkart) ExtractVariants(ctx context.Context, productURL string) ([]models.Variant, error) {
	page, err := f.currentProductPage()
	if err != nil {
		return nil, err
	}

	// Size and color swatches link to sibling product pages; harvest their
	// target URLs instead of clicking through every option.
	raw, err := page.Evaluate(`() => {
		const urls = [];
		const rows = document.querySelectorAll('ul li a[href*="/p/"]');
		for (const a of rows) {
			if (a.closest('[class*="swatch"], [class*="Swatch"], [class*="variant"]')) {
				urls.push(a.href);
			}
		}
		return urls;
	}`)
	if err != nil {
		return nil, fmt.Errorf("variant discovery failed: %w", err)
	}

	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, nil
	}

	parent := stripTracking(productURL)
	seen := map[string]struct{}{parent: {}}
	var variants []models.Variant

	for _, item := range list {
		if err := ctx.Err(); err != nil {
			return variants, err
		}

		href := stripTracking(asString(item))
		if href == "" {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}

		vp, err := f.openProductPage(ctx, href)
		if err != nil {
			f.logger.Warn("failed to open variant", "url", href, "error", err)
			continue
		}

		variants = append(variants, models.Variant{
			URL:       stripTracking(vp.URL()),
			ParentURL: productURL,
			Title: firstText(vp, []string{
				"span.VU-ZEz", "span.B_NuCI", "h1",
			}),
			Price: cleanPrice(firstText(vp, []string{
				"div.Nx9bqj.CxhGGd", "div._30jeq3",
			})),
			ImageURL: imageURL(vp, []string{
				"img._2r_T1I", "img[src*='rukminim']",
			}),
		})
	}

	return variants, nil
}

func (f *Flipkart) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.listing == nil {
		return false, ErrNoListingPage
	}

	for _, sel := range []string{"a._9QVEpD:has-text('Next')", "a:has-text('Next')", "nav a[rel='next']"} {
		next := f.listing.Locator(sel).First()
		count, err := next.Count()
		if err != nil || count == 0 {
			continue
		}
		if err := next.Click(); err != nil {
			continue
		}
		f.listing.WaitForTimeout(3000)
		f.browser.Settle(f.listing)
		return true, nil
	}

	return false, nil
}
