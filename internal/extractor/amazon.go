package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// Amazon is the reference platform adapter: discrete pagination plus
// variant discovery through the inline twister rows.
type Amazon struct {
	*session
}

var (
	amazonProductPattern = regexp.MustCompile(`/dp/[A-Z0-9]{10}`)
	amazonASINPattern    = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

	// Sponsored result and tracking URLs never lead to a canonical product
	// page and are filtered before dedup.
	amazonSponsoredFragments = []string{
		"aax-eu-zaz.",
		"/x/c/",
		"/sspa/",
		"/gp/slredirect/",
	}
)

func (a *Amazon) ProductLinks(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.listing == nil {
		return nil, ErrNoListingPage
	}

	html, err := a.listing.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	links := harvestLinks(html, a.listing.URL(), 4*maxLinksPerPage, func(u string) bool {
		if !strings.Contains(u, "amazon.") {
			return false
		}
		for _, frag := range amazonSponsoredFragments {
			if strings.Contains(u, frag) {
				return false
			}
		}
		return amazonProductPattern.MatchString(u)
	})

	canonical := canonicalAmazonLinks(links, maxLinksPerPage)
	a.logger.Debug("harvested product links", "count", len(canonical))
	return canonical, nil
}

// canonicalAmazonLinks rewrites each link to scheme://host/dp/ASIN so the
// same product reached through /ref= and tracking paths dedups to one URL.
func canonicalAmazonLinks(links []string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, link := range links {
		asin := ExtractASIN(link)
		if asin == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		canonical := fmt.Sprintf("%s://%s/dp/%s", u.Scheme, u.Host, asin)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (a *Amazon) ExtractProduct(ctx context.Context, productURL string) (*models.Product, error) {
	page, err := a.openProductPage(ctx, productURL)
	if err != nil {
		return nil, err
	}

	// Critical elements render late on busy pages.
	page.WaitForSelector("span#productTitle, h1#title", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	})

	p := a.extractCore(page)
	return incompleteOrProduct(p)
}

// extractCore reads the product fields from an open Amazon product page.
func (a *Amazon) extractCore(page playwright.Page) *models.Product {
	p := &models.Product{URL: stripTracking(page.URL())}

	p.Title = firstText(page, []string{
		"span#productTitle",
		"h1#title",
		"h1",
	})

	price := firstText(page, []string{
		"span.a-price span.a-offscreen",
		"span#priceblock_ourprice",
		"span#priceblock_dealprice",
		"span.a-price-whole",
	})
	p.Price = cleanPrice(price)

	availability := firstText(page, []string{
		"div#availability span",
		"div#outOfStock",
		"span.a-size-medium.a-color-state",
	})
	if strings.Contains(strings.ToLower(availability), "out of stock") {
		p.Price = "Out of stock"
	}

	p.Seller = firstText(page, []string{
		"a#sellerProfileTriggerId",
		"div#merchant-info a",
		"div#merchant-info",
		"span#bylineInfo",
		"a#bylineInfo",
	})
	if p.Seller == "" {
		p.Seller = textByXPath(page, []string{
			"//span[contains(text(),'Sold by')]/following-sibling::span[1]",
			"//div[contains(@id,'merchant-info')]//a",
		})
	}

	manufacturer := textByXPath(page, []string{
		"//div[@id='productDetails_detailBullets_sections1']//th[contains(text(),'Manufacturer')]/following-sibling::td",
		"//div[@id='productDetails_detailBullets_sections1']//th[contains(text(),'Brand')]/following-sibling::td",
		"//div[@id='detailBulletsWrapper_feature_div']//span[contains(text(),'Manufacturer')]/following-sibling::span",
		"//div[@id='detailBulletsWrapper_feature_div']//span[contains(text(),'Brand')]/following-sibling::span",
	})
	p.Manufacturer = cleanManufacturer(manufacturer)

	p.ImageURL = imageURL(page, []string{
		"img#landingImage",
		"img#imgBlkFront",
		"img#main-image",
	})

	return p
}

// cleanManufacturer strips label prefixes and trailing detail-bullet noise
// that Amazon concatenates into the same element.
func cleanManufacturer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Brand:")
	s = strings.TrimPrefix(s, "Manufacturer:")
	for _, cut := range []string{"Packer", "Seller", "Imported by", "Brand:", "Manufacturer:"} {
		if i := strings.Index(s, cut); i > 0 {
			s = s[:i]
		}
	}
	return strings.Trim(strings.TrimSpace(s), ":")
}

type amazonOption struct {
	Name  string
	ASIN  string
	Value string
}

func (a *Amazon) ExtractVariants(ctx context.Context, productURL string) ([]models.Variant, error) {
	page, err := a.currentProductPage()
	if err != nil {
		return nil, err
	}

	dimensions, err := a.detectVariantDimensions(page)
	if err != nil || len(dimensions) == 0 {
		return nil, err
	}

	var variants []models.Variant
	for dim, options := range dimensions {
		for _, opt := range options {
			if err := ctx.Err(); err != nil {
				return variants, err
			}

			if err := a.selectVariant(page, dim, opt); err != nil {
				a.logger.Warn("failed to select variant", "dimension", dim, "option", opt.Name, "error", err)
				continue
			}
			page.WaitForTimeout(3000)

			core := a.extractCore(page)
			variantURL := a.variantURL(page, opt)
			if variantURL == "" || variantURL == stripTracking(productURL) {
				// A variant must have its own identity URL.
				continue
			}

			variants = append(variants, models.Variant{
				URL:          variantURL,
				ParentURL:    productURL,
				Title:        core.Title,
				Price:        core.Price,
				Seller:       core.Seller,
				Manufacturer: core.Manufacturer,
				ImageURL:     core.ImageURL,
			})
		}
	}

	return variants, nil
}

// variantURL derives the variant's identity URL from its ASIN, falling back
// to the page URL after selection.
func (a *Amazon) variantURL(page playwright.Page, opt amazonOption) string {
	current := stripTracking(page.URL())
	if opt.ASIN == "" {
		return current
	}
	u, err := url.Parse(current)
	if err != nil {
		return current
	}
	return fmt.Sprintf("%s://%s/dp/%s", u.Scheme, u.Host, opt.ASIN)
}

// detectVariantDimensions discovers the twister rows and variation dropdowns
// on the current product page.
func (a *Amazon) detectVariantDimensions(page playwright.Page) (map[string][]amazonOption, error) {
	raw, err := page.Evaluate(`() => {
		const dimensions = {};

		for (const row of document.querySelectorAll('div[id*="inline-twister-row-"]')) {
			const dim = row.id.replace('inline-twister-row-', '').replace('_name', '');
			const options = [];
			for (const li of row.querySelectorAll('li[data-asin]')) {
				if (li.getAttribute('data-initiallyUnavailable') === 'true') continue;
				const asin = li.getAttribute('data-asin');
				const name = li.querySelector('.swatch-title-text-display')?.textContent?.trim() ||
					li.querySelector('img')?.alt?.trim() ||
					li.querySelector('.a-button-text')?.textContent?.trim() || 'Unknown';
				options.push({name: name, asin: asin, value: asin});
			}
			if (options.length > 0) dimensions[dim] = options;
		}

		for (const select of document.querySelectorAll('select[name*="dropdown_selected"]')) {
			const dim = select.name.replace('dropdown_selected_', '').replace('_name', '');
			const options = [];
			for (const option of select.options) {
				if (option.value && option.textContent.trim() !== 'Select') {
					options.push({
						name: option.textContent.trim(),
						asin: option.getAttribute('data-asin') || option.value,
						value: option.value,
					});
				}
			}
			if (options.length > 0) dimensions[dim] = options;
		}

		return dimensions;
	}`)
	if err != nil {
		return nil, fmt.Errorf("variant detection failed: %w", err)
	}

	dims, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	out := make(map[string][]amazonOption, len(dims))
	for dim, rawOpts := range dims {
		list, ok := rawOpts.([]interface{})
		if !ok {
			continue
		}
		var options []amazonOption
		for _, rawOpt := range list {
			m, ok := rawOpt.(map[string]interface{})
			if !ok {
				continue
			}
			options = append(options, amazonOption{
				Name:  asString(m["name"]),
				ASIN:  asString(m["asin"]),
				Value: asString(m["value"]),
			})
		}
		if len(options) > 0 {
			out[dim] = options
		}
	}
	return out, nil
}

func (a *Amazon) selectVariant(page playwright.Page, dim string, opt amazonOption) error {
	if opt.ASIN != "" {
		loc := page.Locator(fmt.Sprintf(`li[data-asin=%q]`, opt.ASIN)).First()
		if count, err := loc.Count(); err == nil && count > 0 {
			return loc.Click()
		}
	}

	dropdown := page.Locator(fmt.Sprintf(`select[name="dropdown_selected_%s_name"]`, dim)).First()
	if count, err := dropdown.Count(); err == nil && count > 0 {
		_, err := dropdown.SelectOption(playwright.SelectOptionValues{
			Values: playwright.StringSlice(opt.Value),
		})
		return err
	}

	loc := page.Locator(fmt.Sprintf(`li:has-text(%q)`, opt.Name)).First()
	if count, err := loc.Count(); err == nil && count > 0 {
		return loc.Click()
	}

	return fmt.Errorf("no selectable element for %s option %q", dim, opt.Name)
}

func (a *Amazon) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a.listing == nil {
		return false, ErrNoListingPage
	}

	nextSelectors := []string{
		"a.s-pagination-next",
		"a[aria-label='Next Page']",
		".a-pagination .a-last a",
		".a-pagination .a-next a",
	}

	for _, sel := range nextSelectors {
		next := a.listing.Locator(sel).First()
		count, err := next.Count()
		if err != nil || count == 0 {
			continue
		}

		if disabled, err := next.GetAttribute("aria-disabled"); err == nil && disabled == "true" {
			return false, nil
		}

		if err := next.Click(); err != nil {
			a.logger.Warn("failed to click next button", "selector", sel, "error", err)
			continue
		}

		a.listing.WaitForTimeout(3000)
		a.browser.Settle(a.listing)
		return true, nil
	}

	return false, nil
}

// ExtractASIN pulls the ASIN out of a canonical Amazon product URL.
func ExtractASIN(productURL string) string {
	m := amazonASINPattern.FindStringSubmatch(productURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
