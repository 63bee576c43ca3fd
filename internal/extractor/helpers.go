package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// maxLinksPerPage bounds how many product links one listing page yields.
const maxLinksPerPage = 50

// firstText returns the first non-empty inner text for any selector, with
// whitespace collapsed.
func firstText(page playwright.Page, selectors []string) string {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.InnerText()
		if err != nil {
			continue
		}
		if text = collapseSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// textByXPath returns the first non-empty text for any XPath expression.
func textByXPath(page playwright.Page, xpaths []string) string {
	for _, xp := range xpaths {
		loc := page.Locator("xpath=" + xp).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.InnerText()
		if err != nil {
			continue
		}
		if text = collapseSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// attrValue returns the first non-empty attribute value for any selector.
func attrValue(page playwright.Page, selectors []string, attr string) string {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		v, err := loc.GetAttribute(attr)
		if err != nil {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// imageURL resolves the primary product image: og:image meta first, then the
// given selectors trying src and lazy-load attributes.
func imageURL(page playwright.Page, selectors []string) string {
	if og, err := page.Evaluate(`() => {
		const m = document.querySelector('meta[property="og:image"]');
		return m && m.content ? m.content : null;
	}`); err == nil {
		if s, ok := og.(string); ok {
			if u := normalizeImageURL(s); u != "" {
				return u
			}
		}
	}

	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			v, err := loc.GetAttribute(attr)
			if err != nil {
				continue
			}
			if u := normalizeImageURL(v); u != "" {
				return u
			}
		}
	}
	return ""
}

func normalizeImageURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	if strings.HasPrefix(s, "http") {
		return s
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// harvestLinks parses a listing page snapshot and returns absolute URLs of
// all anchors accepted by keep, deduplicated in document order and truncated
// to limit. Query strings and fragments are stripped so the same product
// reached through different tracking parameters dedups to one URL.
func harvestLinks(html, baseURL string, limit int, keep func(string) bool) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	if limit <= 0 {
		limit = maxLinksPerPage
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}

		abs := resolveURL(base, href)
		if abs == "" {
			return true
		}

		clean := stripTracking(abs)
		if !keep(clean) {
			return true
		}
		if _, dup := seen[clean]; dup {
			return true
		}

		seen[clean] = struct{}{}
		links = append(links, clean)
		return len(links) < limit
	})

	return links
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func stripTracking(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return u
}

var priceDigits = regexp.MustCompile(`[0-9][0-9,.]*`)

// cleanPrice reduces a raw price string to its leading currency symbol and
// numeric portion, dropping surrounding promotional text. Returns "" when no
// number is present.
func cleanPrice(raw string) string {
	raw = collapseSpace(raw)
	if raw == "" {
		return ""
	}

	num := priceDigits.FindString(raw)
	if num == "" {
		return ""
	}

	for _, sym := range []string{"₹", "$", "€", "£"} {
		if strings.Contains(raw, sym) {
			return sym + num
		}
	}
	return num
}
