// Package classifier decides whether a target URL is a single product page
// or a listing page. Classification is a pure string function: no network
// access, deterministic and total for any input string.
package classifier

import (
	"net/url"
	"strings"

	"github.com/webdriftlab/ecom-scraper/internal/models"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
)

// Classify maps a raw URL to its kind for the given platform. An unregistered
// platform (nil descriptor) yields KindUnknown. A registered platform whose
// URL matches no product marker classifies as a listing: a listing traversal
// that finds zero links degrades gracefully, while treating a listing as a
// single product would silently drop data.
func Classify(rawURL string, d *platform.Descriptor) models.Kind {
	if d == nil {
		return models.KindUnknown
	}

	pathQuery := pathAndQuery(rawURL)

	for _, marker := range d.ProductMarkers {
		if strings.Contains(pathQuery, marker) {
			return models.KindSingleProduct
		}
	}

	for _, marker := range d.ListingMarkers {
		if strings.Contains(pathQuery, marker) {
			return models.KindListing
		}
	}

	return models.KindListing
}

// pathAndQuery extracts the path and query portion of a URL, lowercased.
// Falls back to the raw string when parsing fails so the classifier stays
// total.
func pathAndQuery(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	s := u.Path
	if u.RawQuery != "" {
		s += "?" + u.RawQuery
	}
	return strings.ToLower(s)
}
