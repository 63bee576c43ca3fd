package platform

import (
	"strings"
)

// PaginationStyle describes how a platform reveals more listing results.
type PaginationStyle string

const (
	StylePaginated      PaginationStyle = "paginated"
	StyleInfiniteScroll PaginationStyle = "infinite-scroll"
	StyleSinglePageOnly PaginationStyle = "single-page-only"
)

// Descriptor is the static configuration for one platform. Descriptors are
// immutable after registration.
type Descriptor struct {
	ID             string
	DisplayName    string
	HostFragments  []string
	Style          PaginationStyle
	ProductMarkers []string
	ListingMarkers []string
	VariantSupport bool
}

var descriptors = []*Descriptor{
	{
		ID:             "amazon",
		DisplayName:    "AMAZON",
		HostFragments:  []string{"amazon."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/dp/", "/gp/product/"},
		ListingMarkers: []string{"/s?", "/s/", "/b?", "/b/", "k="},
		VariantSupport: true,
	},
	{
		ID:             "flipkart",
		DisplayName:    "FLIPKART",
		HostFragments:  []string{"flipkart."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/p/", "/item/"},
		ListingMarkers: []string{"/search?", "q=", "/pr?"},
		VariantSupport: true,
	},
	{
		ID:             "myntra",
		DisplayName:    "MYNTRA",
		HostFragments:  []string{"myntra."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/buy/", "/buy"},
		ListingMarkers: []string{"rawQuery", "/shop/"},
		VariantSupport: true,
	},
	{
		ID:             "meesho",
		DisplayName:    "MEESHO",
		HostFragments:  []string{"meesho."},
		Style:          StyleInfiniteScroll,
		ProductMarkers: []string{"/p/"},
		ListingMarkers: []string{"/search?", "q="},
	},
	{
		ID:             "ajio",
		DisplayName:    "AJIO",
		HostFragments:  []string{"ajio."},
		Style:          StyleInfiniteScroll,
		ProductMarkers: []string{"/p/"},
		ListingMarkers: []string{"/s/", "/search/", "query="},
		VariantSupport: true,
	},
	{
		ID:             "ebay",
		DisplayName:    "EBAY",
		HostFragments:  []string{"ebay."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/itm/"},
		ListingMarkers: []string{"/sch/", "_nkw="},
		VariantSupport: true,
	},
	{
		ID:             "redbubble",
		DisplayName:    "REDBUBBLE",
		HostFragments:  []string{"redbubble."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/i/"},
		ListingMarkers: []string{"/shop/", "query="},
		VariantSupport: true,
	},
	{
		ID:             "snapdeal",
		DisplayName:    "SNAPDEAL",
		HostFragments:  []string{"snapdeal."},
		Style:          StyleInfiniteScroll,
		ProductMarkers: []string{"/product/"},
		ListingMarkers: []string{"/search?", "keyword="},
	},
	{
		ID:             "shopsy",
		DisplayName:    "SHOPSY",
		HostFragments:  []string{"shopsy."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/p/"},
		ListingMarkers: []string{"/search?", "q="},
	},
	{
		ID:             "nykaa",
		DisplayName:    "NYKAA",
		HostFragments:  []string{"nykaa."},
		Style:          StyleInfiniteScroll,
		ProductMarkers: []string{"/p/"},
		ListingMarkers: []string{"/search/", "q="},
		VariantSupport: true,
	},
	{
		ID:             "tatacliq",
		DisplayName:    "TATA CLIQ",
		HostFragments:  []string{"tatacliq."},
		Style:          StyleSinglePageOnly,
		ProductMarkers: []string{"/p-"},
		ListingMarkers: []string{"/search/", "text="},
		VariantSupport: true,
	},
	{
		ID:             "indiamart",
		DisplayName:    "INDIAMART",
		HostFragments:  []string{"indiamart."},
		Style:          StyleInfiniteScroll,
		ProductMarkers: []string{"/proddetail/"},
		ListingMarkers: []string{"/impcat/", "/search."},
	},
	{
		ID:             "walmart",
		DisplayName:    "WALMART",
		HostFragments:  []string{"walmart."},
		Style:          StylePaginated,
		ProductMarkers: []string{"/ip/"},
		ListingMarkers: []string{"/search?", "/browse/"},
		VariantSupport: true,
	},
}

// Detect resolves a normalized host to its platform descriptor. Matching is
// substring based so country TLD variants (amazon.de, amazon.co.uk) resolve
// to the same platform. Returns nil for unregistered domains.
func Detect(host string) *Descriptor {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil
	}
	for _, d := range descriptors {
		for _, frag := range d.HostFragments {
			if strings.Contains(host, frag) {
				return d
			}
		}
	}
	return nil
}

// Get returns the descriptor for a platform identifier, or nil.
func Get(id string) *Descriptor {
	for _, d := range descriptors {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// All returns the registered descriptors.
func All() []*Descriptor {
	out := make([]*Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}
