package extractor

import (
	"strings"
	"testing"
)

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"Canonical dp URL", "https://www.amazon.in/dp/B0ABCD1234", "B0ABCD1234"},
		{"With ref path", "https://www.amazon.in/product-name/dp/B0ABCD1234/ref=sr_1_1", "B0ABCD1234"},
		{"No ASIN", "https://www.amazon.in/s?k=shoes", ""},
		{"Lowercase not an ASIN", "https://www.amazon.in/dp/b0abcd1234", ""},
		{"Too short", "https://www.amazon.in/dp/B0ABC", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractASIN(tt.url); got != tt.want {
				t.Errorf("ExtractASIN(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestCanonicalAmazonLinks(t *testing.T) {
	in := []string{
		"https://www.amazon.in/shoe-name/dp/B0ABCD1234/ref=sr_1_1",
		"https://www.amazon.in/dp/B0ABCD1234",
		"https://www.amazon.in/other/dp/B0WXYZ5678",
		"https://www.amazon.in/gift-cards",
	}

	got := canonicalAmazonLinks(in, 50)
	want := []string{
		"https://www.amazon.in/dp/B0ABCD1234",
		"https://www.amazon.in/dp/B0WXYZ5678",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCanonicalAmazonLinksLimit(t *testing.T) {
	in := []string{
		"https://www.amazon.in/dp/B0AAAA0001",
		"https://www.amazon.in/dp/B0AAAA0002",
		"https://www.amazon.in/dp/B0AAAA0003",
	}
	if got := canonicalAmazonLinks(in, 2); len(got) != 2 {
		t.Errorf("limit not applied: got %d links", len(got))
	}
}

func TestAmazonListingLinkFilter(t *testing.T) {
	html := `
	<html><body>
		<a href="https://www.amazon.in/shoe/dp/B0ABCD1234/ref=sr_1_1">Product</a>
		<a href="https://www.amazon.in/sspa/click?ie=UTF8&spc=x">Sponsored</a>
		<a href="https://aax-eu-zaz.amazon.in/x/c/abc123">Tracking</a>
		<a href="https://www.amazon.in/gp/slredirect/picassoRedirect.html">Redirect</a>
		<a href="https://www.amazon.in/s?k=shoes&page=2">Search</a>
	</body></html>`

	links := harvestLinks(html, "https://www.amazon.in/s?k=shoes", 50, func(u string) bool {
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
	if len(canonical) != 1 {
		t.Fatalf("got %v, want exactly the one organic product link", canonical)
	}
	if canonical[0] != "https://www.amazon.in/dp/B0ABCD1234" {
		t.Errorf("canonical link = %q", canonical[0])
	}
}

func TestCleanManufacturer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Brand prefix", "Brand: Puma", "Puma"},
		{"Manufacturer prefix", "Manufacturer: Nike India", "Nike India"},
		{"Trailing packer info", "Puma Packer details follow", "Puma"},
		{"Trailing seller info", "Adidas Seller Cloudtail", "Adidas"},
		{"Imported by", "Levis Imported by X Corp", "Levis"},
		{"Plain", "Wildcraft", "Wildcraft"},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanManufacturer(tt.in); got != tt.want {
				t.Errorf("cleanManufacturer(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
