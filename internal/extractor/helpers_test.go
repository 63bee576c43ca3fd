package extractor

import (
	"strings"
	"testing"
)

func TestHarvestLinks(t *testing.T) {
	html := `
	<html><body>
		<a href="/shirt-a/p/itmA">A</a>
		<a href="/shirt-b/p/itmB?pid=1&lid=2">B</a>
		<a href="https://www.flipkart.com/shirt-a/p/itmA#reviews">A again</a>
		<a href="/about-us">About</a>
		<a href="mailto:help@flipkart.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="https://ads.example.com/shirt/p/itmC">Offsite</a>
	</body></html>`

	keep := func(u string) bool {
		return strings.Contains(u, "flipkart.") && strings.Contains(u, "/p/")
	}

	links := harvestLinks(html, "https://www.flipkart.com/search?q=shirt", 50, keep)

	want := []string{
		"https://www.flipkart.com/shirt-a/p/itmA",
		"https://www.flipkart.com/shirt-b/p/itmB",
	}
	if len(links) != len(want) {
		t.Fatalf("got %d links %v, want %d", len(links), links, len(want))
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestHarvestLinksLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		sb.WriteString(`<a href="https://shop.example.com/product/` + string(rune('a'+i)) + `">x</a>`)
	}
	sb.WriteString("</body></html>")

	links := harvestLinks(sb.String(), "https://shop.example.com", 10, func(u string) bool {
		return strings.Contains(u, "/product/")
	})
	if len(links) != 10 {
		t.Errorf("limit not applied: got %d links", len(links))
	}
}

func TestHarvestLinksMalformedHTML(t *testing.T) {
	links := harvestLinks("<a href='/p/1'", "https://www.meesho.com", 50, func(string) bool { return true })
	// Tolerant parsing: must not panic; result content is best-effort.
	_ = links
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Rupee with commas", "₹1,299", "₹1,299"},
		{"Rupee with noise", "₹1,299 (56% off)", "₹1,299"},
		{"Dollar", "$24.99", "$24.99"},
		{"Euro", "24,99 €", "€24,99"},
		{"Plain number", "499", "499"},
		{"Newlines collapsed", "₹799\noff", "₹799"},
		{"No digits", "Price on request", ""},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanPrice(tt.in); got != tt.want {
				t.Errorf("cleanPrice(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"/relative/a.jpg", ""},
		{"data:image/png;base64,xyz", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := normalizeImageURL(tt.in); got != tt.want {
			t.Errorf("normalizeImageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := collapseSpace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("collapseSpace = %q", got)
	}
}

func TestStripTracking(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://x.com/p/1?ref=abc", "https://x.com/p/1"},
		{"https://x.com/p/1#top", "https://x.com/p/1"},
		{"https://x.com/p/1?a=1#b", "https://x.com/p/1"},
		{"https://x.com/p/1", "https://x.com/p/1"},
	}
	for _, tt := range tests {
		if got := stripTracking(tt.in); got != tt.want {
			t.Errorf("stripTracking(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
