package platform

import (
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"Amazon India", "www.amazon.in", "amazon"},
		{"Amazon Germany", "www.amazon.de", "amazon"},
		{"Amazon UK", "amazon.co.uk", "amazon"},
		{"Flipkart", "www.flipkart.com", "flipkart"},
		{"Myntra", "www.myntra.com", "myntra"},
		{"Meesho", "www.meesho.com", "meesho"},
		{"eBay US", "www.ebay.com", "ebay"},
		{"eBay UK", "www.ebay.co.uk", "ebay"},
		{"Walmart", "www.walmart.com", "walmart"},
		{"Tata Cliq", "www.tatacliq.com", "tatacliq"},
		{"Uppercase host", "WWW.AMAZON.IN", "amazon"},
		{"Unknown shop", "www.someshop.com", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detect(tt.host)
			if tt.want == "" {
				if d != nil {
					t.Errorf("Detect(%q) = %v, want nil", tt.host, d.ID)
				}
				return
			}
			if d == nil {
				t.Fatalf("Detect(%q) = nil, want %q", tt.host, tt.want)
			}
			if d.ID != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.host, d.ID, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	d := Get("amazon")
	if d == nil {
		t.Fatal("expected amazon descriptor")
	}
	if d.Style != StylePaginated {
		t.Errorf("amazon style = %q, want %q", d.Style, StylePaginated)
	}
	if !d.VariantSupport {
		t.Error("amazon should support variants")
	}

	if Get("nosuch") != nil {
		t.Error("expected nil for unknown platform id")
	}
}

func TestPaginationStyles(t *testing.T) {
	tests := []struct {
		id    string
		style PaginationStyle
	}{
		{"amazon", StylePaginated},
		{"flipkart", StylePaginated},
		{"meesho", StyleInfiniteScroll},
		{"ajio", StyleInfiniteScroll},
		{"nykaa", StyleInfiniteScroll},
		{"tatacliq", StyleSinglePageOnly},
	}
	for _, tt := range tests {
		d := Get(tt.id)
		if d == nil {
			t.Fatalf("missing descriptor %q", tt.id)
		}
		if d.Style != tt.style {
			t.Errorf("%s style = %q, want %q", tt.id, d.Style, tt.style)
		}
	}
}

func TestDescriptorsComplete(t *testing.T) {
	for _, d := range All() {
		if d.ID == "" || d.DisplayName == "" {
			t.Errorf("descriptor missing identity: %+v", d)
		}
		if len(d.HostFragments) == 0 {
			t.Errorf("%s: no host fragments", d.ID)
		}
		if len(d.ProductMarkers) == 0 {
			t.Errorf("%s: no product markers", d.ID)
		}
		if d.Style == "" {
			t.Errorf("%s: no pagination style", d.ID)
		}
	}
}
