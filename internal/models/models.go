package models

import (
	"time"
)

// Kind is the classification of a target URL.
type Kind string

const (
	KindSingleProduct Kind = "single_product"
	KindListing       Kind = "listing"
	KindUnknown       Kind = "unknown"
)

// Whitelist flag literals written to the output streams.
const (
	FlagWhitelisted    = "Whitelisted"
	FlagNotWhitelisted = "False"
)

// Target is one URL submitted for an extraction session.
type Target struct {
	RawURL   string `json:"raw_url"`
	Domain   string `json:"domain"`
	Platform string `json:"platform,omitempty"`
	Kind     Kind   `json:"kind"`
}

// Product is one extracted item. Identity key is URL; a record is never
// mutated after it has been appended to a sink.
type Product struct {
	URL          string `json:"product_url"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	Seller       string `json:"seller_name"`
	Manufacturer string `json:"manufacturer_name"`
	ImageURL     string `json:"image_url"`
	Whitelisted  string `json:"is_whitelisted"`
}

// Variant is a product-like record scoped to a parent product URL.
type Variant struct {
	URL          string `json:"variant_product_url"`
	ParentURL    string `json:"main_product_url"`
	Title        string `json:"title"`
	Price        string `json:"variant_price"`
	Seller       string `json:"seller_name"`
	Manufacturer string `json:"manufacturer_name"`
	ImageURL     string `json:"image_url"`
	Whitelisted  string `json:"is_whitelisted"`
}

// Incomplete reports whether a required field (title or price) is missing.
func (p *Product) Incomplete() bool {
	return p.Title == "" || p.Price == ""
}

// ProductColumns is the product stream header, in column order.
func ProductColumns() []string {
	return []string{"product_url", "title", "price", "seller_name", "manufacturer_name", "image_url", "is_whitelisted"}
}

// VariantColumns is the variant stream header, in column order.
func VariantColumns() []string {
	return []string{"variant_product_url", "main_product_url", "title", "variant_price", "seller_name", "manufacturer_name", "image_url", "is_whitelisted"}
}

// Row returns the product record in ProductColumns order.
func (p *Product) Row() []string {
	return []string{p.URL, p.Title, p.Price, p.Seller, p.Manufacturer, p.ImageURL, p.Whitelisted}
}

// Row returns the variant record in VariantColumns order.
func (v *Variant) Row() []string {
	return []string{v.URL, v.ParentURL, v.Title, v.Price, v.Seller, v.Manufacturer, v.ImageURL, v.Whitelisted}
}

// Report summarizes one session. It is the only session output besides the
// record streams themselves.
type Report struct {
	SessionID   string    `json:"session_id"`
	Target      Target    `json:"target"`
	Products    int       `json:"products_written"`
	Variants    int       `json:"variants_written"`
	Incomplete  int       `json:"incomplete_records"`
	Skipped     int       `json:"errors_skipped"`
	Pages       int       `json:"pages_processed"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	OutputPath  string    `json:"output_path,omitempty"`
	AbortReason string    `json:"abort_reason,omitempty"`
}
