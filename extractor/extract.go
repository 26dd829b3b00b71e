// Package extractor turns rendered product-page HTML into a structured
// ProductRecord. Everything here is pure: no network, no browser, and no
// error return. Fields that cannot be determined are left nil.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// titleSelectors are evaluated in priority order; the first non-empty text wins.
var titleSelectors = []struct {
	sel  cascadia.Selector
	attr string // read this attribute instead of the text when set
}{
	{sel: cascadia.MustCompile(".ui-pdp-title")},
	{sel: cascadia.MustCompile("#productTitle")},
	{sel: cascadia.MustCompile(`meta[property="og:title"]`), attr: "content"},
	{sel: cascadia.MustCompile("h1")},
	{sel: cascadia.MustCompile("title")},
}

// Extract parses rawHTML fetched from sourceURL and returns the product
// title, price and promotions found on the page.
//
// Extract never panics on malformed input; a document that cannot be parsed
// yields EmptyRecord. Calling it twice with the same input produces the
// same record.
func Extract(rawHTML, sourceURL string) models.ProductRecord {
	record := models.EmptyRecord()
	if strings.TrimSpace(rawHTML) == "" {
		return record
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return record
	}

	record.Title = extractTitle(doc)
	record.Price = extractPrice(doc, sourceURL)
	record.Promotions = extractPromotions(doc)
	return record
}

func extractTitle(doc *goquery.Document) *string {
	for _, ts := range titleSelectors {
		s := doc.FindMatcher(ts.sel).First()
		if s.Length() == 0 {
			continue
		}
		var text string
		if ts.attr != "" {
			text, _ = s.Attr(ts.attr)
		} else {
			text = s.Text()
		}
		if text = strings.TrimSpace(text); text != "" {
			return &text
		}
	}
	return nil
}
