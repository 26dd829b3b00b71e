package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// priceCandidate is one location a product price is commonly found at.
type priceCandidate struct {
	sel      cascadia.Selector
	fraction bool // marketplace integer part; pairs with centsSel
}

var (
	// priceCandidates are tried in order; the first non-empty value wins.
	priceCandidates = []priceCandidate{
		{sel: cascadia.MustCompile("[itemprop='price']")},
		{sel: cascadia.MustCompile("meta[itemprop='price']")},
		{sel: cascadia.MustCompile("[data-price]")},
		{sel: cascadia.MustCompile(".price, .product-price, .a-price, .price-tag, .value, .amount")},
		{sel: cascadia.MustCompile(".andes-money-amount__fraction"), fraction: true},
		{sel: cascadia.MustCompile(".ui-pdp-price__second-line .andes-money-amount__fraction"), fraction: true},
		{sel: cascadia.MustCompile(".a-price .a-offscreen")},
		{sel: cascadia.MustCompile(`span:contains("$"), span:contains("€"), span:contains("£")`)},
	}

	centsSel = cascadia.MustCompile(".andes-money-amount__cents")

	currencyMetaSels = []cascadia.Selector{
		cascadia.MustCompile("meta[itemprop='priceCurrency']"),
		cascadia.MustCompile("meta[property='product:price:currency']"),
	}
)

func extractPrice(doc *goquery.Document, sourceURL string) models.Price {
	var price models.Price

	raw := findRawPrice(doc)
	if raw != "" {
		price.Raw = &raw
	}

	price.Currency = currencyMeta(doc)
	if price.Currency == nil {
		price.Currency = InferCurrency(price.Raw, sourceURL)
	}

	if price.Raw != nil {
		price.Value = NormalizePrice(*price.Raw, models.Deref(price.Currency), sourceURL)
	}
	return price
}

// findRawPrice returns the first price candidate's value: the content
// attribute, else data-price, else the element's trimmed text. A match on the
// marketplace fraction element is combined with the cents element as
// "<fraction>,<cents>" when cents are present.
func findRawPrice(doc *goquery.Document) string {
	for _, c := range priceCandidates {
		s := doc.FindMatcher(c.sel).First()
		if s.Length() == 0 {
			continue
		}
		raw := candidateValue(s)
		if raw == "" {
			continue
		}
		if c.fraction {
			if cents := strings.TrimSpace(doc.FindMatcher(centsSel).First().Text()); cents != "" {
				raw = raw + "," + cents
			}
		}
		return raw
	}
	return ""
}

func candidateValue(s *goquery.Selection) string {
	if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := s.Attr("data-price"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.Text())
}

func currencyMeta(doc *goquery.Document) *string {
	for _, sel := range currencyMetaSels {
		v, _ := doc.FindMatcher(sel).First().Attr("content")
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			return &v
		}
	}
	return nil
}
