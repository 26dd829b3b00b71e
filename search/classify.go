package search

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const maxListings = 10

// productPatterns recognise product detail pages by path or host.
var productPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/p/`),
	regexp.MustCompile(`(?i)/dp/`),
	regexp.MustCompile(`(?i)/produto`),
	regexp.MustCompile(`(?i)/product`),
	regexp.MustCompile(`(?i)/item/`),
	regexp.MustCompile(`(?i)/offer/`),
	regexp.MustCompile(`(?i)/listing/`),
	regexp.MustCompile(`(?i)/buy/`),
	regexp.MustCompile(`(?i)/shop/`),
	regexp.MustCompile(`(?i)/(iphone|samsung|laptop|notebook|phone|watch|camera|tv|tablet|headphone|speaker)`),
	regexp.MustCompile(`(?i)-p-\d+`),
	regexp.MustCompile(`(?i)/pd/`),
}

// IsProductURL reports whether rawURL is a direct listing: its host is
// within one of domains (or domains is empty), and either the URL looks like
// a product page or the hit carried a price.
func IsProductURL(rawURL string, hasPrice bool, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	if !inDomains(host, domains) {
		return false
	}
	if hasPrice {
		return true
	}
	for _, re := range productPatterns {
		if re.MatchString(u.Path) || re.MatchString(u.Hostname()) {
			return true
		}
	}
	return false
}

func inDomains(host string, domains []string) bool {
	if len(domains) == 0 {
		return true
	}
	for _, d := range domains {
		d = NormalizeDomain(d)
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// NormalizeDomain lower-cases d and strips any scheme, leading "www." and
// path, so "https://www.Example.com/shop" becomes "example.com".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}

// score ranks a candidate: a price is worth 2, a promotion 1.
func score(c models.ShoppingCandidate) int {
	s := 0
	if c.Price != nil {
		s += 2
	}
	if c.Promo != nil {
		s++
	}
	return s
}

// Listings filters shopping to direct listings within domains, ranks them by
// score (stable on ties) and keeps the top 10.
func Listings(shopping []models.ShoppingCandidate, domains []string) []models.ShoppingCandidate {
	listings := make([]models.ShoppingCandidate, 0, len(shopping))
	for _, c := range shopping {
		if IsProductURL(c.URL, c.Price != nil, domains) {
			listings = append(listings, c)
		}
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return score(listings[i]) > score(listings[j])
	})
	if len(listings) > maxListings {
		listings = listings[:maxListings]
	}
	return listings
}

// SplitDomains parses a free-text domain list separated by commas, spaces
// or newlines.
func SplitDomains(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
