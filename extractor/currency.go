package extractor

import (
	"net/url"
	"strings"
)

// InferCurrency guesses an ISO currency code from a raw price string and the
// page URL. The symbol in raw wins (R$, €, £); a bare "$" is resolved through
// the domain and defaults to USD. Without a symbol only the domain is used.
//
// Euro-zone country TLDs (.de, .fr, .it, .es) deliberately return nil: a
// shop on those domains may price in any currency.
func InferCurrency(raw *string, pageURL string) *string {
	if raw == nil || *raw == "" {
		return currencyFromDomain(pageURL)
	}
	r := *raw
	switch {
	case strings.Contains(r, "R$"):
		return code("BRL")
	case strings.Contains(r, "€"):
		return code("EUR")
	case strings.Contains(r, "£"):
		return code("GBP")
	case strings.Contains(r, "$"):
		if c := currencyFromDomain(pageURL); c != nil {
			return c
		}
		return code("USD")
	}
	return currencyFromDomain(pageURL)
}

func currencyFromDomain(pageURL string) *string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, ".br"):
		return code("BRL")
	case strings.HasSuffix(host, ".co.uk"):
		return code("GBP")
	}
	return nil
}

func code(c string) *string { return &c }
