package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.,\-]`)
	leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// NormalizePrice parses a raw price string into a float using the currency
// and page URL as locale evidence.
//
// With comma-decimal evidence (BRL, an "R$" in raw, or a Brazilian domain)
// dots are thousands separators and the comma is the decimal point.
// Otherwise a string holding both separators treats the comma as thousands;
// a lone comma is the decimal point. Unparseable or non-finite input yields
// nil.
func NormalizePrice(raw, currency, pageURL string) *float64 {
	commaDecimal := currency == "BRL" || strings.Contains(raw, "R$") || isBrazilianURL(pageURL)

	cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return nil
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case commaDecimal:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	return parseLeadingFloat(cleaned)
}

// parseLeadingFloat parses the longest numeric prefix of s, so that stray
// trailing separators ("1.234.") do not discard an otherwise valid price.
func parseLeadingFloat(s string) *float64 {
	m := leadingNumber.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func isBrazilianURL(pageURL string) bool {
	return strings.Contains(pageURL, ".com.br") || strings.HasSuffix(pageURL, ".br")
}
