package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxPromotionLen = 160
	maxPromotions   = 20
)

var promoKeywords = []string{
	"promo", "promotion", "discount", "off", "coupon", "voucher", "shipping", "installment",
}

// extractPromotions scans every element under <body> for short texts that
// mention a promotion keyword. Results are unique, in document order, and
// capped at maxPromotions.
func extractPromotions(doc *goquery.Document) []string {
	promotions := make([]string, 0, maxPromotions)
	seen := make(map[string]struct{})

	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !IsPromotion(text) {
			return true
		}
		if _, ok := seen[text]; ok {
			return true
		}
		seen[text] = struct{}{}
		promotions = append(promotions, text)
		return len(promotions) < maxPromotions
	})
	return promotions
}

// UniquePromotions normalizes promotion texts from an outside source: trims
// them, drops empties and repeats, keeps first-seen order, and caps the
// result at maxPromotions. It never returns nil.
func UniquePromotions(texts []string) []string {
	out := make([]string, 0, min(len(texts), maxPromotions))
	seen := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxPromotions {
			break
		}
	}
	return out
}

// IsPromotion reports whether text is a promotion candidate: non-empty, at
// most 160 characters, and containing a promotion keyword.
func IsPromotion(text string) bool {
	if text == "" || len([]rune(text)) > maxPromotionLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range promoKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
