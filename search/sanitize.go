package search

import (
	"regexp"
	"strings"
)

var (
	reNewlines   = regexp.MustCompile(`\n+`)
	reTabs       = regexp.MustCompile(`\t+`)
	reLongBraces = regexp.MustCompile(`\{[^}]{120,}\}`)
	reKeyValue   = regexp.MustCompile(`"?[a-zA-Z0-9_\-]+"?\s*:\s*"[^"\n]{1,}"[,}]?`)
	reSpaces     = regexp.MustCompile(`\s{2,}`)
)

// StripStructured removes embedded JSON-ish noise from provider text: long
// brace-delimited blocks and quoted key:value pairs. Whitespace is collapsed
// and the result trimmed.
func StripStructured(text string) string {
	if text == "" {
		return ""
	}
	s := reNewlines.ReplaceAllString(text, " ")
	s = reTabs.ReplaceAllString(s, " ")
	s = reLongBraces.ReplaceAllString(s, " ")
	s = reKeyValue.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
