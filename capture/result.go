package capture

// Result is what a single capture produces.
type Result struct {
	// HTML is the rendered page HTML.
	HTML string

	// Screenshot is the full-page PNG. Nil for static fetches.
	Screenshot []byte

	// FinalURL is the URL after redirects.
	FinalURL string

	// Title is the document title.
	Title string

	// Method records how the page was fetched: "browser" or "static".
	Method string
}
