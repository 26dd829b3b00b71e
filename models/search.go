package models

// SearchHit is one provider result with sanitized content.
type SearchHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ShoppingCandidate holds the shopping fields mined from a SearchHit.
type ShoppingCandidate struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Seller  *string `json:"seller"`
	Price   *string `json:"price"`
	Promo   *string `json:"promo"`
	Snippet string  `json:"snippet"`
}

// SearchResponse is the curated result of a product search.
type SearchResponse struct {
	OK      bool        `json:"ok"`
	Answer  *string     `json:"answer"`
	Results []SearchHit `json:"results"`

	// Shopping is every mined hit, unfiltered and unranked.
	Shopping []ShoppingCandidate `json:"shopping"`

	// Listings are the ranked direct product listings (top 10).
	Listings []ShoppingCandidate `json:"listings"`

	CacheStatus string `json:"cache_status,omitempty"`
}
