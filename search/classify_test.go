package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func TestIsProductURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		hasPrice bool
		domains  []string
		want     bool
	}{
		{"subdomain of allowed domain", "https://shop.example.com/p/123", false, []string{"example.com"}, true},
		{"other domain", "https://other.com/p/123", false, []string{"example.com"}, false},
		{"price overrides pattern miss", "https://example.com/about", true, []string{"example.com"}, true},
		{"no pattern and no price", "https://example.com/about", false, []string{"example.com"}, false},
		{"empty allow-list", "https://any.store/dp/B0C", false, nil, true},
		{"www stripped", "https://www.example.com/produto/x", false, []string{"www.example.com"}, true},
		{"suffix must be a label boundary", "https://notexample.com/p/1", false, []string{"example.com"}, false},
		{"category keyword", "https://example.com/Samsung-galaxy", false, nil, true},
		{"product id pattern", "https://example.com/tenis-p-12345", false, nil, true},
		{"keyword in host", "https://tv.example.com/", false, nil, false},
		{"unparseable", "://", true, nil, false},
		{"relative", "/p/1", true, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProductURL(tt.url, tt.hasPrice, tt.domains))
		})
	}
}

func TestListings_RankAndTruncate(t *testing.T) {
	str := func(s string) *string { return &s }

	var shopping []models.ShoppingCandidate
	for i := 0; i < 15; i++ {
		c := models.ShoppingCandidate{URL: fmt.Sprintf("https://example.com/p/%d", i)}
		switch i % 3 {
		case 1:
			c.Promo = str("5%")
		case 2:
			c.Price = str("$10")
		}
		shopping = append(shopping, c)
	}
	shopping = append(shopping, models.ShoppingCandidate{URL: "https://example.com/blog"})

	listings := Listings(shopping, []string{"example.com"})

	require.Len(t, listings, 10)
	// price-only (score 2) first, in input order
	assert.Equal(t, "https://example.com/p/2", listings[0].URL)
	assert.Equal(t, "https://example.com/p/5", listings[1].URL)
	assert.Equal(t, "https://example.com/p/14", listings[4].URL)
	// then promo-only (score 1)
	assert.Equal(t, "https://example.com/p/1", listings[5].URL)
	for _, l := range listings {
		assert.NotEqual(t, "https://example.com/blog", l.URL)
	}
}

func TestStripStructured(t *testing.T) {
	long := "{" + strings.Repeat("x", 130) + "}"
	in := "Great phone\n\n\twith " + long + ` "price": "999", sku: "A1" end`

	assert.Equal(t, "Great phone with end", StripStructured(in))
	assert.Equal(t, "", StripStructured(""))
	assert.Equal(t, "{short}", StripStructured("{short}"))
}

func TestMine(t *testing.T) {
	c := Mine(models.SearchHit{
		Title:   "Notebook",
		URL:     "https://x.com/item/1",
		Content: "Notebook por € 1.299,90 com 15% de desconto. Seller: ACME Store | ships fast",
	})
	require.NotNil(t, c.Price)
	assert.Equal(t, "€ 1.299,90", *c.Price)
	require.NotNil(t, c.Promo)
	assert.Equal(t, "15%", *c.Promo)
	require.NotNil(t, c.Seller)
	assert.Equal(t, "ACME Store", *c.Seller)

	empty := Mine(models.SearchHit{Content: "no shopping signal here"})
	assert.Nil(t, empty.Price)
	assert.Nil(t, empty.Promo)
	assert.Nil(t, empty.Seller)
}

func TestMine_SnippetTruncated(t *testing.T) {
	c := Mine(models.SearchHit{Content: strings.Repeat("é", 500)})
	assert.Equal(t, 300, len([]rune(c.Snippet)))
}

func TestSplitDomains(t *testing.T) {
	assert.Equal(t,
		[]string{"amazon.com", "mercadolivre.com.br", "shopee.com.br", "magalu.com"},
		SplitDomains(" amazon.com,mercadolivre.com.br\nshopee.com.br  magalu.com,, "))
	assert.Empty(t, SplitDomains(""))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "example.com", NormalizeDomain("https://www.Example.com/shop"))
	assert.Equal(t, "loja.com.br", NormalizeDomain(" loja.com.br "))
}
