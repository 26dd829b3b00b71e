package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		currency string
		url      string
		want     float64
	}{
		{"brl thousands and decimal", "1.234,56", "BRL", "", 1234.56},
		{"en thousands and decimal", "1,234.56", "", "", 1234.56},
		{"brl decimal only", "99,90", "BRL", "", 99.90},
		{"plain decimal", "12.50", "", "", 12.50},
		{"real symbol implies comma decimal", "R$ 2.499,00", "", "", 2499},
		{"brazilian domain implies comma decimal", "3.100,10", "", "https://loja.com.br/p/1", 3100.10},
		{"lone comma is decimal", "7,5", "", "", 7.5},
		{"digits only", "1999", "USD", "", 1999},
		{"surrounding text", "Price: $ 45.00 each", "USD", "", 45},
		{"negative", "-3.50", "", "", -3.50},
		{"trailing separator", "1.234.", "", "", 1.234},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.raw, tt.currency, tt.url)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestNormalizePrice_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "free", "R$", "--", ".,"} {
		assert.Nil(t, NormalizePrice(raw, "", ""), "raw=%q", raw)
	}
}

func TestInferCurrency(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		raw  *string
		url  string
		want *string
	}{
		{"real symbol", str("R$ 1.234,56"), "https://x.com.br/p", str("BRL")},
		{"dollar on generic domain", str("$19.99"), "https://x.com/p", str("USD")},
		{"dollar on brazilian domain", str("$19,99"), "https://x.com.br/p", str("BRL")},
		{"euro symbol", str("€ 10"), "https://x.com/p", str("EUR")},
		{"pound symbol", str("£10"), "https://x.com/p", str("GBP")},
		{"no raw on uk domain", nil, "https://x.co.uk/p", str("GBP")},
		{"no raw on german domain", nil, "https://x.de/p", nil},
		{"no symbol on french domain", str("10,00"), "https://x.fr/p", nil},
		{"no signal at all", str("10.00"), "https://x.com/p", nil},
		{"bad url", nil, "%%%", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCurrency(tt.raw, tt.url)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
