package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		requested   string
		paymentType string
		want        Normalized
	}{
		{
			name:        "wechat forces domestic settlement",
			requested:   "",
			paymentType: "wechat",
			want:        Normalized{SettlementCurrency: "cny", OriginalCurrency: "cny", ExchangeRate: 7.23},
		},
		{
			name:        "wechat with EUR keeps the quoted currency as original",
			requested:   "EUR",
			paymentType: "wechat",
			want:        Normalized{SettlementCurrency: "cny", OriginalCurrency: "eur", ExchangeRate: 7.23},
		},
		{
			name:        "alipay with eur",
			requested:   "eur",
			paymentType: "alipay",
			want:        Normalized{SettlementCurrency: "cny", OriginalCurrency: "eur", ExchangeRate: 7.23},
		},
		{
			name:        "credit card defaults to usd",
			requested:   "",
			paymentType: "creditcard",
			want:        Normalized{SettlementCurrency: "usd", OriginalCurrency: "usd", ExchangeRate: 1.0},
		},
		{
			name:        "credit card lowercases the request",
			requested:   "GBP",
			paymentType: "creditcard",
			want:        Normalized{SettlementCurrency: "gbp", OriginalCurrency: "gbp", ExchangeRate: 1.0},
		},
		{
			name:        "subscription settles in the requested currency",
			requested:   "cny",
			paymentType: "subscription-yearly",
			want:        Normalized{SettlementCurrency: "cny", OriginalCurrency: "cny", ExchangeRate: 1.0},
		},
		{
			name:        "whitespace is not a currency",
			requested:   "  ",
			paymentType: "creditcard",
			want:        Normalized{SettlementCurrency: "usd", OriginalCurrency: "usd", ExchangeRate: 1.0},
		},
		{
			name:        "unknown payment type still normalizes",
			requested:   "JPY",
			paymentType: "barter",
			want:        Normalized{SettlementCurrency: "jpy", OriginalCurrency: "jpy", ExchangeRate: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.requested, tt.paymentType)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.SettlementCurrency)
			assert.NotEmpty(t, got.OriginalCurrency)
		})
	}
}

func TestNormalizeWith_ConfigOverrides(t *testing.T) {
	got := NormalizeWith("usd", "wechat", "hkd", 7.8)
	assert.Equal(t, Normalized{SettlementCurrency: "hkd", OriginalCurrency: "usd", ExchangeRate: 7.8}, got)

	// zero-value overrides fall back to the package defaults
	got = NormalizeWith("usd", "wechat", "", 0)
	assert.Equal(t, Normalized{SettlementCurrency: "cny", OriginalCurrency: "usd", ExchangeRate: 7.23}, got)
}
