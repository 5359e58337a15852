// Package currency decides settlement currency and exchange rate for an order.
package currency

import (
	"strings"

	"github.com/coursemint/settlement/pkg/types"
)

const (
	// DefaultCode is used when the caller did not quote a currency at all.
	DefaultCode = "usd"
	// DomesticCode is forced for domestic payment instruments.
	DomesticCode = "cny"
	// DomesticExchangeRate converts a usd-quoted amount to DomesticCode.
	DomesticExchangeRate = 7.23
)

// Normalized holds definite settlement values; no field is ever empty.
type Normalized struct {
	SettlementCurrency string
	OriginalCurrency   string
	ExchangeRate       float64
}

// domesticMethods are the instruments that always settle in DomesticCode,
// whatever currency the caller requested.
var domesticMethods = map[types.PaymentMethod]struct{}{
	types.PaymentMethodWechat: {},
	types.PaymentMethodAlipay: {},
}

// Normalize lowercases the requested currency (defaulting to DefaultCode),
// then applies the domestic-instrument override. The original currency keeps
// what the caller quoted; it falls back to the settlement currency only when
// the request carried no currency. Normalize never fails.
func Normalize(requested string, paymentType string) Normalized {
	return NormalizeWith(requested, paymentType, DomesticCode, DomesticExchangeRate)
}

// NormalizeWith is Normalize with the domestic code and rate taken from
// configuration. Empty or zero overrides fall back to the package defaults.
func NormalizeWith(requested string, paymentType string, domesticCode string, domesticRate float64) Normalized {
	if domesticCode == "" {
		domesticCode = DomesticCode
	}
	if domesticRate == 0 {
		domesticRate = DomesticExchangeRate
	}

	code := strings.ToLower(strings.TrimSpace(requested))

	n := Normalized{ExchangeRate: 1.0}
	if code == "" {
		n.SettlementCurrency = DefaultCode
	} else {
		n.SettlementCurrency = code
	}

	if _, ok := domesticMethods[types.PaymentMethod(paymentType)]; ok {
		n.SettlementCurrency = domesticCode
		n.ExchangeRate = domesticRate
	}

	if code == "" {
		n.OriginalCurrency = n.SettlementCurrency
	} else {
		n.OriginalCurrency = code
	}
	return n
}
