package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is one of the supported ISO 4217 codes.
type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

var currencySymbols = map[Currency]string{
	CurrencyPEN: "S/",
	CurrencyUSD: "$",
}

// IsValid reports whether c is supported.
func (c Currency) IsValid() bool {
	_, ok := currencySymbols[c]
	return ok
}

// Symbol returns the display symbol, falling back to the code.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Format renders amount with the currency symbol and two decimals.
func (c Currency) Format(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", c.Symbol(), amount.StringFixed(2))
}

// Currencies lists the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{CurrencyPEN, CurrencyUSD}
}
