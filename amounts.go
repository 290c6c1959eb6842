package pdfstatement

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// currencySymbols maps amount prefixes to ISO-4217 codes.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"£", money.GBP},
	{"€", money.EUR},
	{"$", money.USD},
}

var numericReplacer = strings.NewReplacer(",", "", "$", "", "£", "", "€", "")

// normalizeNumeric strips currency symbols and thousands separators. An
// empty string normalizes to "0.00".
func normalizeNumeric(value string) string {
	if value == "" {
		return "0.00"
	}
	return strings.TrimSpace(numericReplacer.Replace(value))
}

// parseAmount converts a raw amount to an exact decimal. Blank input is an
// error; it is never coerced to zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if isBlank(raw) {
		return decimal.Zero, errors.New("empty amount")
	}
	clean := strings.ReplaceAll(normalizeNumeric(raw), " ", "")

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// currencyFromSymbol returns the currency of the first symbol found in the
// raw amounts, or fallback when none carries one.
func currencyFromSymbol(fallback string, raws ...string) string {
	for _, raw := range raws {
		for _, cs := range currencySymbols {
			if strings.Contains(raw, cs.symbol) {
				return cs.code
			}
		}
	}
	return fallback
}

// resolveCurrency returns code when it is a known ISO-4217 currency and
// fallback otherwise.
func resolveCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" && money.GetCurrency(code) != nil {
		return code
	}
	if money.GetCurrency(fallback) != nil {
		return fallback
	}
	return money.USD
}

// toMoney converts an exact amount to go-money minor units.
func toMoney(amount decimal.Decimal, code string) *money.Money {
	code = resolveCurrency(code, money.USD)
	currency := money.GetCurrency(code)
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, code)
}
