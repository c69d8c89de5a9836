// Package amount pulls a monetary value straight out of message text. It is
// the reconciliation oracle for model-produced amounts, which are prone to
// dropped or altered digits.
package amount

import (
	"regexp"

	"github.com/shopspring/decimal"
)

const currencyPrefix = `(?i)(?:£|\$|€|gbp|usd|eur)?\s*`

// Patterns in strict priority order: two decimals, one decimal, bare integer.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(currencyPrefix + `(\d+\.\d{2})`),
	regexp.MustCompile(currencyPrefix + `(\d+\.\d)`),
	regexp.MustCompile(currencyPrefix + `(\d+)\b`),
}

var thousandsSep = regexp.MustCompile(`(\d),(\d{3})\b`)

// Extract returns the first amount found in text, rounded half-up to two
// decimal places. The boolean is false when no positive amount is present.
func Extract(text string) (decimal.Decimal, bool) {
	if text == "" {
		return decimal.Zero, false
	}
	text = normalizeSeparators(text)

	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		d, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		d = d.Round(2)
		if !d.IsPositive() {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// normalizeSeparators strips thousands separators: "1,250.00" becomes
// "1250.00". A comma before one or two digits is left alone.
func normalizeSeparators(text string) string {
	for {
		next := thousandsSep.ReplaceAllString(text, "$1$2")
		if next == text {
			break
		}
		text = next
	}
	return text
}
