package types

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyCode is the ISO code used on every document.
const CurrencyCode = "TND"

var displayPrinter = message.NewPrinter(language.MustParse("fr-TN"))

// groupSep and decimalSep are read from the locale once; amounts are then
// laid out from their exact decimal digits, never through float64.
var groupSep, decimalSep = localeSeparators()

func localeSeparators() (group, dec string) {
	sample := displayPrinter.Sprint(number.Decimal(1234.5, number.Scale(1)))
	one := strings.Index(sample, "1")
	thousands := strings.Index(sample, "234")
	half := strings.LastIndex(sample, "5")
	if one < 0 || thousands <= one || half <= thousands+3 {
		return " ", ","
	}
	return sample[one+1 : thousands], sample[thousands+3 : half]
}

// FormatTND renders m for humans in the fr-TN locale with exactly three
// fractional digits, e.g. "1 874,250 TND".
func FormatTND(m Money) string {
	return FormatAmount(m, CurrencyCode)
}

// FormatAmount renders m in the fr-TN locale followed by the given currency code.
func FormatAmount(m Money, code string) string {
	fixed := m.StringFixed(CurrencyPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSep)
		}
		b.WriteRune(r)
	}
	b.WriteString(decimalSep)
	b.WriteString(frac)
	b.WriteString(" ")
	b.WriteString(code)
	return b.String()
}
