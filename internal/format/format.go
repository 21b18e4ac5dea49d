package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is the storefront's display currency.
const DefaultCurrency = "USD"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Price formats amount in the default currency, e.g. Price(1234.5) => "$1,234.50".
func Price(amount float64) string {
	return Money(decimal.NewFromFloat(amount), DefaultCurrency)
}

// Money formats amount with the currency's standard number of fraction digits.
// Unknown codes fall back to the default currency.
func Money(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	scale, _ := currency.Standard.Rounding(unit)

	neg := amount.IsNegative()
	value, _ := amount.Abs().Round(int32(scale)).Float64()
	digits := printer.Sprint(number.Decimal(value, number.Scale(scale)))

	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	if neg {
		return "-" + symbol + digits
	}
	return symbol + digits
}

// Stars returns the fill state of a five-star rating: star i is filled when i < floor(rating).
func Stars(rating float64) []bool {
	filled := int(math.Floor(rating))
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < filled
	}
	return out
}

// Discount renders a percent badge, or "" when there is no discount.
func Discount(percent int) string {
	if percent <= 0 {
		return ""
	}
	return printer.Sprintf("%d%%", percent)
}
