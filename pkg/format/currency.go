// Package format renders money, rates and multiples for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is shown in place of a value that is NaN or infinite.
const NotAvailable = "n/a"

var printer = message.NewPrinter(language.English)

// Currency returns amount with a dollar sign, grouped thousands and two
// decimals, e.g. "-$1,234.56".
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	if amount < 0 {
		return "-$" + grouped(-amount)
	}
	return "$" + grouped(amount)
}

// NumericCurrency is Currency without the dollar sign, as used in the
// comparison table columns.
func NumericCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	if amount < 0 {
		return "-" + grouped(-amount)
	}
	return grouped(amount)
}

func grouped(value float64) string {
	return printer.Sprintf("%.2f", value)
}
