// Package format renders money, rates, and durations for human-readable output.
package format

import (
	"fmt"
	"math"

	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
// Cents are rounded half away from zero, the same as the CSV export.
func NumericCurrency(amount float64) string {
	return printer.Sprintf("%.2f", mathutil.Round(amount))
}

// Percent renders a fraction as a percentage with one decimal (0.853 -> "85.3%").
func Percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// Months renders a month count as years and months (e.g., "25y 0m").
func Months(months float64) string {
	whole := int(math.Round(months))
	return fmt.Sprintf("%dy %dm", whole/12, whole%12)
}
