package format

import (
	"fmt"

	"github.com/iwvelando/proforma/pkg/constants"
)

// Percent renders a fraction as a percentage with two decimals (0.1234 -> "12.34%").
func Percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*constants.PercentageMultiplier)
}

// Multiple renders a dimensionless multiple (2.5 -> "2.50x").
func Multiple(value float64) string {
	return fmt.Sprintf("%.2fx", value)
}
