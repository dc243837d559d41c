// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"
)

// ValidateGrowthPath warns when a growth path does not cover every projected
// year. Uncovered years fall back to the default growth rate.
func ValidateGrowthPath(scenario string, path []float64, horizon int) string {
	if len(path) >= horizon {
		return ""
	}
	return fmt.Sprintf("Scenario '%s' growth path has %d entries for a %d-year horizon - missing years use the default growth rate",
		scenario, len(path), horizon)
}

// ValidateMargins warns when operating costs consume all revenue.
func ValidateMargins(scenario string, cogsPercent, opexPercent float64) string {
	if cogsPercent+opexPercent < 1 {
		return ""
	}
	return fmt.Sprintf("Scenario '%s' costs are %.1f%% of revenue - EBITDA will be negative every year",
		scenario, (cogsPercent+opexPercent)*100)
}

// ValidateDiscountRates warns when equity is discounted below the firm's
// cost of capital.
func ValidateDiscountRates(scenario string, wacc, costOfEquity float64) string {
	if costOfEquity >= wacc {
		return ""
	}
	return fmt.Sprintf("Scenario '%s' cost of equity (%.2f%%) is below WACC (%.2f%%)",
		scenario, costOfEquity*100, wacc*100)
}

// ValidateScenarioNames warns about unnamed and duplicate scenarios.
func ValidateScenarioNames(names []string) []string {
	var warnings []string
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			warnings = append(warnings, fmt.Sprintf("Scenario #%d has no name", i+1))
			continue
		}
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", name))
		}
		seen[key] = true
	}
	return warnings
}
