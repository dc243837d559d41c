// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/proforma/internal/forecast"
	"github.com/iwvelando/proforma/internal/projection"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindScenario(results []forecast.Forecast, name string) *forecast.Forecast {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindYear returns the row of the given year, nil when the forecast has no
// result or the year is outside the projection.
func FindYear(f *forecast.Forecast, year int) *projection.YearRow {
	if f == nil || f.Result == nil {
		return nil
	}
	for i := range f.Result.Rows {
		if f.Result.Rows[i].Year == year {
			return &f.Result.Rows[i]
		}
	}
	return nil
}
