// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/proforma/pkg/constants"
)

// OutputFormats lists the renderers the run command and the configuration accept.
var OutputFormats = []string{constants.OutputFormatPretty, constants.OutputFormatCSV}

// ValidateOutputFormat reports an error unless format names one of OutputFormats.
// Matching is exact: "CSV" and " csv" are rejected.
func ValidateOutputFormat(format string) error {
	if slices.Contains(OutputFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format %q, expected one of %s",
		format, strings.Join(OutputFormats, ", "))
}
