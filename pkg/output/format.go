// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iwvelando/proforma/internal/forecast"
	"github.com/iwvelando/proforma/internal/valuation"
	"github.com/iwvelando/proforma/pkg/format"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []forecast.Forecast) {
	WritePretty(os.Stdout, results)
}

// WritePretty writes one projection table per forecast followed by a
// comparison of every forecast's headline metrics.
func WritePretty(w io.Writer, results []forecast.Forecast) {
	p := message.NewPrinter(language.English)
	for _, result := range results {
		writeScenario(w, p, result)
		_, _ = fmt.Fprintf(w, "\n")
	}
	if len(results) > 1 {
		writeComparison(w, results)
	}
}

func writeScenario(w io.Writer, p *message.Printer, result forecast.Forecast) {
	_, _ = fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name)
	if result.Sector != "" || result.Preset != "" {
		_, _ = fmt.Fprintf(w, "Sector: %s | Preset: %s\n", orDash(result.Sector), orDash(result.Preset))
	}
	if result.Result == nil {
		_, _ = fmt.Fprintf(w, "(no result)\n")
		return
	}

	_, _ = fmt.Fprintf(w, "Year | Revenue | EBITDA | Net Income | FCFF | FCFE | Cash | Debt\n")
	_, _ = fmt.Fprintf(w, "____ | _______ | ______ | __________ | ____ | ____ | ____ | ____\n")
	for _, row := range result.Result.Rows {
		_, _ = p.Fprintf(w, "%4d | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f\n",
			row.Year, row.Revenue, row.EBITDA, row.NetIncome, row.FCFF, row.FCFE, row.BSCash, row.BSDebt)
	}

	m := result.Result.Valuation
	a := result.Assumptions
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Project NPV @ %s: %s | IRR: %s\n", format.Percent(a.WACC), format.Currency(m.Project.NPV), IRRString(m.Project.IRR))
	_, _ = fmt.Fprintf(w, "Equity NPV @ %s: %s | IRR: %s\n", format.Percent(a.CostOfEquity), format.Currency(m.Equity.NPV), IRRString(m.Equity.IRR))
	_, _ = fmt.Fprintf(w, "MOIC: %s (%s returned on %s)\n", format.Multiple(m.MOIC), format.Currency(m.EquityReturned), format.Currency(m.EquityInvested))
	_, _ = fmt.Fprintf(w, "Exit value @ %s EBITDA: %s (PV %s, implied Gordon multiple %s)\n",
		format.Multiple(a.ExitMultiple), format.Currency(m.ExitValue), format.Currency(m.PVExitValue), format.Multiple(m.ImpliedExitMultiple))
	_, _ = fmt.Fprintf(w, "Verdict: %s\n", verdict(result))

}

func writeComparison(w io.Writer, results []forecast.Forecast) {
	_, _ = fmt.Fprintf(w, "--- Scenario comparison ---\n")
	_, _ = fmt.Fprintf(w, "Scenario | Project NPV ($) | Equity NPV ($) | Project IRR | Equity IRR | MOIC | Verdict\n")
	_, _ = fmt.Fprintf(w, "________ | _______________ | ______________ | ___________ | __________ | ____ | _______\n")
	for _, result := range results {
		if result.Result == nil {
			continue
		}
		r := result.Result
		_, _ = fmt.Fprintf(w, "%s | %s | %s | %s | %s | %s | %s\n",
			result.Name, format.NumericCurrency(r.NPVProject), format.NumericCurrency(r.NPVEquity),
			IRRString(r.IRRProject), IRRString(r.IRREquity), format.Multiple(r.MOIC), verdict(result))
	}
}

// IRRString renders an IRR with its convergence status.
func IRRString(irr valuation.IRR) string {
	switch irr.Status {
	case valuation.StatusConverged:
		return format.Percent(irr.Rate)
	case valuation.StatusNotConverged:
		return format.Percent(irr.Rate) + " (not converged)"
	default:
		return "n/a"
	}
}

func verdict(result forecast.Forecast) string {
	switch {
	case result.Analysis.Viable:
		return "viable"
	case result.Analysis.ProjectViable:
		return "project viable, equity below hurdle"
	case result.Analysis.EquityViable:
		return "equity viable, project below hurdle"
	default:
		return "not viable"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
