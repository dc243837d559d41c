package projection

import (
	"math"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/pkg/loans"
)

// deriveCashFlows fills the unlevered and levered free cash flows of row and
// its net debt movement.
func deriveCashFlows(a assumptions.Assumptions, row *YearRow, debt loans.Payment) {
	ebitAfterTax := row.EBIT * (1 - a.TaxRate)
	addBack := math.Abs(row.Depreciation)

	row.DebtFlow = debt.Issuance + debt.Principal

	if row.Year == 0 {
		row.FCFF = row.Capex
		row.FCFE = row.Capex + debt.Issuance - a.CashReserve
		return
	}

	row.FCFF = ebitAfterTax + addBack + row.ChangeNWC + row.Capex
	row.FCFE = row.NetIncome + addBack + row.ChangeNWC + row.Capex + debt.Principal
}
