package projection

import (
	"math"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/pkg/constants"
	"github.com/iwvelando/proforma/pkg/loans"
)

// state is threaded through the year fold. A fresh state is created for every
// Build call.
type state struct {
	previousRevenue      float64
	previousNWC          float64
	accumulatedTaxLosses float64
	cash                 float64
	netPPE               float64
	retainedEarnings     float64
	shareCapital         float64
}

func initialState(a assumptions.Assumptions) state {
	return state{
		cash:         a.CashReserve,
		netPPE:       a.InitialCapex,
		shareCapital: a.ShareCapital(),
	}
}

// Build projects years 0..constants.Horizon. The assumptions must have passed
// Validate; Build itself never fails.
func Build(a assumptions.Assumptions) []YearRow {
	debt := loans.LinearSchedule{
		Amount:       a.FinancedDebt(),
		InterestRate: a.DebtInterestRate,
		Term:         a.DebtTerm,
		Grace:        a.DebtGrace,
	}.Generate(constants.Horizon)

	rows := make([]YearRow, 0, constants.Horizon+1)
	s := initialState(a)
	for year := 0; year <= constants.Horizon; year++ {
		var row YearRow
		row, s = step(a, year, debt[year], s)
		rows = append(rows, row)
	}
	return rows
}

func step(a assumptions.Assumptions, year int, debt loans.Payment, s state) (YearRow, state) {
	row := YearRow{Year: year}
	if year == 0 {
		row.Capex = -a.InitialCapex
	} else {
		s = incomeStatement(a, &row, debt, s)
		s = workingCapital(a, &row, s)
		row.Capex = -(row.Revenue * a.MaintenanceCapexRate)
	}

	deriveCashFlows(a, &row, debt)
	s = balanceSheet(&row, debt, s)
	return row, s
}

// GrowthRate returns the growth applied to reach year's revenue from the
// previous year's. Years without a configured rate use DefaultGrowthRate.
func GrowthRate(a assumptions.Assumptions, year int) float64 {
	idx := year - 1
	if idx < 0 || idx >= len(a.RevenueGrowthPath) {
		return constants.DefaultGrowthRate
	}
	return a.RevenueGrowthPath[idx]
}

func incomeStatement(a assumptions.Assumptions, row *YearRow, debt loans.Payment, s state) state {
	if row.Year == 1 {
		row.Revenue = a.InitialRevenue
	} else {
		row.Revenue = s.previousRevenue * (1 + GrowthRate(a, row.Year))
	}
	s.previousRevenue = row.Revenue

	row.Cogs = -row.Revenue * a.CogsPercent
	row.GrossProfit = row.Revenue + row.Cogs
	row.Opex = -row.Revenue * a.OpexPercent
	row.EBITDA = row.GrossProfit + row.Opex

	row.Depreciation = depreciation(a, row.Year, row.Revenue)
	row.EBIT = row.EBITDA + row.Depreciation
	row.InterestExpense = debt.Interest
	row.ProfitBeforeTax = row.EBIT + row.InterestExpense

	taxable := 0.0
	if row.ProfitBeforeTax < 0 {
		s.accumulatedTaxLosses += math.Abs(row.ProfitBeforeTax)
	} else {
		offset := math.Min(s.accumulatedTaxLosses, row.ProfitBeforeTax*constants.LossOffsetCap)
		taxable = row.ProfitBeforeTax - offset
		s.accumulatedTaxLosses -= offset
		row.TaxLossOffset = offset
	}
	row.TaxLossCarryforward = s.accumulatedTaxLosses
	row.Taxes = -(taxable * a.TaxRate)
	row.NetIncome = row.ProfitBeforeTax + row.Taxes
	return s
}

// depreciation combines straight-line depreciation of the initial capex over
// its life with the drag of maintenance capex depreciated over
// MaintenanceDepreciationYears.
func depreciation(a assumptions.Assumptions, year int, revenue float64) float64 {
	d := 0.0
	if year <= a.DepreciationYears {
		d = -(a.InitialCapex / float64(a.DepreciationYears))
	}
	return d - (revenue*a.MaintenanceCapexRate)/constants.MaintenanceDepreciationYears
}

func workingCapital(a assumptions.Assumptions, row *YearRow, s state) state {
	dailyCogs := math.Abs(row.Cogs) / constants.DaysPerYear
	row.Receivables = row.Revenue / constants.DaysPerYear * a.DSO
	row.Inventory = dailyCogs * a.DIO
	row.Payables = dailyCogs * a.DPO
	row.NWC = row.Receivables + row.Inventory - row.Payables
	row.ChangeNWC = -(row.NWC - s.previousNWC)
	s.previousNWC = row.NWC
	return s
}

func balanceSheet(row *YearRow, debt loans.Payment, s state) state {
	if row.Year > 0 {
		s.cash += row.FCFE
		s.netPPE += math.Abs(row.Capex) - math.Abs(row.Depreciation)
		s.retainedEarnings += row.NetIncome
	}

	row.BSCash = s.cash
	row.BSReceivables = row.Receivables
	row.BSInventory = row.Inventory
	row.BSNetPPE = math.Max(0, s.netPPE)
	row.BSTotalAssets = row.BSCash + row.BSReceivables + row.BSInventory + row.BSNetPPE
	row.BSPayables = row.Payables
	row.BSDebt = debt.RemainingPrincipal
	row.BSTotalLiabilities = row.BSPayables + row.BSDebt
	row.BSEquity = s.shareCapital + s.retainedEarnings
	return s
}
