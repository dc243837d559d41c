// Package projection builds the year-by-year pro-forma statements of a
// scenario: income statement, working capital, debt, cash flows and balance
// sheet for years 0..Horizon.
package projection

// YearRow holds every projected line of one year. Costs and outflows are
// negative. Year 0 only carries the initial investment and financing.
type YearRow struct {
	Year int `json:"year"`

	// Income statement
	Revenue         float64 `json:"revenue"`
	Cogs            float64 `json:"cogs"`
	GrossProfit     float64 `json:"grossProfit"`
	Opex            float64 `json:"opex"`
	EBITDA          float64 `json:"ebitda"`
	Depreciation    float64 `json:"depreciation"`
	EBIT            float64 `json:"ebit"`
	InterestExpense float64 `json:"interestExpense"`
	ProfitBeforeTax float64 `json:"profitBeforeTax"`
	Taxes           float64 `json:"taxes"`
	NetIncome       float64 `json:"netIncome"`

	// Tax loss carryforward used this year and the balance left afterwards.
	TaxLossOffset       float64 `json:"taxLossOffset"`
	TaxLossCarryforward float64 `json:"taxLossCarryforward"`

	// Working capital
	Receivables float64 `json:"receivables"`
	Inventory   float64 `json:"inventory"`
	Payables    float64 `json:"payables"`
	NWC         float64 `json:"nwc"`
	ChangeNWC   float64 `json:"changeNwc"`

	// Investment
	Capex float64 `json:"capex"`

	// Cash flows
	FCFF     float64 `json:"fcff"`
	FCFE     float64 `json:"fcfe"`
	DebtFlow float64 `json:"debtFlow"`

	// Balance sheet
	BSCash             float64 `json:"bs_cash"`
	BSReceivables      float64 `json:"bs_receivables"`
	BSInventory        float64 `json:"bs_inventory"`
	BSNetPPE           float64 `json:"bs_netPPE"`
	BSTotalAssets      float64 `json:"bs_totalAssets"`
	BSPayables         float64 `json:"bs_payables"`
	BSDebt             float64 `json:"bs_debt"`
	BSTotalLiabilities float64 `json:"bs_totalLiabilities"`
	BSEquity           float64 `json:"bs_equity"`
}

// FCFF returns the unlevered free cash flow of every row, indexed by year.
func FCFF(rows []YearRow) []float64 {
	flows := make([]float64, len(rows))
	for i, r := range rows {
		flows[i] = r.FCFF
	}
	return flows
}

// FCFE returns the levered free cash flow of every row, indexed by year.
func FCFE(rows []YearRow) []float64 {
	flows := make([]float64, len(rows))
	for i, r := range rows {
		flows[i] = r.FCFE
	}
	return flows
}
