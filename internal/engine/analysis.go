package engine

import (
	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/pkg/constants"
)

// Analysis is the go/no-go reading of a result against its hurdle rates.
type Analysis struct {
	EquityNPVPositive   bool `json:"equityNpvPositive"`
	EquityIRRAboveCost  bool `json:"equityIrrAboveCost"`
	StrongMOIC          bool `json:"strongMoic"`
	ProjectNPVPositive  bool `json:"projectNpvPositive"`
	ProjectIRRAboveWACC bool `json:"projectIrrAboveWacc"`

	EquityViable  bool `json:"equityViable"`
	ProjectViable bool `json:"projectViable"`
	Viable        bool `json:"viable"`
}

// Analyze compares r with the hurdle rates of a. An IRR that did not converge
// never clears its hurdle.
func Analyze(r *Result, a assumptions.Assumptions) Analysis {
	if r == nil {
		return Analysis{}
	}

	an := Analysis{
		EquityNPVPositive:   r.NPVEquity > 0,
		EquityIRRAboveCost:  r.IRREquity.Exceeds(a.CostOfEquity),
		StrongMOIC:          r.MOIC > constants.StrongMOIC,
		ProjectNPVPositive:  r.NPVProject > 0,
		ProjectIRRAboveWACC: r.IRRProject.Exceeds(a.WACC),
	}
	an.EquityViable = an.EquityNPVPositive && an.EquityIRRAboveCost
	an.ProjectViable = an.ProjectNPVPositive && an.ProjectIRRAboveWACC
	an.Viable = an.EquityViable && an.ProjectViable
	return an
}
