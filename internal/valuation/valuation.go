// Package valuation turns projected cash flows into investment metrics:
// Gordon growth terminal values, NPV and IRR for the project and equity
// perspectives, MOIC and an exit-multiple cross check.
package valuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/projection"
	"github.com/iwvelando/proforma/pkg/irr"
	"github.com/iwvelando/proforma/pkg/mathutil"
)

// Status describes how far an IRR can be trusted.
type Status string

const (
	// StatusConverged means the solver met its tolerance.
	StatusConverged Status = "converged"
	// StatusNotConverged means the iteration cap was hit; Rate is the last iterate.
	StatusNotConverged Status = "not_converged"
	// StatusUndefined means no rate exists or the solver hit a flat derivative.
	// Rate is zero.
	StatusUndefined Status = "undefined"
)

// IRR is a solved internal rate of return together with its convergence report.
type IRR struct {
	Rate       float64 `json:"rate"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Status     Status  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
}

// Exceeds reports whether the rate converged and beats hurdle.
func (r IRR) Exceeds(hurdle float64) bool {
	return r.Converged && r.Rate > hurdle
}

// Perspective is the valuation of one cash flow stream at one discount rate.
type Perspective struct {
	DiscountRate    float64 `json:"discountRate"`
	PVExplicit      float64 `json:"pvExplicit"`
	TerminalValue   float64 `json:"terminalValue"`
	PVTerminalValue float64 `json:"pvTerminalValue"`
	NPV             float64 `json:"npv"`
	IRR             IRR     `json:"irr"`
}

// Metrics collects every valuation output of a projection.
type Metrics struct {
	Project Perspective `json:"project"`
	Equity  Perspective `json:"equity"`

	MOIC           float64 `json:"moic"`
	EquityInvested float64 `json:"equityInvested"`
	EquityReturned float64 `json:"equityReturned"`

	// Exit-multiple cross check, never part of NPV or IRR.
	ExitValue           float64 `json:"exitValue"`
	PVExitValue         float64 `json:"pvExitValue"`
	ImpliedExitMultiple float64 `json:"impliedExitMultiple"`
}

// TerminalValue capitalizes the flow after the last explicit year with the
// Gordon growth model. rate must exceed growth.
func TerminalValue(lastFlow, rate, growth float64) (float64, error) {
	if rate <= growth {
		return 0, fmt.Errorf("%w: discount rate %.4f must exceed perpetuity growth %.4f", assumptions.ErrInvalidAssumptions, rate, growth)
	}
	return lastFlow * (1 + growth) / (rate - growth), nil
}

// PresentValue discounts flows indexed by year. Year 0 is already a present
// value.
func PresentValue(flows []float64, rate float64) float64 {
	pv := 0.0
	for t, cf := range flows {
		pv += mathutil.PresentValue(cf, rate, t)
	}
	return pv
}

// Value discounts flows and a terminal value received at the last year.
func Value(flows []float64, rate, terminalValue float64) Perspective {
	horizon := len(flows) - 1
	p := Perspective{
		DiscountRate:    rate,
		PVExplicit:      PresentValue(flows, rate),
		TerminalValue:   terminalValue,
		PVTerminalValue: mathutil.PresentValue(terminalValue, rate, horizon),
	}
	p.NPV = p.PVExplicit + p.PVTerminalValue
	p.IRR = SolveIRR(flows, terminalValue)
	return p
}

// WithTerminalValue returns a copy of flows with terminalValue added to the
// last period.
func WithTerminalValue(flows []float64, terminalValue float64) []float64 {
	stream := append([]float64(nil), flows...)
	if len(stream) > 0 {
		stream[len(stream)-1] += terminalValue
	}
	return stream
}

// SolveIRR solves the IRR of flows with terminalValue folded into the last
// period. Solver failures are reported through the Status, never as an error.
func SolveIRR(flows []float64, terminalValue float64) IRR {
	res, err := irr.Solve(WithTerminalValue(flows, terminalValue))
	switch {
	case err == nil:
		return IRR{Rate: res.Rate, Iterations: res.Iterations, Converged: true, Status: StatusConverged}
	case errors.Is(err, irr.ErrNonConvergence):
		return IRR{Rate: res.Rate, Iterations: res.Iterations, Status: StatusNotConverged, Reason: err.Error()}
	default:
		return IRR{Iterations: res.Iterations, Status: StatusUndefined, Reason: err.Error()}
	}
}

// MOIC divides the positive equity distributions after year 0 plus the equity
// terminal value by the capital deployed at year 0. Later capital calls are
// ignored. It returns 0 when nothing was deployed.
func MOIC(fcfe []float64, terminalValue float64) (moic, invested, returned float64) {
	if len(fcfe) == 0 {
		return 0, 0, 0
	}
	invested = math.Abs(fcfe[0])
	for _, cf := range fcfe[1:] {
		returned += math.Max(0, cf)
	}
	returned += terminalValue
	if mathutil.IsZero(invested) {
		return 0, invested, returned
	}
	return returned / invested, invested, returned
}

// Evaluate values a projection built from a.
func Evaluate(rows []projection.YearRow, a assumptions.Assumptions) (Metrics, error) {
	if len(rows) < 2 {
		return Metrics{}, fmt.Errorf("%w: projection needs at least two years, got %d", assumptions.ErrInvalidAssumptions, len(rows))
	}
	last := rows[len(rows)-1]
	horizon := len(rows) - 1

	fcff := projection.FCFF(rows)
	fcfe := projection.FCFE(rows)

	tvFcff, err := TerminalValue(last.FCFF, a.WACC, a.PerpetuityGrowth)
	if err != nil {
		return Metrics{}, fmt.Errorf("project terminal value: %w", err)
	}
	tvFcfe, err := TerminalValue(last.FCFE, a.CostOfEquity, a.PerpetuityGrowth)
	if err != nil {
		return Metrics{}, fmt.Errorf("equity terminal value: %w", err)
	}

	m := Metrics{
		Project: Value(fcff, a.WACC, tvFcff),
		Equity:  Value(fcfe, a.CostOfEquity, tvFcfe),
	}
	m.MOIC, m.EquityInvested, m.EquityReturned = MOIC(fcfe, tvFcfe)

	m.ExitValue = last.EBITDA * a.ExitMultiple
	m.PVExitValue = mathutil.PresentValue(m.ExitValue, a.WACC, horizon)
	if !mathutil.IsZero(last.EBITDA) {
		m.ImpliedExitMultiple = tvFcff / last.EBITDA
	}
	return m, nil
}
