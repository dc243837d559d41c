// Package irr solves for the internal rate of return of a cash flow stream
// using Newton-Raphson iteration.
package irr

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/proforma/pkg/constants"
	"github.com/iwvelando/proforma/pkg/mathutil"
)

var (
	// ErrNoSignChange indicates a stream without both inflows and outflows,
	// for which no rate makes the NPV zero.
	ErrNoSignChange = errors.New("irr: cash flows have no sign change")

	// ErrDegenerateDerivative indicates the NPV derivative vanished or the
	// iteration left the domain rate > -1.
	ErrDegenerateDerivative = errors.New("irr: degenerate derivative")

	// ErrNonConvergence indicates the iteration cap was reached. The Result
	// returned alongside it still carries the last iterate.
	ErrNonConvergence = errors.New("irr: did not converge")
)

// Options tunes the solver.
type Options struct {
	Guess         float64
	Tolerance     float64
	MaxIterations int
}

// DefaultOptions returns the solver defaults: 10% initial guess, 1e-6
// tolerance and 1000 iterations.
func DefaultOptions() Options {
	return Options{
		Guess:         constants.IRRInitialGuess,
		Tolerance:     constants.IRRTolerance,
		MaxIterations: constants.IRRMaxIterations,
	}
}

// Result is the outcome of a solve.
type Result struct {
	Rate       float64
	Iterations int
	Converged  bool
}

// NPV returns the net present value of cashFlows at rate, where cashFlows[t]
// is received at the end of period t.
func NPV(rate float64, cashFlows []float64) float64 {
	npv := 0.0
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// derivative returns dNPV/drate at rate.
func derivative(rate float64, cashFlows []float64) float64 {
	d := 0.0
	for t, cf := range cashFlows {
		d -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// Solve finds the IRR of cashFlows with DefaultOptions.
func Solve(cashFlows []float64) (Result, error) {
	return SolveWithOptions(cashFlows, DefaultOptions())
}

// SolveWithOptions finds the rate at which the NPV of cashFlows is zero.
//
// When the iteration cap is reached the last iterate is returned together
// with ErrNonConvergence so callers can decide whether to trust it.
func SolveWithOptions(cashFlows []float64, opts Options) (Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = constants.IRRMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = constants.IRRTolerance
	}

	if !hasSignChange(cashFlows) {
		return Result{}, ErrNoSignChange
	}

	rate := opts.Guess
	for i := 1; i <= opts.MaxIterations; i++ {
		d := derivative(rate, cashFlows)
		if math.Abs(d) < constants.IRRMinDerivative || !mathutil.IsFinite(d) {
			return Result{Rate: rate, Iterations: i}, fmt.Errorf("%w: dNPV/drate=%g at rate %g", ErrDegenerateDerivative, d, rate)
		}

		next := rate - NPV(rate, cashFlows)/d
		if !mathutil.IsFinite(next) || next <= -1 {
			return Result{Rate: rate, Iterations: i}, fmt.Errorf("%w: iterate %g left the domain", ErrDegenerateDerivative, next)
		}

		if math.Abs(next-rate) < opts.Tolerance {
			return Result{Rate: next, Iterations: i, Converged: true}, nil
		}
		rate = next
	}

	return Result{Rate: rate, Iterations: opts.MaxIterations}, fmt.Errorf("%w after %d iterations", ErrNonConvergence, opts.MaxIterations)
}

func hasSignChange(cashFlows []float64) bool {
	positive, negative := false, false
	for _, cf := range cashFlows {
		switch {
		case cf > 0:
			positive = true
		case cf < 0:
			negative = true
		}
		if positive && negative {
			return true
		}
	}
	return false
}
