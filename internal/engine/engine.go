// Package engine is the narrow interface of the projection and valuation
// core: one validated assumptions record in, one computed result out. It does
// no I/O and keeps no state between calls.
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/projection"
	"github.com/iwvelando/proforma/internal/valuation"
)

// Result is the full output of one computation. It is owned by the caller.
type Result struct {
	Rows []projection.YearRow `json:"rows"`

	NPVProject float64       `json:"npvProject"`
	NPVEquity  float64       `json:"npvEquity"`
	IRRProject valuation.IRR `json:"irrProject"`
	IRREquity  valuation.IRR `json:"irrEquity"`
	MOIC       float64       `json:"moic"`

	Valuation valuation.Metrics `json:"valuation"`
}

// Compute validates a, builds its projection and values it. The only error
// it returns wraps assumptions.ErrInvalidAssumptions; IRR problems are
// reported inside the result.
func Compute(a assumptions.Assumptions) (*Result, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	rows := projection.Build(a)
	metrics, err := valuation.Evaluate(rows, a)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rows:       rows,
		NPVProject: metrics.Project.NPV,
		NPVEquity:  metrics.Equity.NPV,
		IRRProject: metrics.Project.IRR,
		IRREquity:  metrics.Equity.IRR,
		MOIC:       metrics.MOIC,
		Valuation:  metrics,
	}, nil
}

// Fingerprint identifies a by content so equal assumptions share cached
// results.
func Fingerprint(a assumptions.Assumptions) (string, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode assumptions: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(payload)), nil
}
