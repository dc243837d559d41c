package valuation

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/projection"
	"github.com/iwvelando/proforma/pkg/irr"
)

func TestTerminalValue(t *testing.T) {
	tests := []struct {
		name     string
		lastFlow float64
		rate     float64
		growth   float64
		expected float64
		wantErr  bool
	}{
		{"gordon", 1000, 0.10, 0.02, 12750, false},
		{"zero growth", 1000, 0.10, 0, 10000, false},
		{"negative flow", -1000, 0.10, 0.02, -12750, false},
		{"rate equals growth", 1000, 0.05, 0.05, 0, true},
		{"rate below growth", 1000, 0.03, 0.05, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TerminalValue(tt.lastFlow, tt.rate, tt.growth)
			if tt.wantErr {
				if !errors.Is(err, assumptions.ErrInvalidAssumptions) {
					t.Fatalf("expected ErrInvalidAssumptions, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("TerminalValue = %.2f, expected %.2f", got, tt.expected)
			}
		})
	}
}

func TestPresentValueLeavesYearZero(t *testing.T) {
	flows := []float64{-1000, 1100, 1210}
	got := PresentValue(flows, 0.10)
	if math.Abs(got-1000) > 1e-9 {
		t.Errorf("PresentValue = %.6f, expected 1000", got)
	}
	if PresentValue([]float64{-500}, 0.25) != -500 {
		t.Errorf("year 0 flow should not be discounted")
	}
}

func TestValue(t *testing.T) {
	flows := []float64{-1000, 100, 100}
	p := Value(flows, 0.10, 1000)

	expectedTV := 1000 / 1.21
	if math.Abs(p.PVTerminalValue-expectedTV) > 1e-9 {
		t.Errorf("PVTerminalValue = %.6f, expected %.6f", p.PVTerminalValue, expectedTV)
	}
	if math.Abs(p.NPV-(p.PVExplicit+p.PVTerminalValue)) > 1e-9 {
		t.Errorf("NPV %.6f is not explicit plus terminal", p.NPV)
	}
	if p.IRR.Status != StatusConverged {
		t.Fatalf("expected converged IRR, got %s (%s)", p.IRR.Status, p.IRR.Reason)
	}
	// -1000, 100, 1100 is a 10% bond.
	if math.Abs(p.IRR.Rate-0.10) > 1e-6 {
		t.Errorf("IRR = %.6f, expected 0.10", p.IRR.Rate)
	}
}

func TestWithTerminalValueCopies(t *testing.T) {
	flows := []float64{-100, 10, 10}
	stream := WithTerminalValue(flows, 50)
	if stream[2] != 60 {
		t.Errorf("last period = %.2f, expected 60", stream[2])
	}
	if flows[2] != 10 {
		t.Errorf("input flows were modified")
	}
	if len(WithTerminalValue(nil, 5)) != 0 {
		t.Errorf("empty stream should stay empty")
	}
}

func TestSolveIRRStatus(t *testing.T) {
	tests := []struct {
		name     string
		flows    []float64
		tv       float64
		expected Status
	}{
		{"single period", []float64{-1000, 1100}, 0, StatusConverged},
		{"terminal value creates the return", []float64{-1000, 0}, 1200, StatusConverged},
		{"all outflows", []float64{-1000, -100}, 0, StatusUndefined},
		{"all zero", []float64{0, 0, 0}, 0, StatusUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SolveIRR(tt.flows, tt.tv)
			if got.Status != tt.expected {
				t.Fatalf("status = %s, expected %s", got.Status, tt.expected)
			}
			if got.Status == StatusUndefined {
				if got.Rate != 0 || got.Converged || got.Reason == "" {
					t.Errorf("undefined IRR should carry a reason and no rate: %+v", got)
				}
			}
		})
	}
}

func TestIRRExceeds(t *testing.T) {
	tests := []struct {
		name     string
		irr      IRR
		hurdle   float64
		expected bool
	}{
		{"above", IRR{Rate: 0.20, Converged: true, Status: StatusConverged}, 0.16, true},
		{"below", IRR{Rate: 0.10, Converged: true, Status: StatusConverged}, 0.16, false},
		{"not converged", IRR{Rate: 0.50, Status: StatusNotConverged}, 0.16, false},
		{"undefined", IRR{Status: StatusUndefined}, -0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.irr.Exceeds(tt.hurdle); got != tt.expected {
				t.Errorf("Exceeds(%.2f) = %v, expected %v", tt.hurdle, got, tt.expected)
			}
		})
	}
}

func TestMOIC(t *testing.T) {
	tests := []struct {
		name     string
		fcfe     []float64
		tv       float64
		expected float64
	}{
		{"simple", []float64{-1000, 500, 500}, 1000, 2.0},
		{"capital calls ignored", []float64{-1000, -500, 1500}, 0, 1.5},
		{"no capital deployed", []float64{0, 500, 500}, 1000, 0},
		{"positive year zero still counts as deployed", []float64{1000, 500}, 0, 0.5},
		{"empty", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := MOIC(tt.fcfe, tt.tv)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MOIC = %.4f, expected %.4f", got, tt.expected)
			}
		})
	}
}

func TestEvaluateDefaults(t *testing.T) {
	a := assumptions.Default()
	rows := projection.Build(a)
	m, err := Evaluate(rows, a)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	last := rows[len(rows)-1]
	tvFcff := last.FCFF * (1 + a.PerpetuityGrowth) / (a.WACC - a.PerpetuityGrowth)
	if math.Abs(m.Project.TerminalValue-tvFcff) > 0.01 {
		t.Errorf("project TV = %.2f, expected %.2f", m.Project.TerminalValue, tvFcff)
	}
	tvFcfe := last.FCFE * (1 + a.PerpetuityGrowth) / (a.CostOfEquity - a.PerpetuityGrowth)
	if math.Abs(m.Equity.TerminalValue-tvFcfe) > 0.01 {
		t.Errorf("equity TV = %.2f, expected %.2f", m.Equity.TerminalValue, tvFcfe)
	}

	if m.Project.DiscountRate != a.WACC || m.Equity.DiscountRate != a.CostOfEquity {
		t.Errorf("discount rates not taken from assumptions")
	}
	if m.EquityInvested != 1000000 {
		t.Errorf("equity invested = %.2f, expected 1000000.00", m.EquityInvested)
	}
	if m.MOIC <= 0 {
		t.Errorf("expected a positive MOIC, got %.4f", m.MOIC)
	}
	if math.Abs(m.ExitValue-last.EBITDA*a.ExitMultiple) > 0.01 {
		t.Errorf("exit value = %.2f, expected %.2f", m.ExitValue, last.EBITDA*a.ExitMultiple)
	}
	if m.PVExitValue >= m.ExitValue {
		t.Errorf("discounted exit value %.2f should be below %.2f", m.PVExitValue, m.ExitValue)
	}
}

func TestNPVAtIRRIsZero(t *testing.T) {
	a := assumptions.Default()
	rows := projection.Build(a)
	m, err := Evaluate(rows, a)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	perspectives := map[string]struct {
		p     Perspective
		flows []float64
	}{
		"project": {m.Project, projection.FCFF(rows)},
		"equity":  {m.Equity, projection.FCFE(rows)},
	}

	for name, tt := range perspectives {
		t.Run(name, func(t *testing.T) {
			if tt.p.IRR.Status != StatusConverged {
				t.Fatalf("expected converged IRR, got %s (%s)", tt.p.IRR.Status, tt.p.IRR.Reason)
			}
			stream := WithTerminalValue(tt.flows, tt.p.TerminalValue)
			if npv := irr.NPV(tt.p.IRR.Rate, stream); math.Abs(npv) > 1 {
				t.Errorf("NPV at IRR %.6f = %.4f, expected ~0", tt.p.IRR.Rate, npv)
			}
		})
	}
}

func TestNPVIncreasesWithPerpetuityGrowth(t *testing.T) {
	previous := math.Inf(-1)
	for _, g := range []float64{0, 0.01, 0.02, 0.035, 0.05, 0.08, 0.12} {
		a := assumptions.Default()
		a.PerpetuityGrowth = g
		m, err := Evaluate(projection.Build(a), a)
		if err != nil {
			t.Fatalf("g=%.3f: %v", g, err)
		}
		if m.Project.NPV <= previous {
			t.Errorf("g=%.3f: npvProject %.2f did not increase from %.2f", g, m.Project.NPV, previous)
		}
		previous = m.Project.NPV
	}
}

func TestEvaluateRejectsTerminalDenominators(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*assumptions.Assumptions)
	}{
		{"wacc equals growth", func(a *assumptions.Assumptions) { a.WACC = a.PerpetuityGrowth }},
		{"ke below growth", func(a *assumptions.Assumptions) { a.CostOfEquity = a.PerpetuityGrowth - 0.01 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assumptions.Default()
			tt.modify(&a)
			_, err := Evaluate(projection.Build(a), a)
			if !errors.Is(err, assumptions.ErrInvalidAssumptions) {
				t.Errorf("expected ErrInvalidAssumptions, got %v", err)
			}
		})
	}
}

func TestEvaluateShortProjection(t *testing.T) {
	_, err := Evaluate(nil, assumptions.Default())
	if !errors.Is(err, assumptions.ErrInvalidAssumptions) {
		t.Errorf("expected ErrInvalidAssumptions, got %v", err)
	}
}
