// Package assumptions defines the scenario inputs of a projection and the
// validation they must pass before the engine accepts them.
package assumptions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/iwvelando/proforma/pkg/mathutil"
)

// ErrInvalidAssumptions is wrapped by every validation failure.
var ErrInvalidAssumptions = errors.New("invalid assumptions")

var validate = newValidator()

// newValidator registers "finite", which rejects NaN and ±Inf. Every float
// field carries it first so range tags never see a non-finite value.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return mathutil.IsFinite(fl.Field().Float())
	})
	return v
}

// Assumptions holds every input of one projection. Rates and percentages are
// fractions (0.34 is 34%), money is in a single currency, days are counted on
// a 360-day year.
type Assumptions struct {
	// Macro
	Inflation float64 `json:"inflation" yaml:"inflation" mapstructure:"inflation" validate:"finite,gt=-1"`
	TaxRate   float64 `json:"taxRate" yaml:"taxRate" mapstructure:"taxRate" validate:"finite,gte=0,lte=1"`

	// Operating
	InitialRevenue    float64   `json:"initialRevenue" yaml:"initialRevenue" mapstructure:"initialRevenue" validate:"finite,gte=0"`
	RevenueGrowthPath []float64 `json:"revenueGrowthPath" yaml:"revenueGrowthPath" mapstructure:"revenueGrowthPath" validate:"dive,finite,gt=-1"`
	CogsPercent       float64   `json:"cogsPercent" yaml:"cogsPercent" mapstructure:"cogsPercent" validate:"finite,gte=0"`
	OpexPercent       float64   `json:"opexPercent" yaml:"opexPercent" mapstructure:"opexPercent" validate:"finite,gte=0"`

	// Working capital
	DSO float64 `json:"dso" yaml:"dso" mapstructure:"dso" validate:"finite,gte=0"`
	DIO float64 `json:"dio" yaml:"dio" mapstructure:"dio" validate:"finite,gte=0"`
	DPO float64 `json:"dpo" yaml:"dpo" mapstructure:"dpo" validate:"finite,gte=0"`

	// Investment
	InitialCapex         float64 `json:"initialCapex" yaml:"initialCapex" mapstructure:"initialCapex" validate:"finite,gte=0"`
	MaintenanceCapexRate float64 `json:"maintenanceCapexRate" yaml:"maintenanceCapexRate" mapstructure:"maintenanceCapexRate" validate:"finite,gte=0"`
	DepreciationYears    int     `json:"depreciationYears" yaml:"depreciationYears" mapstructure:"depreciationYears" validate:"gt=0"`

	// Capital structure
	UseDebt          bool    `json:"useDebt" yaml:"useDebt" mapstructure:"useDebt"`
	DebtAmount       float64 `json:"debtAmount" yaml:"debtAmount" mapstructure:"debtAmount" validate:"finite,gte=0"`
	DebtInterestRate float64 `json:"debtInterestRate" yaml:"debtInterestRate" mapstructure:"debtInterestRate" validate:"finite,gte=0"`
	DebtTerm         int     `json:"debtTerm" yaml:"debtTerm" mapstructure:"debtTerm" validate:"gte=0"`
	DebtGrace        int     `json:"debtGrace" yaml:"debtGrace" mapstructure:"debtGrace" validate:"gte=0"`
	CashReserve      float64 `json:"cashReserve" yaml:"cashReserve" mapstructure:"cashReserve" validate:"finite,gte=0"`

	// Valuation
	WACC             float64 `json:"wacc" yaml:"wacc" mapstructure:"wacc" validate:"finite,gt=-1"`
	CostOfEquity     float64 `json:"costOfEquity" yaml:"costOfEquity" mapstructure:"costOfEquity" validate:"finite,gt=-1"`
	PerpetuityGrowth float64 `json:"perpetuityGrowth" yaml:"perpetuityGrowth" mapstructure:"perpetuityGrowth" validate:"finite"`
	ExitMultiple     float64 `json:"exitMultiple" yaml:"exitMultiple" mapstructure:"exitMultiple" validate:"finite,gte=0"`
}

// Default returns a fresh copy of the reference scenario: a 10M revenue
// business with 2M of initial capex partly financed by a 1.5M loan.
func Default() Assumptions {
	return Assumptions{
		Inflation:            0.045,
		TaxRate:              0.34,
		InitialRevenue:       10000000,
		RevenueGrowthPath:    []float64{0.15, 0.12, 0.10, 0.08, 0.06, 0.05, 0.045, 0.045, 0.045, 0.045},
		CogsPercent:          0.40,
		OpexPercent:          0.25,
		DSO:                  45,
		DIO:                  30,
		DPO:                  40,
		InitialCapex:         2000000,
		MaintenanceCapexRate: 0.03,
		DepreciationYears:    10,
		UseDebt:              true,
		DebtAmount:           1500000,
		DebtInterestRate:     0.12,
		DebtTerm:             5,
		DebtGrace:            1,
		CashReserve:          500000,
		WACC:                 0.13,
		CostOfEquity:         0.16,
		PerpetuityGrowth:     0.035,
		ExitMultiple:         7,
	}
}

// Clone returns a deep copy.
func (a Assumptions) Clone() Assumptions {
	c := a
	c.RevenueGrowthPath = append([]float64(nil), a.RevenueGrowthPath...)
	return c
}

// FinancedDebt is the debt raised at year 0, zero when debt is disabled.
func (a Assumptions) FinancedDebt() float64 {
	if !a.UseDebt {
		return 0
	}
	return a.DebtAmount
}

// ShareCapital is the equity contributed at year 0.
func (a Assumptions) ShareCapital() float64 {
	return a.InitialCapex + a.CashReserve - a.FinancedDebt()
}

// Validate checks that every float is finite, field ranges and the terminal
// value preconditions. Every returned error wraps ErrInvalidAssumptions.
func (a Assumptions) Validate() error {
	var problems []string

	if err := validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidAssumptions, err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}

	if a.UseDebt && a.DebtTerm <= 0 {
		problems = append(problems, fmt.Sprintf("DebtTerm must be positive when debt is used (got %d)", a.DebtTerm))
	}
	if a.WACC <= a.PerpetuityGrowth {
		problems = append(problems, fmt.Sprintf("WACC %.4f must exceed perpetuity growth %.4f", a.WACC, a.PerpetuityGrowth))
	}
	if a.CostOfEquity <= a.PerpetuityGrowth {
		problems = append(problems, fmt.Sprintf("cost of equity %.4f must exceed perpetuity growth %.4f", a.CostOfEquity, a.PerpetuityGrowth))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAssumptions, strings.Join(problems, "; "))
	}
	return nil
}

// Merge decodes a loosely typed override map (as read from YAML or JSON) on
// top of a copy of base. Keys absent from overrides keep their base value and
// key matching is case-insensitive.
func Merge(base Assumptions, overrides map[string]interface{}) (Assumptions, error) {
	merged := base.Clone()
	if len(overrides) == 0 {
		return merged, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &merged,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return base, err
	}
	if err := decoder.Decode(overrides); err != nil {
		return base, fmt.Errorf("%w: %v", ErrInvalidAssumptions, err)
	}
	return merged, nil
}
