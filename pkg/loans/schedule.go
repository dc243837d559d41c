// Package loans provides debt schedule calculations for projections.
package loans

import "math"

// Payment holds the debt movements of a given year.
type Payment struct {
	Year               int
	Issuance           float64
	Interest           float64
	Principal          float64
	RemainingPrincipal float64
}

// LinearSchedule is a bullet-issued loan repaid in equal principal instalments
// after a grace period. Interest accrues on the opening balance of each year.
type LinearSchedule struct {
	Amount       float64
	InterestRate float64
	Term         int // years of amortization
	Grace        int // years before the first principal payment
}

// Issuance returns the cash raised in year (positive), only at year 0.
func (s LinearSchedule) Issuance(year int) float64 {
	if year == 0 {
		return s.Amount
	}
	return 0
}

// PrincipalPayment returns the principal repaid in year as a negative amount.
// Payments fall in Grace < year <= Grace+Term.
func (s LinearSchedule) PrincipalPayment(year int) float64 {
	if s.Term <= 0 || year <= s.Grace || year > s.Grace+s.Term {
		return 0
	}
	return -(s.Amount / float64(s.Term))
}

// InterestExpense returns the interest charged on openingBalance as a
// negative amount.
func (s LinearSchedule) InterestExpense(openingBalance float64) float64 {
	return -(openingBalance * s.InterestRate)
}

// ApplyPrincipal returns the balance after a (negative) principal payment,
// floored at zero so rounding never produces an overpaid loan.
func ApplyPrincipal(balance, principal float64) float64 {
	return math.Max(0, balance+principal)
}

// Generate returns the schedule for years 0..horizon.
func (s LinearSchedule) Generate(horizon int) []Payment {
	payments := make([]Payment, 0, horizon+1)
	balance := 0.0
	for year := 0; year <= horizon; year++ {
		p := Payment{Year: year, Issuance: s.Issuance(year)}
		if year > 0 {
			p.Interest = s.InterestExpense(balance)
		}
		balance += p.Issuance
		p.Principal = s.PrincipalPayment(year)
		balance = ApplyPrincipal(balance, p.Principal)
		p.RemainingPrincipal = balance
		payments = append(payments, p)
	}
	return payments
}
