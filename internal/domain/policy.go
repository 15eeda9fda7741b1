package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPeriod is the length of one loan/deposit period.
const DefaultPeriod = 30 * 24 * time.Hour

// InterestPolicy holds the flat percent-per-duration formulas used by the loan and
// deposit lifecycles. All results are rounded half-up to two decimal places.
type InterestPolicy struct {
	Period time.Duration
}

// NewInterestPolicy returns a policy with the given period, falling back to DefaultPeriod.
func NewInterestPolicy(period time.Duration) InterestPolicy {
	if period <= 0 {
		period = DefaultPeriod
	}
	return InterestPolicy{Period: period}
}

// LoanPayment is the minimum installment: (amount + amount*percent) / duration.
func (p InterestPolicy) LoanPayment(amount, percent decimal.Decimal, duration int) decimal.Decimal {
	if duration <= 0 {
		return amount
	}
	total := amount.Add(amount.Mul(percent))
	return total.Div(decimal.NewFromInt(int64(duration))).Round(2)
}

// Maturity returns the planned end of an instrument started at start.
func (p InterestPolicy) Maturity(start time.Time, duration int) time.Time {
	return start.Add(time.Duration(duration) * p.period())
}

// ElapsedPeriods counts whole periods between start and now.
func (p InterestPolicy) ElapsedPeriods(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / p.period())
}

// DepositInterest is amount*percent prorated by elapsed periods, capped at the full duration.
func (p InterestPolicy) DepositInterest(amount, percent decimal.Decimal, duration int, start, now time.Time) decimal.Decimal {
	if duration <= 0 {
		return decimal.Zero
	}
	elapsed := min(p.ElapsedPeriods(start, now), duration)
	return amount.Mul(percent).
		Mul(decimal.NewFromInt(int64(elapsed))).
		Div(decimal.NewFromInt(int64(duration))).
		Round(2)
}

func (p InterestPolicy) period() time.Duration {
	if p.Period <= 0 {
		return DefaultPeriod
	}
	return p.Period
}
