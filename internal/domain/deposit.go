package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is a bank-held savings instrument funded from an endpoint. The payout on
// closure is credited back to From.
type Deposit struct {
	ID          string
	UserID      string
	From        Endpoint
	Currency    string
	Amount      decimal.Decimal
	Percent     decimal.Decimal
	Duration    int
	DepositName string
	Status      InstrumentStatus
	StartDate   time.Time
	EndDate     time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsClosed reports whether the deposit was withdrawn.
func (d *Deposit) IsClosed() bool {
	return d.Status == StatusClosed
}

// ValidateTopUp checks an incremental deposit.
func (d *Deposit) ValidateTopUp(amount decimal.Decimal) error {
	if d.IsClosed() {
		return ErrDepositAlreadyClosed
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// Payout is principal plus interest accrued up to now.
func (d *Deposit) Payout(policy InterestPolicy, now time.Time) decimal.Decimal {
	return d.Amount.Add(policy.DepositInterest(d.Amount, d.Percent, d.Duration, d.StartDate, now))
}

// Close marks the deposit withdrawn.
func (d *Deposit) Close(now time.Time) {
	d.Status = StatusClosed
	d.EndDate = now
	d.UpdatedAt = now
}
