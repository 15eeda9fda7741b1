package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidOption = errors.New("invalid option")

// InstrumentKind distinguishes loan and deposit catalogs.
type InstrumentKind string

const (
	InstrumentLoan    InstrumentKind = "LOAN"
	InstrumentDeposit InstrumentKind = "DEPOSIT"
)

// NotFoundError returns the lookup error for a type of this kind.
func (k InstrumentKind) NotFoundError() error {
	if k == InstrumentDeposit {
		return ErrDepositTypeNotFound
	}
	return ErrLoanTypeNotFound
}

// Option is a (duration, percent) pair offered by a type. Duration counts periods;
// Percent is the fractional rate over the whole duration (0.8 = 80%).
type Option struct {
	Duration int             `json:"duration"`
	Percent  decimal.Decimal `json:"percent"`
}

// Equal reports whether both options describe the same pair.
func (o Option) Equal(other Option) bool {
	return o.Duration == other.Duration && o.Percent.Equal(other.Percent)
}

// Validate checks the option bounds.
func (o Option) Validate() error {
	if o.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidOption)
	}
	if o.Percent.IsNegative() {
		return fmt.Errorf("%w: percent must not be negative", ErrInvalidOption)
	}
	return nil
}

// InstrumentType is a LoanType or DepositType catalog entry.
type InstrumentType struct {
	ID        string
	Kind      InstrumentKind
	Name      string
	Options   []Option
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddOption appends o unless an equal pair already exists.
func (t *InstrumentType) AddOption(o Option) error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, existing := range t.Options {
		if existing.Equal(o) {
			return ErrDuplicateOption
		}
	}
	t.Options = append(t.Options, o)
	return nil
}

// RemoveOption deletes the pair equal to o.
func (t *InstrumentType) RemoveOption(o Option) error {
	for i, existing := range t.Options {
		if existing.Equal(o) {
			t.Options = append(t.Options[:i], t.Options[i+1:]...)
			return nil
		}
	}
	return ErrOptionNotFound
}

// FindOption returns the option equal to sel.
func (t *InstrumentType) FindOption(sel Option) (Option, error) {
	for _, existing := range t.Options {
		if existing.Equal(sel) {
			return existing, nil
		}
	}
	return Option{}, ErrOptionNotFound
}

// Offer resolves sel against an available type.
func (t *InstrumentType) Offer(sel Option) (Option, error) {
	if !t.Available {
		return Option{}, ErrTypeUnavailable
	}
	return t.FindOption(sel)
}

// InstrumentStatus is the lifecycle state of a loan or deposit.
type InstrumentStatus string

const (
	StatusInProgress InstrumentStatus = "IN_PROGRESS"
	StatusClosed     InstrumentStatus = "CLOSED"
)
