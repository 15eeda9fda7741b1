package domain

import "errors"

var (
	// Lookup errors
	ErrAccountNotFound         = errors.New("account not found")
	ErrCardNotFound            = errors.New("card not found")
	ErrEndpointNotFound        = errors.New("endpoint not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrUserNotFoundByPhone     = errors.New("no user registered with this phone number")
	ErrDefaultAccountNotFound  = errors.New("user has no default account")
	ErrLoanNotFound            = errors.New("loan not found")
	ErrDepositNotFound         = errors.New("deposit not found")
	ErrLoanTypeNotFound        = errors.New("loan type not found")
	ErrDepositTypeNotFound     = errors.New("deposit type not found")
	ErrOptionNotFound          = errors.New("option not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrSystemAccountNotFound   = errors.New("no bank account for currency")
	ErrCreditworthinessMissing = errors.New("creditworthiness state not found")

	// Money movement errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = errors.New("cannot transfer between different currencies")
	ErrSameEndpoint      = errors.New("cannot transfer to the same endpoint")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// Instrument errors
	ErrLoanAlreadyClosed      = errors.New("loan is already closed")
	ErrDepositAlreadyClosed   = errors.New("deposit is already closed")
	ErrBelowMinimumPayment    = errors.New("payment is below the minimum installment")
	ErrPaymentExceedsRemained = errors.New("payment exceeds the remaining loan amount")
	ErrIneligibleForLoan      = errors.New("user is not eligible for a loan")
	ErrTypeUnavailable        = errors.New("instrument type is not available")

	// Token errors
	ErrInvalidOrExpiredQR = errors.New("invalid or expired QR token")

	// Catalog errors
	ErrDuplicateOption   = errors.New("option with this duration and percent already exists")
	ErrDuplicateTypeName = errors.New("type with this name already exists")
	ErrTypeInUse         = errors.New("type is referenced by active instruments")
	ErrAccountInUse      = errors.New("account has a balance or active instruments")

	// Request errors
	ErrPhoneAsSource       = errors.New("phone number can only be used as a transfer destination")
	ErrUnscopedQuery       = errors.New("exactly one of account number, card number or user id is required")
	ErrInvalidEndpointKind = errors.New("invalid endpoint type")
	ErrCardExpired         = errors.New("card is expired")

	// ErrConflict signals a concurrent modification; the caller may retry.
	ErrConflict = errors.New("concurrent modification, retry the request")
)

// ErrorKind groups sentinel errors into the categories exposed at the boundary.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInsufficientFunds   ErrorKind = "INSUFFICIENT_FUNDS"
	KindCurrencyMismatch    ErrorKind = "CURRENCY_MISMATCH"
	KindAlreadyClosed       ErrorKind = "ALREADY_CLOSED"
	KindBelowMinimumPayment ErrorKind = "BELOW_MINIMUM_PAYMENT"
	KindIneligibleForLoan   ErrorKind = "INELIGIBLE_FOR_LOAN"
	KindInvalidOrExpiredQR  ErrorKind = "INVALID_OR_EXPIRED_QR"
	KindDuplicate           ErrorKind = "DUPLICATE"
	KindInUse               ErrorKind = "IN_USE"
	KindInvalidRequest      ErrorKind = "INVALID_REQUEST"
	KindConflict            ErrorKind = "CONFLICT"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindInternal            ErrorKind = "INTERNAL"
)

var errorKinds = []struct {
	kind ErrorKind
	errs []error
}{
	{KindNotFound, []error{
		ErrAccountNotFound, ErrCardNotFound, ErrEndpointNotFound, ErrUserNotFound,
		ErrUserNotFoundByPhone, ErrDefaultAccountNotFound, ErrLoanNotFound, ErrDepositNotFound,
		ErrLoanTypeNotFound, ErrDepositTypeNotFound, ErrOptionNotFound, ErrTransactionNotFound,
		ErrSystemAccountNotFound, ErrCreditworthinessMissing,
	}},
	{KindInsufficientFunds, []error{ErrInsufficientFunds}},
	{KindCurrencyMismatch, []error{ErrCurrencyMismatch}},
	{KindAlreadyClosed, []error{ErrLoanAlreadyClosed, ErrDepositAlreadyClosed}},
	{KindBelowMinimumPayment, []error{ErrBelowMinimumPayment}},
	{KindIneligibleForLoan, []error{ErrIneligibleForLoan}},
	{KindInvalidOrExpiredQR, []error{ErrInvalidOrExpiredQR}},
	{KindDuplicate, []error{ErrDuplicateOption, ErrDuplicateTypeName}},
	{KindInUse, []error{ErrTypeInUse, ErrAccountInUse}},
	{KindInvalidRequest, []error{
		ErrSameEndpoint, ErrInvalidAmount, ErrPaymentExceedsRemained, ErrTypeUnavailable,
		ErrPhoneAsSource, ErrUnscopedQuery, ErrInvalidEndpointKind, ErrCardExpired,
		ErrInvalidAccountName, ErrInvalidCurrency, ErrAmountTooLarge, ErrAmountTooSmall,
		ErrInvalidOption, ErrInvalidPhone,
	}},
	{KindConflict, []error{ErrConflict}},
	{KindUnauthorized, []error{ErrUnauthorized, ErrInvalidToken, ErrExpiredToken}},
	{KindForbidden, []error{ErrForbidden, ErrInsufficientRole}},
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, group := range errorKinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the request unchanged.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}

// ErrNumberTaken is returned by repositories when a generated account or card
// number collides with an existing one.
var ErrNumberTaken = errors.New("number already issued")
