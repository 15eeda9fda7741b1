package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall     = errors.New("amount below minimum allowed")
	ErrInvalidPhone       = errors.New("invalid phone number")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxDescriptionLength = 500
	MaxTransferAmount    = "1000000000000" // 1 trillion
	MinTransferAmount    = "0.01"

	// AmountScale is the number of decimal places money is stored with.
	AmountScale int32 = 2
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"AMD": true, "USD": true, "EUR": true, "RUB": true,
	"GBP": true, "JPY": true, "CNY": true, "CHF": true,
	"GEL": true, "CAD": true, "AUD": true, "SEK": true,
}

var (
	phoneRegex  = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// NormalizeCurrency upper-cases and validates a currency code.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return "", fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return currency, nil
}

// ValidateAmount validates transfer amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount := decimal.RequireFromString(MinTransferAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	maxAmount := decimal.RequireFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return ValidateAmountScale(amount)
}

// ValidateAmountScale rejects amounts with fractions of a cent.
func ValidateAmountScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places allowed", ErrInvalidAmount, AmountScale)
	}
	return nil
}

// NormalizePhone strips separators and validates a phone number.
func NormalizePhone(phone string) (string, error) {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	phone = replacer.Replace(strings.TrimSpace(phone))

	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// LooksLikePhone reports whether a raw token has phone number shape rather than
// an account or card number.
func LooksLikePhone(raw string) bool {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "+") {
		return true
	}
	return digitsRegex.MatchString(raw) && len(raw) != AccountNumberLength && phoneRegex.MatchString(raw)
}

// LooksLikeToken reports whether raw has the three-segment shape of a signed token.
func LooksLikeToken(raw string) bool {
	return strings.Count(raw, ".") == 2 && !digitsRegex.MatchString(strings.ReplaceAll(raw, ".", ""))
}

// TruncateDescription trims a transfer description to the stored limit.
func TruncateDescription(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxDescriptionLength {
		return s[:MaxDescriptionLength]
	}
	return s
}
