package domain

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

const (
	AccountNumberLength = 16
	CardNumberLength    = 16
)

// GenerateAccountNumber returns a random 16-digit account number that never starts with zero.
func GenerateAccountNumber() (string, error) {
	return generateAccountNumber(rand.Reader)
}

func generateAccountNumber(r io.Reader) (string, error) {
	first, err := randomDigits(r, 1, "123456789")
	if err != nil {
		return "", err
	}
	rest, err := randomDigits(r, AccountNumberLength-1, "0123456789")
	if err != nil {
		return "", err
	}
	return first + rest, nil
}

// GenerateCardNumber returns a 16-digit card number: type prefix, random body, Luhn check digit.
func GenerateCardNumber(t CardType) (string, error) {
	return generateCardNumber(rand.Reader, t)
}

func generateCardNumber(r io.Reader, t CardType) (string, error) {
	prefix := t.Prefix()
	if prefix == "" {
		return "", ErrInvalidEndpointKind
	}
	body, err := randomDigits(r, CardNumberLength-len(prefix)-1, "0123456789")
	if err != nil {
		return "", err
	}
	partial := prefix + body
	return partial + string(rune('0'+luhnCheckDigit(partial))), nil
}

// LuhnValid reports whether number passes the Luhn checksum.
func LuhnValid(number string) bool {
	if len(number) < 2 || strings.Trim(number, "0123456789") != "" {
		return false
	}
	return luhnCheckDigit(number[:len(number)-1]) == int(number[len(number)-1]-'0')
}

func luhnCheckDigit(partial string) int {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

func randomDigits(r io.Reader, n int, alphabet string) (string, error) {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(alphabet)))
	for range n {
		i, err := rand.Int(r, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[i.Int64()])
	}
	return b.String(), nil
}
