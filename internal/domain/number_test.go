package domain

import (
	"strings"
	"testing"
)

func TestGenerateAccountNumber(t *testing.T) {
	for range 50 {
		n, err := GenerateAccountNumber()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(n) != AccountNumberLength || n[0] == '0' || strings.Trim(n, "0123456789") != "" {
			t.Fatalf("unexpected account number %q", n)
		}
	}
}

func TestGenerateCardNumber(t *testing.T) {
	for _, ct := range []CardType{CardTypeVisa, CardTypeMasterCard, CardTypeArca} {
		n, err := GenerateCardNumber(ct)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(n) != CardNumberLength || !strings.HasPrefix(n, ct.Prefix()) {
			t.Fatalf("unexpected %s number %q", ct, n)
		}
		if !LuhnValid(n) {
			t.Fatalf("expected %q to pass the Luhn check", n)
		}
	}

	if _, err := GenerateCardNumber(CardType("AMEX")); err == nil {
		t.Fatal("expected error for unknown card type")
	}
}

func TestLuhnValid(t *testing.T) {
	if !LuhnValid("4111111111111111") {
		t.Error("expected well-known test number to be valid")
	}
	if LuhnValid("4111111111111112") {
		t.Error("expected altered number to be invalid")
	}
	if LuhnValid("41x1") {
		t.Error("expected non-digits to be invalid")
	}
}
