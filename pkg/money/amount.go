package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string is not a monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Prefixes are stripped longest first so "Rs." never leaves a stray dot.
var currencyPrefixes = []string{"INR", "Rs.", "RS.", "rs.", "Rs", "RS", "rs", "₹"}

var (
	amountShape  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	decimalToken = regexp.MustCompile(`^\(?-?(?:₹|Rs\.?|INR)?\s?-?\d[\d,]*\.\d{1,4}\)?$`)
)

// NormalizeAmount strips currency prefixes, thousands separators and spaces
// from a statement amount. Parenthesised values become negative. The digits
// and precision are otherwise kept exactly as printed.
func NormalizeAmount(s string) (string, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	for _, p := range currencyPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if !amountShape.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if negative && strings.Trim(s, "0.") != "" {
		s = "-" + s
	}
	return s, nil
}

// ParseDecimal normalizes and parses a statement amount.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean, err := NormalizeAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(clean)
}

// IsDecimalToken reports whether a whitespace-delimited token looks like a
// printed amount with a decimal point, e.g. "1,234.50" or "₹500.00".
func IsDecimalToken(tok string) bool {
	return decimalToken.MatchString(tok)
}

// Abs drops a leading minus sign from a normalized amount.
func Abs(s string) string {
	return strings.TrimPrefix(s, "-")
}

// Fixed formats d with two decimal places.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
