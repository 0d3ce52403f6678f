// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	minDigits = 7
	maxDigits = 15
)

// NormalizeDigits reduces a phone number to its digits-only form. Numbers that
// parse as valid for the given region are canonicalized through E.164 first, so
// "+20 100 123 4567" and "01001234567" normalize to the same digit string.
// The second return value reports whether the result holds 7-15 digits.
func NormalizeDigits(input, region string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	if number, err := phonenumbers.Parse(trimmed, region); err == nil && phonenumbers.IsValidNumber(number) {
		trimmed = phonenumbers.Format(number, phonenumbers.E164)
	}

	digits := keepDigits(trimmed)
	if len(digits) < minDigits || len(digits) > maxDigits {
		return digits, false
	}
	return digits, true
}

func keepDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
