package utils

import (
	"errors"
	"strings"
)

var errInvalidPhone = errors.New("phone must be E.164, e.g. +15551234567")

// NormalizePhone strips formatting characters and validates that the result
// looks like an E.164 number. Gateways deliver E.164 already; dashboard input
// arrives with spaces, dashes and parentheses.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting noise
		default:
			return "", errInvalidPhone
		}
	}

	phone := b.String()
	if !strings.HasPrefix(phone, "+") {
		return "", errInvalidPhone
	}

	digits := len(phone) - 1
	if digits < 7 || digits > 15 {
		return "", errInvalidPhone
	}

	return phone, nil
}
