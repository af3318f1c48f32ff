package domain

import "strings"

// ValidPhone reports whether raw looks like a dialable number: an optional
// leading + followed by 10 to 15 digits, ignoring spaces, dashes and
// parentheses. Any other character rejects the whole input; validation must
// not run on a stripped residue or garbage like "+2119000000ab" slips
// through.
func ValidPhone(raw string) bool {
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}

// NormalizePhone converts raw to canonical international format: a leading +
// followed by digits only. Numbers without a + get one leading 0 stripped and
// the country code prefixed. Normalization is idempotent: an already
// international number passes through untouched.
func NormalizePhone(raw, countryCode string) string {
	cleaned := cleanPhone(raw)
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "0")
	return "+" + strings.TrimPrefix(countryCode, "+") + cleaned
}

// ValidOTPCode reports whether code is exactly six digits.
func ValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cleanPhone strips everything except digits and a leading +.
func cleanPhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
