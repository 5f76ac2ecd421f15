package domain

import "unicode"

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// Password policy violations
const (
	ViolationLength    = "Password must be at least 8 characters long"
	ViolationUppercase = "Password must contain at least one uppercase letter"
	ViolationLowercase = "Password must contain at least one lowercase letter"
	ViolationDigit     = "Password must contain at least one number"
	ViolationSpecial   = "Password must contain at least one special character"
)

// ValidatePassword checks every rule and returns all violations.
// An empty result means the password is acceptable.
func ValidatePassword(password string) []string {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}

	violations := []string{}
	if length < MinPasswordLength {
		violations = append(violations, ViolationLength)
	}
	if !hasUpper {
		violations = append(violations, ViolationUppercase)
	}
	if !hasLower {
		violations = append(violations, ViolationLowercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}
	if !hasSpecial {
		violations = append(violations, ViolationSpecial)
	}
	return violations
}
