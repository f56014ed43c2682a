package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// round2 rounds a money value to 2 decimal places. Labor-share comparison and
// all persisted totals go through this so repeated adjust/release cycles can
// never accumulate sub-cent drift.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var (
	hasCapital = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// ValidatePasswordComplexity enforces the password rules: at least 8
// characters, one capital letter, one digit, and one special character.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters long"}
	}
	if !hasCapital.MatchString(password) {
		return &ValidationError{Field: "password", Message: "must contain at least one capital letter"}
	}
	if !hasDigit.MatchString(password) {
		return &ValidationError{Field: "password", Message: "must contain at least one number"}
	}
	if !hasSpecial.MatchString(password) {
		return &ValidationError{Field: "password", Message: "must contain at least one special character"}
	}
	return nil
}

// usernameFromName derives a username by lowercasing the name and replacing
// spaces with hyphens.
func usernameFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// generateOTP returns a 5-digit one-time password.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%05d", n.Int64()+10000), nil
}
