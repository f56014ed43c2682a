package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	cases := map[string]string{
		"199.999": "200",
		"200.004": "200",
		"200.005": "200.01",
		"66.665":  "66.67",
		"-0.005":  "-0.01",
		"120.50":  "120.5",
		"0":       "0",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)
		assert.True(t, round2(d).Equal(decimal.RequireFromString(want)),
			"round2(%s) = %s, want %s", in, round2(d), want)
	}
}

func TestValidatePasswordComplexity(t *testing.T) {
	valid := []string{"Str0ng#pass", "Abcdef1!", "P@ssw0rd-long"}
	for _, p := range valid {
		assert.NoError(t, ValidatePasswordComplexity(p), "password %q should pass", p)
	}

	invalid := map[string]string{
		"Ab1!":          "too short",
		"alllower1!":    "no capital",
		"NoDigitsHere!": "no digit",
		"NoSpecial12":   "no special character",
	}
	for p, reason := range invalid {
		err := ValidatePasswordComplexity(p)
		assert.Error(t, err, "password %q should fail (%s)", p, reason)
		var validErr *ValidationError
		assert.ErrorAs(t, err, &validErr)
	}
}

func TestUsernameFromName(t *testing.T) {
	cases := map[string]string{
		"Miriam Okafor":    "miriam-okafor",
		"  Dawit Bekele  ": "dawit-bekele",
		"Ada":              "ada",
		"Jean Paul Koffi":  "jean-paul-koffi",
	}
	for in, want := range cases {
		assert.Equal(t, want, usernameFromName(in))
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 5)
		assert.GreaterOrEqual(t, otp, "10000")
		assert.LessOrEqual(t, otp, "99999")
		seen[otp] = true
	}
	// 50 draws from a 90k space collapsing to a handful would mean a broken RNG.
	assert.Greater(t, len(seen), 10)
}
