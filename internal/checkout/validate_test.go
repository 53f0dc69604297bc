package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	assert.Empty(t, ValidatePhone("0512345678"))
	assert.Empty(t, ValidatePhone("0598765432"))

	assert.NotEmpty(t, ValidatePhone(""))
	assert.NotEmpty(t, ValidatePhone("1512345678"), "must start with 05")
	assert.NotEmpty(t, ValidatePhone("051234567"), "too short")
	assert.NotEmpty(t, ValidatePhone("05123456789"), "too long")
	assert.NotEmpty(t, ValidatePhone("05a2345678"), "digits only")
}

func TestValidateName(t *testing.T) {
	assert.Empty(t, ValidateName("Ahmed Ali"))
	assert.Empty(t, ValidateName("محمد عبدالله"))

	assert.NotEmpty(t, ValidateName(""))
	assert.NotEmpty(t, ValidateName("  "))
	assert.NotEmpty(t, ValidateName("ab"), "shorter than 3 runes")
	assert.NotEmpty(t, ValidateName("Ahmed123"), "digits not allowed")
}

func TestValidateCity(t *testing.T) {
	assert.Empty(t, ValidateCity("الرياض"))
	assert.NotEmpty(t, ValidateCity(""))
	assert.NotEmpty(t, ValidateCity("a"))
}

func TestValidateCardNumber(t *testing.T) {
	assert.Empty(t, ValidateCardNumber("4111111111111111"))
	assert.Empty(t, ValidateCardNumber("4111 1111 1111 1111"), "spaces are ignored")

	assert.NotEmpty(t, ValidateCardNumber(""))
	assert.NotEmpty(t, ValidateCardNumber("411111111111111"), "15 digits")
	assert.NotEmpty(t, ValidateCardNumber("41111111111111111"), "17 digits")
	assert.NotEmpty(t, ValidateCardNumber("4111x11111111111"))

	// BIN denylist
	assert.NotEmpty(t, ValidateCardNumber("4847111111111111"))
	assert.NotEmpty(t, ValidateCardNumber("4685111111111111"))
	assert.NotEmpty(t, ValidateCardNumber("4286111111111111"))
}

func TestValidateCardName(t *testing.T) {
	assert.Empty(t, ValidateCardName("AHMED ALI"))
	assert.NotEmpty(t, ValidateCardName(""))
	assert.NotEmpty(t, ValidateCardName("محمد"), "latin letters only")
	assert.NotEmpty(t, ValidateCardName("AH"), "too short")
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, ValidateExpiry("12/30", now))
	assert.Empty(t, ValidateExpiry("06/26", now), "current month is still valid")

	assert.NotEmpty(t, ValidateExpiry("", now))
	assert.NotEmpty(t, ValidateExpiry("1230", now), "missing separator")
	assert.NotEmpty(t, ValidateExpiry("13/30", now), "month out of range")
	assert.NotEmpty(t, ValidateExpiry("00/30", now))
	assert.NotEmpty(t, ValidateExpiry("01/20", now), "expired")
	assert.NotEmpty(t, ValidateExpiry("05/26", now), "previous month of current year")
}

func TestValidateCVV(t *testing.T) {
	assert.Empty(t, ValidateCVV("123"))
	assert.NotEmpty(t, ValidateCVV(""))
	assert.NotEmpty(t, ValidateCVV("12"))
	assert.NotEmpty(t, ValidateCVV("1234"))
	assert.NotEmpty(t, ValidateCVV("12a"))
}

func TestValidateNafathID(t *testing.T) {
	assert.Empty(t, ValidateNafathID("1234567890"))
	assert.NotEmpty(t, ValidateNafathID("123456789"))
	assert.NotEmpty(t, ValidateNafathID("12345678901"))
	assert.NotEmpty(t, ValidateNafathID("12345678x0"))
}

func TestDetectOperator(t *testing.T) {
	assert.Equal(t, "STC", DetectOperator("0501234567"))
	assert.Equal(t, "STC", DetectOperator("0531234567"))
	assert.Equal(t, "STC", DetectOperator("0551234567"))
	assert.Equal(t, "STC", DetectOperator("0581234567"))
	assert.Equal(t, "Mobily", DetectOperator("0541234567"))
	assert.Equal(t, "Mobily", DetectOperator("0561234567"))
	assert.Equal(t, "Zain", DetectOperator("0591234567"))
	assert.Equal(t, "Virgin", DetectOperator("0571234567"))
	assert.Equal(t, "Unknown", DetectOperator("0521234567"))
	assert.Equal(t, "Unknown", DetectOperator("05"))
}
