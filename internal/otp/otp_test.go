package otp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/apperrors"
)

func TestNormalizePhoneAcceptsE164(t *testing.T) {
	got, err := NormalizePhone("+15551234567")
	require.NoError(t, err)
	require.Equal(t, "+15551234567", got)
}

func TestNormalizePhoneRejectsMissingPlus(t *testing.T) {
	_, err := NormalizePhone("15551234567")
	require.True(t, apperrors.Is(err, apperrors.KindValidationFailed))
}

func TestNormalizePhoneRejectsTooShort(t *testing.T) {
	_, err := NormalizePhone("+1555123")
	require.True(t, apperrors.Is(err, apperrors.KindValidationFailed))
}

func TestNormalizePhoneRejectsLeadingZero(t *testing.T) {
	_, err := NormalizePhone("+05551234567")
	require.True(t, apperrors.Is(err, apperrors.KindValidationFailed))
}

func TestGenerateCodeIsSixDigits(t *testing.T) {
	code, err := generateCode()
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		require.True(t, r >= '0' && r <= '9')
	}
}

func TestHashCodeIsDeterministicAndPhoneScoped(t *testing.T) {
	a := hashCode("+15551234567", "123456")
	b := hashCode("+15551234567", "123456")
	require.Equal(t, a, b)

	c := hashCode("+15557654321", "123456")
	require.NotEqual(t, a, c)
}
