package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikigo/backend/domain"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")

	raw, err := issuer.Issue("user-1", "alice@example.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	userID, err := issuer.Verify(raw, PurposeVerifyEmail, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyWrongPurpose(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")

	raw, err := issuer.Issue("user-1", "alice@example.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify(raw, PurposeResetPassword, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrTokenInvalidReset)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")

	raw, err := issuer.Issue("user-1", "alice@example.com", PurposeResetPassword, -time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(raw, PurposeResetPassword, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrTokenExpiredReset)
}

func TestVerifyEmailMismatch(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")

	raw, err := issuer.Issue("user-1", "alice@example.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify(raw, PurposeVerifyEmail, "mallory@example.com")
	assert.ErrorIs(t, err, domain.ErrTokenEmailMismatch)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")
	other := NewIssuer("different", "wikigo-test")

	raw, err := issuer.Issue("user-1", "alice@example.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(raw, PurposeVerifyEmail, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrTokenInvalidVerification)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewIssuer("secret", "wikigo-test")

	_, err := issuer.Verify("not.a.token", PurposeResetPassword, "")
	assert.ErrorIs(t, err, domain.ErrTokenInvalidReset)
}
