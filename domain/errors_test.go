package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByCode(t *testing.T) {
	assert.ErrorIs(t, ErrSessionNotFound, ErrSessionNotFound)
	assert.NotErrorIs(t, ErrSessionNotFound, ErrSessionExpired)
}

func TestWithDetailPreservesIdentity(t *testing.T) {
	detailed := ErrOauthUserInfoParseFailed.WithDetail("raw body")
	assert.ErrorIs(t, detailed, ErrOauthUserInfoParseFailed)
	assert.Contains(t, detailed.Error(), "raw body")

	// The sentinel itself stays untouched.
	assert.Empty(t, ErrOauthUserInfoParseFailed.Detail)
}

func TestWrapPreservesIdentityAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := NewDatabaseError(cause)

	assert.Equal(t, CodeSysDatabase, CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolving account: %w", ErrOauthAccountLinked)
	assert.ErrorIs(t, err, ErrOauthAccountLinked)
	assert.Equal(t, CodeOauthAccountLinked, CodeOf(err))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("anything")))
	assert.True(t, IsDomainError(ErrUserBanned, CodeUserBanned))
	assert.False(t, IsDomainError(errors.New("anything"), CodeUserBanned))
}
