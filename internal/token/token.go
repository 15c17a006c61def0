// Package token issues and verifies short-lived signed tokens for email
// verification and password reset. Delivery of these tokens is out of scope
// here; callers hand them to whatever channel they use.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/wikigo/backend/domain"
)

// Purpose restricts where a token may be redeemed.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposeResetPassword Purpose = "reset_password"
)

type claims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer signs and parses purpose-bound tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	issuer string
}

func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer}
}

// Issue creates a token binding (userID, email) to a purpose.
func (i *Issuer) Issue(userID, email string, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", domain.NewTokenCreationError(err)
	}
	return signed, nil
}

// Verify parses a token and checks its purpose and bound email. Expiry and
// malformed-token failures map onto the token-domain taxonomy so the caller
// does not have to inspect jwt internals.
func (i *Issuer) Verify(raw string, purpose Purpose, email string) (userID string, err error) {
	var c claims
	_, parseErr := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if parseErr != nil {
		if errors.Is(parseErr, jwt.ErrTokenExpired) {
			return "", expiredError(purpose)
		}
		return "", invalidError(purpose)
	}

	if c.Purpose != purpose {
		return "", invalidError(purpose)
	}
	if email != "" && c.Email != email {
		return "", domain.ErrTokenEmailMismatch
	}
	return c.Subject, nil
}

func expiredError(purpose Purpose) error {
	if purpose == PurposeResetPassword {
		return domain.ErrTokenExpiredReset
	}
	return domain.ErrTokenExpiredVerification
}

func invalidError(purpose Purpose) error {
	if purpose == PurposeResetPassword {
		return domain.ErrTokenInvalidReset
	}
	return domain.ErrTokenInvalidVerification
}
