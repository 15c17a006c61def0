package domain

import (
	"errors"
	"fmt"
)

// ErrorDomain groups error values by the subsystem that produces them.
type ErrorDomain string

const (
	DomainUser      ErrorDomain = "user"
	DomainSession   ErrorDomain = "session"
	DomainOauth     ErrorDomain = "oauth"
	DomainPassword  ErrorDomain = "password"
	DomainToken     ErrorDomain = "token"
	DomainEmail     ErrorDomain = "email"
	DomainFile      ErrorDomain = "file"
	DomainGeneral   ErrorDomain = "general"
	DomainSystem    ErrorDomain = "system"
	DomainRateLimit ErrorDomain = "rate_limit"
)

// ErrorCode is the stable machine-readable code returned to API clients.
type ErrorCode string

const (
	CodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	CodeUserInvalidPassword ErrorCode = "USER_INVALID_PASSWORD"
	CodeUserPasswordNotSet  ErrorCode = "USER_PASSWORD_NOT_SET"
	CodeUserNotVerified     ErrorCode = "USER_NOT_VERIFIED"
	CodeUserUnauthorized    ErrorCode = "USER_UNAUTHORIZED"
	CodeUserBanned          ErrorCode = "USER_BANNED"
	CodeUserHandleExists    ErrorCode = "USER_HANDLE_ALREADY_EXISTS"
	CodeUserEmailExists     ErrorCode = "USER_EMAIL_ALREADY_EXISTS"
	CodeUserTokenExpired    ErrorCode = "USER_TOKEN_EXPIRED"
	CodeUserInvalidToken    ErrorCode = "USER_INVALID_TOKEN"

	CodeSessionInvalidUserID ErrorCode = "SESSION_INVALID_USER_ID"
	CodeSessionExpired       ErrorCode = "SESSION_EXPIRED"
	CodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"

	CodeOauthInvalidAuthURL      ErrorCode = "OAUTH_INVALID_AUTH_URL"
	CodeOauthInvalidTokenURL     ErrorCode = "OAUTH_INVALID_TOKEN_URL"
	CodeOauthInvalidRedirectURL  ErrorCode = "OAUTH_INVALID_REDIRECT_URL"
	CodeOauthTokenExchangeFailed ErrorCode = "OAUTH_TOKEN_EXCHANGE_FAILED"
	CodeOauthUserInfoFetchFailed ErrorCode = "OAUTH_USER_INFO_FETCH_FAILED"
	CodeOauthUserInfoParseFailed ErrorCode = "OAUTH_USER_INFO_PARSE_FAILED"
	CodeOauthInvalidState        ErrorCode = "OAUTH_INVALID_STATE"
	CodeOauthUnsupportedProvider ErrorCode = "OAUTH_UNSUPPORTED_PROVIDER"
	CodeOauthAccountLinked       ErrorCode = "OAUTH_ACCOUNT_ALREADY_LINKED"
	CodeOauthConnectionNotFound  ErrorCode = "OAUTH_CONNECTION_NOT_FOUND"
	CodeOauthCannotUnlinkLast    ErrorCode = "OAUTH_CANNOT_UNLINK_LAST_CONNECTION"
	CodeOauthHandleRequired      ErrorCode = "OAUTH_HANDLE_REQUIRED"

	CodePasswordIncorrect       ErrorCode = "PASSWORD_INCORRECT"
	CodePasswordAlreadySet      ErrorCode = "PASSWORD_ALREADY_SET"
	CodePasswordOauthOnlyUpdate ErrorCode = "PASSWORD_CANNOT_UPDATE_OAUTH_ONLY"

	CodeTokenInvalidVerification ErrorCode = "TOKEN_INVALID_VERIFICATION"
	CodeTokenExpiredVerification ErrorCode = "TOKEN_EXPIRED_VERIFICATION"
	CodeTokenEmailMismatch       ErrorCode = "TOKEN_EMAIL_MISMATCH"
	CodeTokenInvalidReset        ErrorCode = "TOKEN_INVALID_RESET"
	CodeTokenExpiredReset        ErrorCode = "TOKEN_EXPIRED_RESET"

	CodeEmailAlreadyVerified ErrorCode = "EMAIL_ALREADY_VERIFIED"

	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	CodeFileUpload   ErrorCode = "FILE_UPLOAD_ERROR"
	CodeFileRead     ErrorCode = "FILE_READ_ERROR"
	CodeFileTooLarge ErrorCode = "FILE_TOO_LARGE"

	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeInvalidIPAddress ErrorCode = "INVALID_IP_ADDRESS"
	CodeNotFound         ErrorCode = "NOT_FOUND"

	CodeSysInternal      ErrorCode = "SYS_INTERNAL_ERROR"
	CodeSysDatabase      ErrorCode = "SYS_DATABASE_ERROR"
	CodeSysTransaction   ErrorCode = "SYS_TRANSACTION_ERROR"
	CodeSysHashing       ErrorCode = "SYS_HASHING_ERROR"
	CodeSysTokenCreation ErrorCode = "SYS_TOKEN_CREATION_ERROR"

	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeUnknown is the fallback for error values the responder table does
	// not recognize. Reaching it is a programming bug.
	CodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// Error is the single error type all subsystems return. Two errors compare
// equal under errors.Is when their codes match, so constructed copies (e.g.
// with a detail attached) still match their sentinel.
type Error struct {
	Domain  ErrorDomain
	Code    ErrorCode
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetail returns a copy carrying a diagnostic detail string. The detail
// is only rendered to clients in development mode.
func (e *Error) WithDetail(detail string) *Error {
	clone := *e
	clone.Detail = detail
	return &clone
}

// Wrap returns a copy carrying an underlying cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// NewError builds a domain error.
func NewError(domain ErrorDomain, code ErrorCode, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message}
}

// User domain.
var (
	ErrUserNotFound        = NewError(DomainUser, CodeUserNotFound, "user not found")
	ErrUserInvalidPassword = NewError(DomainUser, CodeUserInvalidPassword, "invalid password")
	ErrUserPasswordNotSet  = NewError(DomainUser, CodeUserPasswordNotSet, "user has no password set")
	ErrUserNotVerified     = NewError(DomainUser, CodeUserNotVerified, "user email not verified")
	ErrUserUnauthorized    = NewError(DomainUser, CodeUserUnauthorized, "unauthorized")
	ErrUserBanned          = NewError(DomainUser, CodeUserBanned, "user is banned")
	ErrUserHandleExists    = NewError(DomainUser, CodeUserHandleExists, "handle already exists")
	ErrUserEmailExists     = NewError(DomainUser, CodeUserEmailExists, "email already exists")
	ErrUserTokenExpired    = NewError(DomainUser, CodeUserTokenExpired, "token expired")
	ErrUserInvalidToken    = NewError(DomainUser, CodeUserInvalidToken, "invalid token")
)

// Session domain.
var (
	ErrSessionInvalidUserID = NewError(DomainSession, CodeSessionInvalidUserID, "session carries an invalid user id")
	ErrSessionExpired       = NewError(DomainSession, CodeSessionExpired, "session expired")
	ErrSessionNotFound      = NewError(DomainSession, CodeSessionNotFound, "session not found")
)

// OAuth domain.
var (
	ErrOauthInvalidAuthURL      = NewError(DomainOauth, CodeOauthInvalidAuthURL, "invalid authorization endpoint")
	ErrOauthInvalidTokenURL     = NewError(DomainOauth, CodeOauthInvalidTokenURL, "invalid token endpoint")
	ErrOauthInvalidRedirectURL  = NewError(DomainOauth, CodeOauthInvalidRedirectURL, "invalid redirect uri")
	ErrOauthTokenExchangeFailed = NewError(DomainOauth, CodeOauthTokenExchangeFailed, "token exchange failed")
	ErrOauthUserInfoFetchFailed = NewError(DomainOauth, CodeOauthUserInfoFetchFailed, "user info fetch failed")
	ErrOauthUserInfoParseFailed = NewError(DomainOauth, CodeOauthUserInfoParseFailed, "user info parse failed")
	ErrOauthInvalidState        = NewError(DomainOauth, CodeOauthInvalidState, "invalid oauth state")
	ErrOauthUnsupportedProvider = NewError(DomainOauth, CodeOauthUnsupportedProvider, "unsupported oauth provider")
	ErrOauthAccountLinked       = NewError(DomainOauth, CodeOauthAccountLinked, "account already linked")
	ErrOauthConnectionNotFound  = NewError(DomainOauth, CodeOauthConnectionNotFound, "oauth connection not found")
	ErrOauthCannotUnlinkLast    = NewError(DomainOauth, CodeOauthCannotUnlinkLast, "cannot unlink last connection")
	ErrOauthHandleRequired      = NewError(DomainOauth, CodeOauthHandleRequired, "handle required for signup")
)

// Password domain.
var (
	ErrPasswordIncorrect       = NewError(DomainPassword, CodePasswordIncorrect, "password incorrect")
	ErrPasswordAlreadySet      = NewError(DomainPassword, CodePasswordAlreadySet, "password already set")
	ErrPasswordOauthOnlyUpdate = NewError(DomainPassword, CodePasswordOauthOnlyUpdate, "cannot update password of oauth-only account")
)

// Token domain.
var (
	ErrTokenInvalidVerification = NewError(DomainToken, CodeTokenInvalidVerification, "invalid verification token")
	ErrTokenExpiredVerification = NewError(DomainToken, CodeTokenExpiredVerification, "verification token expired")
	ErrTokenEmailMismatch       = NewError(DomainToken, CodeTokenEmailMismatch, "token email mismatch")
	ErrTokenInvalidReset        = NewError(DomainToken, CodeTokenInvalidReset, "invalid reset token")
	ErrTokenExpiredReset        = NewError(DomainToken, CodeTokenExpiredReset, "reset token expired")
)

// Email domain.
var ErrEmailAlreadyVerified = NewError(DomainEmail, CodeEmailAlreadyVerified, "email already verified")

// File domain.
var ErrFileNotFound = NewError(DomainFile, CodeFileNotFound, "file not found")

// NewFileUploadError reports a failed upload with internal detail.
func NewFileUploadError(detail string) *Error {
	return NewError(DomainFile, CodeFileUpload, "file upload failed").WithDetail(detail)
}

// NewFileReadError reports a failed read with internal detail.
func NewFileReadError(detail string) *Error {
	return NewError(DomainFile, CodeFileRead, "file read failed").WithDetail(detail)
}

// General domain.
var ErrInvalidIPAddress = NewError(DomainGeneral, CodeInvalidIPAddress, "invalid ip address")

func NewBadRequestError(detail string) *Error {
	return NewError(DomainGeneral, CodeBadRequest, "bad request").WithDetail(detail)
}

func NewValidationError(detail string) *Error {
	return NewError(DomainGeneral, CodeValidation, "validation failed").WithDetail(detail)
}

func NewNotFoundError(detail string) *Error {
	return NewError(DomainGeneral, CodeNotFound, "resource not found").WithDetail(detail)
}

// System domain.
func NewInternalError(detail string) *Error {
	return NewError(DomainSystem, CodeSysInternal, "internal error").WithDetail(detail)
}

func NewDatabaseError(err error) *Error {
	return NewError(DomainSystem, CodeSysDatabase, "database error").Wrap(err)
}

func NewTransactionError(err error) *Error {
	return NewError(DomainSystem, CodeSysTransaction, "transaction error").Wrap(err)
}

func NewHashingError(err error) *Error {
	return NewError(DomainSystem, CodeSysHashing, "hashing error").Wrap(err)
}

func NewTokenCreationError(err error) *Error {
	return NewError(DomainSystem, CodeSysTokenCreation, "token creation error").Wrap(err)
}

// Rate-limit domain.
var ErrRateLimitExceeded = NewError(DomainRateLimit, CodeRateLimitExceeded, "rate limit exceeded")

// CodeOf extracts the stable code from any error, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return CodeUnknown
}

// IsDomainError reports whether err carries the given code.
func IsDomainError(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
