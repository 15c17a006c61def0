package handler

import (
	"errors"
	"net/http"

	"github.com/wikigo/backend/domain"
)

// statusByCode maps every error code in the taxonomy to its HTTP status. A
// code missing from the table is a programming bug and renders as an opaque
// 500 with CodeUnknown, never as a leaked internal message.
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeUserNotFound:        http.StatusNotFound,
	domain.CodeUserInvalidPassword: http.StatusUnauthorized,
	domain.CodeUserPasswordNotSet:  http.StatusBadRequest,
	domain.CodeUserNotVerified:     http.StatusForbidden,
	domain.CodeUserUnauthorized:    http.StatusUnauthorized,
	domain.CodeUserBanned:          http.StatusForbidden,
	domain.CodeUserHandleExists:    http.StatusConflict,
	domain.CodeUserEmailExists:     http.StatusConflict,
	domain.CodeUserTokenExpired:    http.StatusUnauthorized,
	domain.CodeUserInvalidToken:    http.StatusUnauthorized,

	domain.CodeSessionInvalidUserID: http.StatusUnauthorized,
	domain.CodeSessionExpired:       http.StatusUnauthorized,
	domain.CodeSessionNotFound:      http.StatusUnauthorized,

	domain.CodeOauthInvalidAuthURL:      http.StatusInternalServerError,
	domain.CodeOauthInvalidTokenURL:     http.StatusInternalServerError,
	domain.CodeOauthInvalidRedirectURL:  http.StatusInternalServerError,
	domain.CodeOauthTokenExchangeFailed: http.StatusBadGateway,
	domain.CodeOauthUserInfoFetchFailed: http.StatusBadGateway,
	domain.CodeOauthUserInfoParseFailed: http.StatusBadGateway,
	domain.CodeOauthInvalidState:        http.StatusBadRequest,
	domain.CodeOauthUnsupportedProvider: http.StatusNotFound,
	domain.CodeOauthAccountLinked:       http.StatusConflict,
	domain.CodeOauthConnectionNotFound:  http.StatusNotFound,
	domain.CodeOauthCannotUnlinkLast:    http.StatusConflict,
	domain.CodeOauthHandleRequired:      http.StatusUnprocessableEntity,

	domain.CodePasswordIncorrect:       http.StatusUnauthorized,
	domain.CodePasswordAlreadySet:      http.StatusConflict,
	domain.CodePasswordOauthOnlyUpdate: http.StatusBadRequest,

	domain.CodeTokenInvalidVerification: http.StatusUnauthorized,
	domain.CodeTokenExpiredVerification: http.StatusUnauthorized,
	domain.CodeTokenEmailMismatch:       http.StatusUnauthorized,
	domain.CodeTokenInvalidReset:        http.StatusUnauthorized,
	domain.CodeTokenExpiredReset:        http.StatusUnauthorized,

	domain.CodeEmailAlreadyVerified: http.StatusConflict,

	domain.CodeFileNotFound: http.StatusNotFound,
	domain.CodeFileUpload:   http.StatusInternalServerError,
	domain.CodeFileRead:     http.StatusInternalServerError,
	domain.CodeFileTooLarge: http.StatusRequestEntityTooLarge,

	domain.CodeBadRequest:       http.StatusBadRequest,
	domain.CodeValidation:       http.StatusBadRequest,
	domain.CodeInvalidIPAddress: http.StatusBadRequest,
	domain.CodeNotFound:         http.StatusNotFound,

	domain.CodeSysInternal:      http.StatusInternalServerError,
	domain.CodeSysDatabase:      http.StatusInternalServerError,
	domain.CodeSysTransaction:   http.StatusInternalServerError,
	domain.CodeSysHashing:       http.StatusInternalServerError,
	domain.CodeSysTokenCreation: http.StatusInternalServerError,

	domain.CodeRateLimitExceeded: http.StatusTooManyRequests,
}

// classify resolves an error to (status, code, public message, detail).
func classify(err error) (int, domain.ErrorCode, string, string) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, domain.CodeUnknown, "internal error", err.Error()
	}

	status, ok := statusByCode[dErr.Code]
	if !ok {
		return http.StatusInternalServerError, domain.CodeUnknown, "internal error", dErr.Error()
	}

	detail := dErr.Detail
	if detail == "" && dErr.Err != nil {
		detail = dErr.Err.Error()
	}
	return status, dErr.Code, dErr.Message, detail
}
