package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorBadInput           = "AUTH_BAD_INPUT"
	AuthErrorConfiguration      = "AUTH_CONFIGURATION_ERROR"
	AuthErrorStateInvalid       = "AUTH_STATE_INVALID"
	AuthErrorExchangeFailed     = "AUTH_UPSTREAM_EXCHANGE_FAILED"
	AuthErrorMalformedUpstream  = "AUTH_MALFORMED_UPSTREAM_RESPONSE"
	AuthErrorDecryptionFailed   = "AUTH_DECRYPTION_FAILED"
	AuthErrorCredentialNotFound = "AUTH_CREDENTIAL_NOT_FOUND"
	AuthErrorAlreadyRevoked     = "AUTH_ALREADY_REVOKED"
	AuthErrorReauthRequired     = "AUTH_REAUTHORIZATION_REQUIRED"
	AuthErrorInternal           = "AUTH_INTERNAL_ERROR"
)

// authErrorMapper folds raw store, cipher, and upstream errors into the
// go-errors envelope the transport layer renders. State failures always map
// to the same generic code: callers must not be able to distinguish a
// missing state from an expired or replayed one.
func authErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	// Sentinel matches first: wrapped domain errors classify reliably even
	// when an outer layer rewrites the message.
	switch {
	case errors.Is(err, ErrCredentialUnusable):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorReauthRequired)
	case errors.Is(err, ErrCredentialNotFound):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorCredentialNotFound)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "oauth state"), strings.Contains(msg, "callback state"):
		return newAuthError("invalid or expired authorization state", goerrors.CategoryAuth, AuthErrorStateInvalid)
	case strings.Contains(msg, "re-authorization required"):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorReauthRequired)
	case strings.Contains(msg, "decrypt"):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorDecryptionFailed)
	case strings.Contains(msg, "credential not found"), strings.Contains(msg, "no active credential"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorCredentialNotFound)
	case strings.Contains(msg, "already revoked"), strings.Contains(msg, "no credentials found"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorAlreadyRevoked)
	case strings.Contains(msg, "not configured"), strings.Contains(msg, "configuration"):
		return newAuthError(err.Error(), goerrors.CategoryInternal, AuthErrorConfiguration)
	case strings.Contains(msg, "missing required token fields"), strings.Contains(msg, "malformed"):
		return newAuthError(err.Error(), goerrors.CategoryExternal, AuthErrorMalformedUpstream)
	case strings.Contains(msg, "token exchange"), strings.Contains(msg, "token endpoint"):
		return newAuthError(err.Error(), goerrors.CategoryExternal, AuthErrorExchangeFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = AuthHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthErrorCredentialNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AuthErrorStateInvalid
	case goerrors.CategoryExternal:
		return AuthErrorExchangeFailed
	default:
		return AuthErrorInternal
	}
}

// AuthHTTPStatus maps an error category to an HTTP status code for the REST
// surface. Upstream failures surface as 502 so the caller retries against us,
// not the platform.
func AuthHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
