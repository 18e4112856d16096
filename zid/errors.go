package zid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTokenExchangeFailed marks upstream token endpoint failures: network
// errors, non-2xx responses, and OAuth error payloads.
var ErrTokenExchangeFailed = errors.New("zid: token exchange failed")

// ErrMalformedTokenResponse marks 2xx responses whose body cannot be
// decoded or is missing required token fields.
var ErrMalformedTokenResponse = errors.New("zid: malformed token response")

// ExchangeError carries the upstream detail of a failed token exchange.
type ExchangeError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Cause      error
}

func (e *ExchangeError) Error() string {
	var sb strings.Builder
	sb.WriteString("zid: token exchange failed")
	if e.StatusCode > 0 {
		fmt.Fprintf(&sb, " with status %d", e.StatusCode)
	}
	if e.ErrorCode != "" {
		sb.WriteString(": ")
		sb.WriteString(e.ErrorCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *ExchangeError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrTokenExchangeFailed
}

// Is lets callers match any exchange failure against
// ErrTokenExchangeFailed without inspecting the concrete type.
func (e *ExchangeError) Is(target error) bool {
	return target == ErrTokenExchangeFailed
}

func newExchangeError(status int, code, message string, cause error) *ExchangeError {
	return &ExchangeError{
		StatusCode: status,
		ErrorCode:  code,
		Message:    message,
		Cause:      cause,
	}
}

func malformedResponseError(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedTokenResponse, detail)
}

func missingTokenFieldsError(missing []string) error {
	return fmt.Errorf("zid: token response missing required token fields: %s: %w",
		strings.Join(missing, ", "), ErrMalformedTokenResponse)
}
