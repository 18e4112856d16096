package command

import (
	"strings"

	"github.com/goliatone/go-merchant-auth/core"
)

const (
	TypeBeginAuthorization = "merchant_auth.command.authorize.begin"
	TypeCompleteCallback   = "merchant_auth.command.callback.complete"
	TypeRefresh            = "merchant_auth.command.refresh"
	TypeRevoke             = "merchant_auth.command.revoke"
	TypePurgeStates        = "merchant_auth.command.states.purge"
)

// BeginAuthorizationMessage starts the OAuth flow. The merchant id may
// be empty for installs initiated from the platform app store.
type BeginAuthorizationMessage struct {
	Request core.BeginAuthorizationRequest
}

func (BeginAuthorizationMessage) Type() string { return TypeBeginAuthorization }

func (m BeginAuthorizationMessage) Validate() error {
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state parameter is required")
	}
	return nil
}

type RefreshMessage struct {
	MerchantID string
	// Force skips the expiry-buffer check and always rotates.
	Force bool
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	if strings.TrimSpace(m.MerchantID) == "" {
		return commandValidationError("merchant_id", "merchant id is required")
	}
	return nil
}

type RevokeMessage struct {
	MerchantID string
	Client     core.ClientContext
}

func (RevokeMessage) Type() string { return TypeRevoke }

func (m RevokeMessage) Validate() error {
	if strings.TrimSpace(m.MerchantID) == "" {
		return commandValidationError("merchant_id", "merchant id is required")
	}
	return nil
}

type PurgeStatesMessage struct{}

func (PurgeStatesMessage) Type() string { return TypePurgeStates }

func (PurgeStatesMessage) Validate() error { return nil }
