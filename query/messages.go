package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-merchant-auth/core"
)

const (
	TypeCredentialStatus = "merchant_auth.query.credential.status"
	TypeAuthHeaders      = "merchant_auth.query.auth_headers.resolve"
	TypeAuditTrail       = "merchant_auth.query.audit.list"
)

type CredentialStatusMessage struct {
	MerchantID string
}

func (CredentialStatusMessage) Type() string { return TypeCredentialStatus }

func (m CredentialStatusMessage) Validate() error {
	if strings.TrimSpace(m.MerchantID) == "" {
		return fmt.Errorf("query: merchant id is required")
	}
	return nil
}

type AuthHeadersMessage struct {
	MerchantID string
}

func (AuthHeadersMessage) Type() string { return TypeAuthHeaders }

func (m AuthHeadersMessage) Validate() error {
	if strings.TrimSpace(m.MerchantID) == "" {
		return fmt.Errorf("query: merchant id is required")
	}
	return nil
}

type AuditTrailMessage struct {
	Filter core.AuditFilter
}

func (AuditTrailMessage) Type() string { return TypeAuditTrail }

func (m AuditTrailMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return fmt.Errorf("query: offset must be >= 0")
	}
	return nil
}
