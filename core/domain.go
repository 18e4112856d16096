package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCredentialNotFound = errors.New("core: credential not found")
	ErrCredentialUnusable = errors.New("core: credential unusable, re-authorization required")
)

type CredentialStatus string

// Expiry is computed from expires_at, never stored: the status column only
// distinguishes live rows from revoked ones.
const (
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusRevoked CredentialStatus = "revoked"
)

// Credential is the persisted view of a merchant's authorization. Token
// columns hold ciphertext envelopes produced by the token cipher; plaintext
// only exists in memory as a TokenSet.
type Credential struct {
	ID                 string
	MerchantID         string
	StoreID            *int64
	AccessCiphertext   string
	BearerCiphertext   string
	RefreshCiphertext  string
	ExpiresAt          time.Time
	Status             CredentialStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastRefreshedAt    *time.Time
	AuthorizationScope []string
}

// TokenSet is the decrypted triple the Zid API requires on every call. The
// platform authenticates with both the manager access token and the bearer
// authorization token at once.
type TokenSet struct {
	AccessToken        string
	AuthorizationToken string
	RefreshToken       string
}

func (t TokenSet) Validate() error {
	if strings.TrimSpace(t.AccessToken) == "" {
		return fmt.Errorf("core: access token is required")
	}
	if strings.TrimSpace(t.AuthorizationToken) == "" {
		return fmt.Errorf("core: authorization token is required")
	}
	return nil
}

// TokenGrant is a successful upstream token-endpoint response after shape
// validation. RefreshToken may be empty on refresh grants; the stored value
// is reused then.
type TokenGrant struct {
	AccessToken        string
	AuthorizationToken string
	RefreshToken       string
	ExpiresIn          int64
}

// ExpiresAt resolves the grant lifetime against now, falling back to the
// platform's one-year contractual default when expires_in is absent.
func (g TokenGrant) ExpiresAt(now time.Time) time.Time {
	seconds := g.ExpiresIn
	if seconds <= 0 {
		seconds = DefaultTokenLifetimeSeconds
	}
	return now.UTC().Add(time.Duration(seconds) * time.Second)
}

const DefaultTokenLifetimeSeconds int64 = 31536000

type OAuthState struct {
	ID         string
	StateHash  string
	MerchantID string
	ExpiresAt  time.Time
	Used       bool
	CreatedAt  time.Time
}

type AuditAction string

const (
	AuditActionOAuthInitiated  AuditAction = "oauth_initiated"
	AuditActionTokensCreated   AuditAction = "tokens_created"
	AuditActionTokensRefreshed AuditAction = "tokens_refreshed"
	AuditActionTokensRevoked   AuditAction = "tokens_revoked"
)

type AuditEntry struct {
	ID         string
	MerchantID string
	Action     AuditAction
	Success    bool
	Detail     string
	IPAddress  string
	UserAgent  string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ClientContext carries request provenance into the audit trail.
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// CredentialSnapshot is the externally visible status view. It never exposes
// token material.
type CredentialSnapshot struct {
	MerchantID   string
	StoreID      *int64
	Active       bool
	ExpiresAt    time.Time
	UpdatedAt    time.Time
	NeedsRefresh bool
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
