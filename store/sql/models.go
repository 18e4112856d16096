package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type merchantCredentialRecord struct {
	bun.BaseModel `bun:"table:merchant_credentials,alias:mc"`

	ID                 string     `bun:"id,pk"`
	MerchantID         string     `bun:"merchant_id,notnull"`
	StoreID            *int64     `bun:"store_id"`
	AccessCiphertext   string     `bun:"access_token_ciphertext,notnull"`
	BearerCiphertext   string     `bun:"bearer_token_ciphertext,notnull"`
	RefreshCiphertext  string     `bun:"refresh_token_ciphertext"`
	AuthorizationScope []string   `bun:"authorization_scope,type:jsonb"`
	ExpiresAt          time.Time  `bun:"expires_at,notnull"`
	Status             string     `bun:"status,notnull"`
	LastRefreshedAt    *time.Time `bun:"last_refreshed_at,nullzero"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type oauthStateRecord struct {
	bun.BaseModel `bun:"table:oauth_states,alias:oas"`

	ID         string    `bun:"id,pk"`
	StateHash  string    `bun:"state_hash,notnull"`
	MerchantID string    `bun:"merchant_id,notnull"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	Used       bool      `bun:"used,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type tokenAuditRecord struct {
	bun.BaseModel `bun:"table:token_audit_logs,alias:tal"`

	ID         string         `bun:"id,pk"`
	MerchantID string         `bun:"merchant_id,notnull"`
	Action     string         `bun:"action,notnull"`
	Success    bool           `bun:"success,notnull"`
	Detail     string         `bun:"detail"`
	IPAddress  string         `bun:"ip_address"`
	UserAgent  string         `bun:"user_agent"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
